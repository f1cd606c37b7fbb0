package listing

import (
	"time"

	"github.com/navidved/vitrine/internal/storage"
)

// Item is one object ready for display.
type Item struct {
	Name        string            `json:"name"        example:"3f2c9e1a.pdf"`
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"createdAt"`
	Size        *int64            `json:"size,omitempty"`
	SizeLabel   string            `json:"sizeLabel"   example:"1.5 MiB"`
	Category    Category          `json:"category"    example:"documents"`
	PublicURL   string            `json:"publicUrl,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Previewable bool              `json:"previewable"`
}

// View is a filtered listing plus the counts shown as "N of M files".
type View struct {
	Bucket    string `json:"bucket"    example:"user-files"`
	Total     int    `json:"total"     example:"12"`
	Count     int    `json:"count"     example:"3"`
	Truncated bool   `json:"truncated"`
	Items     []Item `json:"items"`
	// Error carries a failed fetch's message; the listing is then empty.
	Error string `json:"error,omitempty"`
}

// Render filters snap by st. urlFor may be nil when public URLs are not wanted.
func Render(snap *Snapshot, st FilterState, urlFor func(name string) string) View {
	v := View{Items: []Item{}}
	if snap == nil {
		return v
	}
	v.Bucket = snap.Bucket
	v.Total = len(snap.Objects)
	v.Truncated = snap.Truncated

	for _, o := range ApplyFilters(snap.Objects, st) {
		it := itemOf(o)
		if urlFor != nil {
			it.PublicURL = urlFor(o.Name)
		}
		v.Items = append(v.Items, it)
	}
	v.Count = len(v.Items)
	return v
}

func itemOf(o storage.Object) Item {
	cat := CategoryOf(o.Name)
	return Item{
		Name:        o.Name,
		ID:          o.ID,
		CreatedAt:   o.CreatedAt,
		Size:        o.Size,
		SizeLabel:   FormatSize(o.Size),
		Category:    cat,
		Metadata:    o.Metadata,
		Previewable: cat == Images && Extension(o.Name) != "bmp",
	}
}
