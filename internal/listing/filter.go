// Package listing fetches bucket snapshots and derives the filtered, sorted
// views the browser renders.
package listing

import (
	"cmp"
	"path"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/navidved/vitrine/internal/storage"
)

// Category is a coarse classification derived from a file extension.
type Category string

const (
	All       Category = "all"
	Images    Category = "images"
	Documents Category = "documents"
	Videos    Category = "videos"
	Other     Category = "other"
)

// SortKey orders a listing.
type SortKey string

const (
	SortName      SortKey = "name"
	SortSize      SortKey = "size"
	SortCreatedAt SortKey = "createdAt"
)

var (
	imageExtensions    = extSet("jpg", "jpeg", "png", "gif", "webp", "svg", "bmp")
	documentExtensions = extSet("pdf", "doc", "docx", "txt", "md", "rtf", "odt", "xls", "xlsx", "ppt", "pptx", "csv")
	videoExtensions    = extSet("mp4", "mov", "avi", "mkv", "webm")
)

func extSet(exts ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[e] = struct{}{}
	}
	return m
}

// Extension returns the lower-cased extension of name without the dot, or "".
func Extension(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// CategoryOf classifies name by extension. It never fails.
func CategoryOf(name string) Category {
	ext := Extension(name)
	if _, ok := imageExtensions[ext]; ok {
		return Images
	}
	if _, ok := documentExtensions[ext]; ok {
		return Documents
	}
	if _, ok := videoExtensions[ext]; ok {
		return Videos
	}
	return Other
}

// FilterState is the browser's search, category, and sort selection.
type FilterState struct {
	Search   string
	Category Category
	Sort     SortKey
}

// ParseCategory maps s to a filter category; anything unknown is All.
func ParseCategory(s string) Category {
	switch c := Category(s); c {
	case Images, Documents, Videos:
		return c
	default:
		return All
	}
}

// ParseSort maps s to a sort key; anything unknown is SortCreatedAt.
func ParseSort(s string) SortKey {
	switch k := SortKey(s); k {
	case SortName, SortSize:
		return k
	default:
		return SortCreatedAt
	}
}

// ApplyFilters returns the objects matching st in display order. The input is
// not modified. Equal keys keep their fetch order.
func ApplyFilters(objects []storage.Object, st FilterState) []storage.Object {
	needle := strings.ToLower(st.Search)
	out := make([]storage.Object, 0, len(objects))
	for _, o := range objects {
		if !strings.Contains(strings.ToLower(o.Name), needle) {
			continue
		}
		if st.Category != "" && st.Category != All && CategoryOf(o.Name) != st.Category {
			continue
		}
		out = append(out, o)
	}

	switch st.Sort {
	case SortName:
		slices.SortStableFunc(out, func(a, b storage.Object) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortSize:
		slices.SortStableFunc(out, func(a, b storage.Object) int {
			return cmp.Compare(sizeOf(b), sizeOf(a))
		})
	default:
		slices.SortStableFunc(out, func(a, b storage.Object) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}

func sizeOf(o storage.Object) int64 {
	if o.Size == nil {
		return 0
	}
	return *o.Size
}

// FormatSize renders a byte count for display. Absent and zero sizes are
// reported as unknown because the store omits sizes it has not computed.
func FormatSize(size *int64) string {
	if size == nil || *size <= 0 {
		return "Unknown size"
	}
	return humanize.IBytes(uint64(*size))
}
