package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/platform"
	"github.com/navidved/vitrine/internal/storage"
)

var fixedNow = time.UnixMilli(1741000000000)

type invalidations []string

func (i *invalidations) Invalidate(bucket string) { *i = append(*i, bucket) }

func newCoordinator(t *testing.T) (*Coordinator, *storage.MemoryStorage, *invalidations) {
	t.Helper()
	mem := storage.NewMemoryStorage("http://cdn")
	for _, b := range []string{AvatarsBucket, UserFilesBucket, GalleryBucket} {
		require.NoError(t, mem.EnsureBucket(context.Background(), b, true))
	}
	inv := &invalidations{}
	c := NewCoordinator(platform.Static{Client: &platform.Client{Storage: mem}}, inv, logging.Discard())
	c.now = func() time.Time { return fixedNow }
	return c, mem, inv
}

func file(name, contentType string, size int) *File {
	return &File{Name: name, ContentType: contentType, Size: int64(size), Body: bytes.NewReader(make([]byte, size))}
}

type fakeTarget struct {
	owner   string
	gen     uint64
	attrErr error
	attrs   map[string]any
	url     string
	path    string
}

func (f *fakeTarget) OwnerID() string    { return f.owner }
func (f *fakeTarget) Generation() uint64 { return f.gen }
func (f *fakeTarget) UpdateAttributes(_ context.Context, attrs map[string]any) error {
	if f.attrErr != nil {
		return f.attrErr
	}
	f.attrs = attrs
	return nil
}
func (f *fakeTarget) SetProfile(gen uint64, url, path string) bool {
	if gen != f.gen {
		return false
	}
	f.url, f.path = url, path
	return true
}

func TestPolicy_ValidationOrder(t *testing.T) {
	tests := []struct {
		name string
		p    Policy
		f    *File
		want error
	}{
		{"nil file", Profile, nil, ErrNoFile},
		{"no body", Profile, &File{Name: "a.png", ContentType: "image/png"}, ErrNoFile},
		{"wrong type before size", Profile, file("a.pdf", "application/pdf", 6<<20), ErrWrongType},
		{"too large", Profile, file("a.png", "image/png", 6<<20), ErrTooLarge},
		{"exactly 5 MiB", Profile, file("a.png", "image/png", 5<<20), nil},
		{"gallery has no limit", Gallery, file("a.png", "image/png", 6<<20), nil},
		{"gallery rejects text", Gallery, file("a.txt", "text/plain", 1), ErrWrongType},
		{"generic takes anything", Generic, file("a.bin", "", 6<<20), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate(tc.f)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, apperr.Is(err, apperr.Validation))
		})
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "profiles/profile-u1-1741000000000.jpg", Profile.Key("u1", "jpg", fixedNow))
	assert.Equal(t, "gallery-u1-1741000000000.png", Gallery.Key("u1", "png", fixedNow))

	k := Generic.Key("", "pdf", fixedNow)
	assert.True(t, strings.HasSuffix(k, ".pdf"))
	assert.Len(t, k, 36+4)
	assert.NotEqual(t, k, Generic.Key("", "pdf", fixedNow))

	assert.Equal(t, "gallery-u1-1741000000000", Gallery.Key("u1", Extension("README"), fixedNow))
}

func TestCoordinator_OversizedProfileNeverReachesStorage(t *testing.T) {
	c, mem, _ := newCoordinator(t)
	target := &fakeTarget{owner: "u1"}

	_, err := c.UploadProfile(context.Background(), target, file("big.png", "image/png", 6<<20))

	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, mem.Calls())
	assert.Nil(t, target.attrs)
}

func TestCoordinator_ProfileUploadPersistsAttributes(t *testing.T) {
	c, mem, inv := newCoordinator(t)
	target := &fakeTarget{owner: "u1", gen: 3}

	res, err := c.UploadProfile(context.Background(), target, file("me.jpg", "image/jpeg", 2<<20))
	require.NoError(t, err)

	wantKey := "profiles/profile-u1-1741000000000.jpg"
	assert.Equal(t, wantKey, res.Key)
	assert.Equal(t, "http://cdn/avatars/"+wantKey, res.PublicURL)
	assert.True(t, res.MetadataSynced)
	assert.Equal(t, map[string]any{
		auth.AttrProfileURL:      res.PublicURL,
		auth.AttrProfileFilePath: wantKey,
	}, target.attrs)
	assert.Equal(t, res.PublicURL, target.url)
	assert.Equal(t, []string{"upload avatars/" + wantKey}, mem.Calls())
	assert.Equal(t, []string{AvatarsBucket}, []string(*inv))
}

func TestCoordinator_ProfileOverwritesSameKey(t *testing.T) {
	c, _, _ := newCoordinator(t)
	target := &fakeTarget{owner: "u1"}

	_, err := c.UploadProfile(context.Background(), target, file("me.jpg", "image/jpeg", 10))
	require.NoError(t, err)
	_, err = c.UploadProfile(context.Background(), target, file("me.jpg", "image/jpeg", 20))
	assert.NoError(t, err)
}

func TestCoordinator_AttributeFailureKeepsUpload(t *testing.T) {
	c, _, _ := newCoordinator(t)
	target := &fakeTarget{owner: "u1", attrErr: errors.New("identity service down")}

	res, err := c.UploadProfile(context.Background(), target, file("me.png", "image/png", 100))
	require.NoError(t, err)
	assert.False(t, res.MetadataSynced)
	assert.NotEmpty(t, res.PublicURL)
	assert.Equal(t, res.PublicURL, target.url)

	// Clients read the flag, so false is sent rather than omitted.
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"metadataSynced":false`)
}

func TestCoordinator_MissingConfiguration(t *testing.T) {
	cfgErr := apperr.New(apperr.Configuration, "platform is not configured: missing PLATFORM_URL")
	c := NewCoordinator(platform.Static{Err: cfgErr}, nil, logging.Discard())

	_, err := c.UploadProfile(context.Background(), &fakeTarget{owner: "u1"}, file("me.png", "image/png", 100))
	assert.True(t, apperr.Is(err, apperr.Configuration))
}

func TestCoordinator_GenericCollisionIsStorageError(t *testing.T) {
	c, mem, _ := newCoordinator(t)
	mem.Put(UserFilesBucket, "fixed.txt", []byte("x"), "text/plain", fixedNow)
	p := Generic
	p.Key = func(string, string, time.Time) string { return "fixed.txt" }

	_, err := c.Upload(context.Background(), p, "", file("a.txt", "text/plain", 1))

	assert.True(t, apperr.Is(err, apperr.Storage))
	assert.Equal(t, "a file with this name already exists", apperr.Message(err))
}

func TestCoordinator_GalleryNeedsOwner(t *testing.T) {
	c, mem, _ := newCoordinator(t)

	_, err := c.Upload(context.Background(), Gallery, "", file("a.png", "image/png", 1))

	assert.True(t, apperr.Is(err, apperr.Auth))
	assert.Empty(t, mem.Calls())
}

func TestCoordinator_StaleSessionDiscardsProfile(t *testing.T) {
	c, _, _ := newCoordinator(t)
	target := &staleTarget{fakeTarget: fakeTarget{owner: "u1"}}

	res, err := c.UploadProfile(context.Background(), target, file("me.png", "image/png", 100))
	require.NoError(t, err)
	assert.NotEmpty(t, res.PublicURL)
	assert.Empty(t, target.url, "a sign-out during upload must not write the profile URL")
}

// staleTarget simulates a sign-out between the start and end of the upload.
type staleTarget struct {
	fakeTarget
	calls int
}

func (s *staleTarget) Generation() uint64 {
	s.calls++
	return uint64(s.calls)
}
