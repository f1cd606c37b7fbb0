package listing

import (
	"context"
	"errors"
	"path"
	"sync"
	"time"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/platform"
	"github.com/navidved/vitrine/internal/storage"
)

// PageLimit caps a listing at the store's first page.
const PageLimit = 100

// ErrNotConfirmed is returned by Delete when the caller did not confirm.
var ErrNotConfirmed = apperr.New(apperr.Validation, "not confirmed")

// Snapshot is the last listing fetched for a bucket. It may be stale.
type Snapshot struct {
	Bucket    string
	Objects   []storage.Object
	Truncated bool
	FetchedAt time.Time
}

// Service lists, downloads, and deletes objects, caching one snapshot per bucket.
type Service struct {
	src platform.Source
	log logging.Logger
	now func() time.Time

	mu    sync.Mutex
	cache map[string]*Snapshot
	// version counts invalidations per bucket; a fetch that started before
	// one does not cache its result.
	version map[string]uint64
}

// NewService creates a listing Service.
func NewService(src platform.Source, log logging.Logger) *Service {
	return &Service{
		src:     src,
		log:     log,
		now:     time.Now,
		cache:   make(map[string]*Snapshot),
		version: make(map[string]uint64),
	}
}

// List returns the cached snapshot for bucket, fetching it when absent or when refresh is set.
func (s *Service) List(ctx context.Context, bucket string, refresh bool) (*Snapshot, error) {
	if !refresh {
		s.mu.Lock()
		snap, ok := s.cache[bucket]
		s.mu.Unlock()
		if ok {
			return snap, nil
		}
	}
	return s.fetch(ctx, bucket)
}

func (s *Service) fetch(ctx context.Context, bucket string) (*Snapshot, error) {
	pc, err := s.src.Get(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	v := s.version[bucket]
	s.mu.Unlock()

	page, err := pc.Storage.List(ctx, bucket, storage.ListOptions{Limit: PageLimit})
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list "+bucket, err)
	}

	snap := &Snapshot{
		Bucket:    bucket,
		Objects:   page.Objects,
		Truncated: page.Truncated,
		FetchedAt: s.now(),
	}
	s.mu.Lock()
	if s.version[bucket] == v {
		s.cache[bucket] = snap
	}
	s.mu.Unlock()

	if page.Truncated {
		s.log.Debug(ctx, "listing truncated", "bucket", bucket, "limit", PageLimit)
	}
	return snap, nil
}

// Invalidate drops the cached snapshot for bucket. Fetches already in flight
// still return their snapshot but no longer cache it.
func (s *Service) Invalidate(bucket string) {
	s.mu.Lock()
	s.version[bucket]++
	delete(s.cache, bucket)
	s.mu.Unlock()
}

// SaveFunc receives an object body under the name it should be saved as.
type SaveFunc func(saveAs string, blob *storage.Blob) error

// Download opens name and hands it to save. The body is closed on every path.
func (s *Service) Download(ctx context.Context, bucket, name string, save SaveFunc) error {
	if name == "" {
		return apperr.New(apperr.Validation, "no file selected")
	}
	pc, err := s.src.Get(ctx)
	if err != nil {
		return err
	}

	blob, err := pc.Storage.Download(ctx, bucket, name)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return &apperr.Error{Kind: apperr.Storage, Op: "download " + name, Message: "file not found", Err: err}
	}
	if err != nil {
		return apperr.Wrap(apperr.Storage, "download "+name, err)
	}
	defer blob.Body.Close()

	return save(SaveName(name), blob)
}

// SaveName is the final path segment of name.
func SaveName(name string) string {
	if base := path.Base(name); base != "." && base != "/" {
		return base
	}
	return name
}

// Delete removes name once confirmed, then re-fetches the listing. Without
// confirmation nothing is sent and ErrNotConfirmed is returned.
func (s *Service) Delete(ctx context.Context, bucket, name string, confirmed bool) (*Snapshot, error) {
	if name == "" {
		return nil, apperr.New(apperr.Validation, "no file selected")
	}
	if !confirmed {
		return nil, ErrNotConfirmed
	}
	pc, err := s.src.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := pc.Storage.Delete(ctx, bucket, []string{name}); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "delete "+name, err)
	}
	s.log.Info(ctx, "object deleted", "bucket", bucket, "name", name)

	s.Invalidate(bucket)
	return s.fetch(ctx, bucket)
}

// PublicURL resolves the browser URL of an object.
func (s *Service) PublicURL(ctx context.Context, bucket, name string) (string, error) {
	pc, err := s.src.Get(ctx)
	if err != nil {
		return "", err
	}
	return pc.Storage.PublicURL(bucket, name), nil
}
