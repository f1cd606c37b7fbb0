package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memObject struct {
	id          string
	data        []byte
	contentType string
	createdAt   time.Time
}

// MemoryStorage keeps buckets in process memory. It backs the "memory" driver
// used for offline development and tests.
type MemoryStorage struct {
	publicBase string
	now        func() time.Time

	mu      sync.Mutex
	buckets map[string]map[string]*memObject
	calls   []string
}

// NewMemoryStorage creates an empty store. Buckets must be created with EnsureBucket.
func NewMemoryStorage(publicBase string) *MemoryStorage {
	return &MemoryStorage{
		publicBase: publicBase,
		now:        time.Now,
		buckets:    make(map[string]map[string]*memObject),
	}
}

// Calls returns the operations performed so far, e.g. "upload avatars/x.png".
func (s *MemoryStorage) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *MemoryStorage) record(op, bucket, key string) {
	s.calls = append(s.calls, op+" "+bucket+"/"+key)
}

func (s *MemoryStorage) bucket(name string) (map[string]*memObject, error) {
	b, ok := s.buckets[name]
	if !ok {
		return nil, fmt.Errorf("bucket %q not found", name)
	}
	return b, nil
}

// List returns objects directly under opts.Prefix ordered by key.
func (s *MemoryStorage) List(_ context.Context, bucket string, opts ListOptions) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("list", bucket, opts.Prefix)

	b, err := s.bucket(bucket)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(b))
	for k := range b {
		rest, ok := strings.CutPrefix(k, opts.Prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	objects := make([]Object, 0, len(keys))
	for _, k := range keys {
		o := b[k]
		size := int64(len(o.data))
		objects = append(objects, Object{
			Name:      strings.TrimPrefix(k, opts.Prefix),
			ID:        o.id,
			CreatedAt: o.createdAt,
			Size:      &size,
			Metadata:  map[string]string{"mimetype": o.contentType},
		})
	}
	return window(objects, opts), nil
}

// Upload stores the whole body under key.
func (s *MemoryStorage) Upload(_ context.Context, bucket, key string, reader io.Reader, _ int64, contentType string, overwrite bool) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("upload", bucket, key)

	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	if _, taken := b[key]; taken && !overwrite {
		return ErrObjectExists
	}
	b[key] = &memObject{id: uuid.NewString(), data: data, contentType: contentType, createdAt: s.now()}
	return nil
}

// Download returns a reader over a copy of the stored bytes.
func (s *MemoryStorage) Download(_ context.Context, bucket, key string) (*Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("download", bucket, key)

	b, err := s.bucket(bucket)
	if err != nil {
		return nil, err
	}
	o, ok := b[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	data := bytes.Clone(o.data)
	return &Blob{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data)), ContentType: o.contentType}, nil
}

// Delete removes keys. Missing keys are ignored, as S3 does.
func (s *MemoryStorage) Delete(_ context.Context, bucket string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	for _, k := range keys {
		s.record("delete", bucket, k)
		delete(b, k)
	}
	return nil
}

func (s *MemoryStorage) PublicURL(bucket, key string) string {
	return publicURL(s.publicBase, bucket, key)
}

func (s *MemoryStorage) EnsureBucket(_ context.Context, bucket string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]*memObject)
	}
	return nil
}

// Put seeds an object with an explicit creation time.
func (s *MemoryStorage) Put(bucket, key string, data []byte, contentType string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket]
	if !ok {
		b = make(map[string]*memObject)
		s.buckets[bucket] = b
	}
	b[key] = &memObject{id: uuid.NewString(), data: data, contentType: contentType, createdAt: createdAt}
}
