package functions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navidved/vitrine/internal/apperr"
)

func ptr(v int) *int { return &v }

func TestImageRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ImageRequest
		wantErr bool
	}{
		{"resize ok", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpResize, Width: ptr(300), Height: ptr(300)}, false},
		{"resize missing height", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpResize, Width: ptr(300)}, true},
		{"resize too wide", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpResize, Width: ptr(2001), Height: ptr(10)}, true},
		{"compress ok", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpCompress, Quality: ptr(80)}, false},
		{"compress too low", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpCompress, Quality: ptr(5)}, true},
		{"thumbnail ok", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpThumbnail}, false},
		{"unknown op", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: "blur"}, true},
		{"no file", ImageRequest{Bucket: "gallery", Operation: OpThumbnail}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr {
				assert.True(t, apperr.Is(err, apperr.Validation), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestImageRequest_ValidateDropsForeignParams(t *testing.T) {
	req := ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpCompress, Quality: ptr(50), Width: ptr(100), Height: ptr(100)}
	require.NoError(t, req.Validate())
	assert.Nil(t, req.Width)
	assert.Nil(t, req.Height)
}

func TestProcessImage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/image-process"), r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"processedFileName":"a_thumb.png","publicUrl":"https://cdn/a_thumb.png"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	res, err := c.ProcessImage(context.Background(), "user-token", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpThumbnail})
	require.NoError(t, err)
	assert.Equal(t, "a_thumb.png", res.ProcessedFileName)
	assert.Equal(t, "https://cdn/a_thumb.png", res.PublicURL)
	assert.Equal(t, "thumbnail", got["operation"])
	assert.NotContains(t, got, "width")
}

func TestProcessImage_ErrorShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"unsupported format"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	_, err := c.ProcessImage(context.Background(), "", ImageRequest{Bucket: "gallery", FileName: "a.bmp", Operation: OpThumbnail})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Invocation))
	assert.Equal(t, "unsupported format", apperr.Message(err))
}

func TestProcessImage_InvalidRequestMakesNoCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	_, err := c.ProcessImage(context.Background(), "", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpResize})
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Zero(t, calls)
}

func TestProcessImage_NonJSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	_, err := c.ProcessImage(context.Background(), "", ImageRequest{Bucket: "gallery", FileName: "a.png", Operation: OpThumbnail})
	assert.True(t, apperr.Is(err, apperr.Invocation))
	assert.Contains(t, apperr.Message(err), "image-process")
}
