// Package functions invokes the platform's edge functions. Only the
// image-processing hook is used; its request and response shapes are closed
// and validated here rather than passed through.
package functions

import (
	"github.com/navidved/vitrine/internal/apperr"
)

// ImageProcess is the name of the image-processing edge function.
const ImageProcess = "image-process"

// Operation is one of the transforms the image hook supports.
type Operation string

const (
	OpResize    Operation = "resize"
	OpCompress  Operation = "compress"
	OpThumbnail Operation = "thumbnail"
)

// Parameter bounds accepted by the hook.
const (
	MinDimension = 10
	MaxDimension = 2000
	MinQuality   = 10
	MaxQuality   = 100
)

// ImageRequest asks the hook to transform one stored image.
type ImageRequest struct {
	Bucket    string    `json:"bucket"`
	FileName  string    `json:"fileName"`
	Operation Operation `json:"operation"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
	Quality   *int      `json:"quality,omitempty"`
}

// Validate checks the required fields for the chosen operation. Parameters that
// do not belong to the operation are dropped.
func (r *ImageRequest) Validate() error {
	if r.FileName == "" {
		return apperr.New(apperr.Validation, "select a file first")
	}
	if r.Bucket == "" {
		return apperr.New(apperr.Validation, "bucket is required")
	}

	switch r.Operation {
	case OpResize:
		if r.Width == nil || r.Height == nil {
			return apperr.New(apperr.Validation, "resize requires width and height")
		}
		if !within(*r.Width, MinDimension, MaxDimension) || !within(*r.Height, MinDimension, MaxDimension) {
			return apperr.Newf(apperr.Validation, "width and height must be between %d and %d", MinDimension, MaxDimension)
		}
		r.Quality = nil
	case OpCompress:
		if r.Quality == nil {
			return apperr.New(apperr.Validation, "compress requires quality")
		}
		if !within(*r.Quality, MinQuality, MaxQuality) {
			return apperr.Newf(apperr.Validation, "quality must be between %d and %d", MinQuality, MaxQuality)
		}
		r.Width, r.Height = nil, nil
	case OpThumbnail:
		r.Width, r.Height, r.Quality = nil, nil, nil
	default:
		return apperr.Newf(apperr.Validation, "unknown operation %q", r.Operation)
	}
	return nil
}

// ImageResult is a successful transform.
type ImageResult struct {
	ProcessedFileName string `json:"processedFileName"`
	PublicURL         string `json:"publicUrl"`
}

// imageResponse is the wire shape: either the success fields or error.
type imageResponse struct {
	Success           bool   `json:"success"`
	ProcessedFileName string `json:"processedFileName"`
	PublicURL         string `json:"publicUrl"`
	Error             string `json:"error"`
}

func (r imageResponse) result() (*ImageResult, error) {
	if !r.Success {
		msg := r.Error
		if msg == "" {
			msg = "processing failed"
		}
		return nil, apperr.New(apperr.Invocation, msg)
	}
	if r.ProcessedFileName == "" {
		return nil, apperr.New(apperr.Invocation, "processing response is missing the processed file name")
	}
	return &ImageResult{ProcessedFileName: r.ProcessedFileName, PublicURL: r.PublicURL}, nil
}

func within(v, lo, hi int) bool {
	return v >= lo && v <= hi
}
