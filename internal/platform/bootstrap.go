package platform

import (
	"context"
	"errors"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/logging"
)

// EnsureBuckets creates each bucket with public read if it does not exist.
// Every bucket is attempted; the returned error joins the failures.
func EnsureBuckets(ctx context.Context, src Source, log logging.Logger, buckets ...string) error {
	pc, err := src.Get(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, b := range buckets {
		if err := pc.Storage.EnsureBucket(ctx, b, true); err != nil {
			log.Warn(ctx, "ensure bucket failed", "bucket", b, "error", err)
			errs = append(errs, apperr.Wrap(apperr.Storage, "ensure bucket "+b, err))
			continue
		}
		log.Debug(ctx, "bucket ready", "bucket", b)
	}
	return errors.Join(errs...)
}
