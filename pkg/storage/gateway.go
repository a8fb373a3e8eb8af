// Package storage holds the file attachment gateway: result documents
// are validated here, stored out-of-band in an object store, and
// referenced by URL from report_files rows.
package storage

import (
	"context"
	"time"

	"github.com/labbuddy/platform/pkg/common/errs"
)

// DefaultAllowedTypes mirrors the document formats labs actually send.
// Strict endpoints pass their own allow-list (e.g. PDF only).
var DefaultAllowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/tiff",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Gateway is the only storage surface the report engine depends on.
type Gateway interface {
	// Upload stores the bytes and returns a durable reference URL.
	Upload(ctx context.Context, data []byte, contentType, folder string) (string, error)
	// Delete removes the object behind the URL; it never fails loudly.
	Delete(ctx context.Context, fileURL string) bool
	// Presign returns a time-boxed access URL, or false when the store
	// cannot produce one (e.g. no credentials configured).
	Presign(ctx context.Context, fileURL string, expiry time.Duration) (string, bool)
}

// Validate rejects a file before any storage call is attempted.
func Validate(contentType string, sizeBytes int64, maxSizeMB int, allowedTypes []string) error {
	if len(allowedTypes) == 0 {
		allowedTypes = DefaultAllowedTypes
	}

	allowed := false
	for _, t := range allowedTypes {
		if contentType == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return errs.Validation("file type %s not allowed", contentType)
	}

	maxBytes := int64(maxSizeMB) * 1024 * 1024
	if sizeBytes > maxBytes {
		return errs.Validation("file size %.2fMB exceeds maximum allowed size of %dMB",
			float64(sizeBytes)/(1024*1024), maxSizeMB)
	}

	return nil
}
