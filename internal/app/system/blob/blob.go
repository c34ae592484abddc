// Package blob stores uploaded files (profile photos, post images) and
// issues expiring signed URLs for clients to fetch them.
package blob

import (
	"context"
	"io"
	"time"
)

// PutOptions carries optional metadata for an upload.
type PutOptions struct {
	ContentType string
}

// SignOptions controls signed URL generation.
type SignOptions struct {
	// Expires bounds how long the URL stays valid. Zero means the
	// store's default TTL.
	Expires time.Duration
}

// Store is the persistence interface for uploaded files. Paths are
// slash-separated keys such as "users/<id>/profile.jpg".
type Store interface {
	Put(ctx context.Context, path string, r io.Reader, opts *PutOptions) error
	Delete(ctx context.Context, path string) error
	SignedURL(ctx context.Context, path string, opts *SignOptions) (string, error)
}
