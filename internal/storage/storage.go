package storage

import (
	"context"
	"io"
)

// Uploader stores synthesized question audio and returns a URL a client can
// play back directly.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedURL string, err error)
}
