package ports

import (
	"context"
	"io"
)

// FileUpload is an incoming binary attachment from the transport layer.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentStore stores uploaded binaries in durable object storage.
// A successful upload must return a stable, non-empty public URL; anything else
// is an error the caller surfaces to the client.
type DocumentStore interface {
	Upload(ctx context.Context, keyPrefix string, file FileUpload) (string, error)
}
