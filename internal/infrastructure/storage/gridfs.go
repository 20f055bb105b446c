// Package storage implements the document store over MongoDB GridFS. Uploads
// yield a stable public URL served back through the API's /files route.
package storage

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"

	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

const uploadTimeout = 30 * time.Second

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// GridFSStore stores uploaded documents in a GridFS bucket.
type GridFSStore struct {
	bucket  *gridfs.Bucket
	baseURL string
}

// NewGridFSStore creates a store over the database's default bucket. baseURL
// is the public prefix the API serves files from, e.g. "http://localhost:8080".
func NewGridFSStore(db *mongo.Database, baseURL string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload streams the file into GridFS and returns its public URL. The stored
// filename is prefixed with the key prefix and a millisecond timestamp, with
// unsafe characters stripped.
func (s *GridFSStore) Upload(ctx context.Context, keyPrefix string, file ports.FileUpload) (string, error) {
	deadline := time.Now().Add(uploadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.bucket.SetWriteDeadline(deadline); err != nil {
		return "", fmt.Errorf("gridfs upload: %w", err)
	}

	name := fmt.Sprintf("%s/%d-%s", keyPrefix, time.Now().UnixMilli(), sanitizeFilename(file.Filename))
	id, err := s.bucket.UploadFromStream(name, file.Body)
	if err != nil {
		return "", fmt.Errorf("gridfs upload: %w", err)
	}
	return fmt.Sprintf("%s/files/%s", s.baseURL, id.Hex()), nil
}

// Download streams the stored file with the given hex id to w and returns the
// stored filename.
func (s *GridFSStore) Download(ctx context.Context, hexID string, w io.Writer) (string, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return "", fmt.Errorf("gridfs download: invalid id: %w", err)
	}

	if d, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetReadDeadline(d); err != nil {
			return "", fmt.Errorf("gridfs download: %w", err)
		}
	}

	stream, err := s.bucket.OpenDownloadStream(id)
	if err != nil {
		return "", fmt.Errorf("gridfs download: %w", err)
	}
	defer stream.Close()

	name := stream.GetFile().Name
	if _, err := io.Copy(w, stream); err != nil {
		return "", fmt.Errorf("gridfs download: %w", err)
	}
	return name, nil
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "")
	return unsafeFilenameChars.ReplaceAllString(name, "")
}
