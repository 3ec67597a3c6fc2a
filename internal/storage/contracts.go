// Package storage holds the artifact store used to fetch uploads and re-upload archive entries.
package storage

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/resume-ingestor/internal/common"
)

var (
	// ErrNotFound wraps common.ErrNotFound for missing objects.
	ErrNotFound = common.WrapError(common.ErrNotFound, "object")
	// ErrAlreadyExists is returned by Put when upsert is disabled and the key is taken.
	ErrAlreadyExists = errors.New("object already exists")
)

// ArtifactStore is byte-oriented get/put by (bucket, key).
type ArtifactStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string, upsert bool) error
}
