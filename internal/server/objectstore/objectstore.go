// Package objectstore holds part payloads outside the database when
// multipart values are offloaded.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is a flat key/blob store.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns common.ErrorNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete succeeds for a missing key.
	Delete(ctx context.Context, key string) error
}

// NewValuePrefix returns a fresh, date-partitioned prefix for the parts of
// one value, e.g. values/2025/3/14/<uuid>.
func NewValuePrefix(now time.Time) string {
	return fmt.Sprintf("values/%d/%d/%d/%v", now.Year(), now.Month(), now.Day(), uuid.New())
}

// PartKey names part index i under prefix.
func PartKey(prefix string, i int) string {
	return fmt.Sprintf("%s/%d", prefix, i)
}
