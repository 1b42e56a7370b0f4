package domain

import (
	"context"
	"time"
)

// ProductSource fetches raw product records from an external database.
type ProductSource interface {
	FetchProducts(ctx context.Context, limit int) ([]ProductRecord, error)
}

// Oracle is an external text-classification capability. The classifier hands
// it a prompt and receives raw text expected to contain one JSON object; the
// oracle's internals are out of scope.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProductCache caches fetched product batches with a TTL.
type ProductCache interface {
	Get(ctx context.Context, key string) ([]ProductRecord, error)
	Set(ctx context.Context, key string, products []ProductRecord, ttl time.Duration) error
}

// MappingStore persists barcode to welfare rating mappings per pipeline run.
type MappingStore interface {
	SaveRun(ctx context.Context, runID string, products []RatedProduct) error
	LookupBarcode(ctx context.Context, barcode string) (*RatedProduct, error)
	Close() error
}
