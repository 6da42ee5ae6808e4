package domain

import (
	"context"
	"time"
)

// TextExtractor is the upstream document-to-text collaborator. Implementations
// may be slow or fail; a failure maps to the critical error category.
type TextExtractor interface {
	ExtractText(ctx context.Context, handle string) (string, error)
}

// ResultCache caches parse results keyed by a normalized content hash.
type ResultCache interface {
	Get(ctx context.Context, key string) (*ExtractedInvoice, error)
	Set(ctx context.Context, key string, invoice *ExtractedInvoice, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// InvoiceParser is the sole entry point of the extraction core.
type InvoiceParser interface {
	ParseInvoice(ctx context.Context, rawText string, opts ParseOptions) (*ExtractedInvoice, error)
	ParseDocument(ctx context.Context, handle string, opts ParseOptions) (*ExtractedInvoice, error)
}
