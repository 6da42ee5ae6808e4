// Package textextract provides the upstream document-to-text collaborators.
package textextract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/ledgerlens/backend/internal/domain"
)

// FileExtractor reads already-OCRed invoice text from the local filesystem.
// It implements domain.TextExtractor. Handles are resolved against the
// configured root so callers cannot escape it.
type FileExtractor struct {
	root string
}

// NewFileExtractor creates a file extractor rooted at the given directory
func NewFileExtractor(root string) *FileExtractor {
	return &FileExtractor{root: root}
}

// ExtractText reads the document and validates it is usable text. Missing,
// unreadable, or binary files map to ErrUnreadableDocument.
func (e *FileExtractor) ExtractText(ctx context.Context, handle string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean("/" + handle)
	path := filepath.Join(e.root, clean)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrUnreadableDocument, handle)
	}

	return string(data), nil
}
