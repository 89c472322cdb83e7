package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"stockfeed/internal/model"
)

// WriteSnapshot replaces the JSON snapshot at path with products.
func WriteSnapshot(path string, products []model.ProductVariant) error {
	if products == nil {
		products = []model.ProductVariant{}
	}
	b, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads the products written by WriteSnapshot.
func ReadSnapshot(path string) ([]model.ProductVariant, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	var products []model.ProductVariant
	if err := json.Unmarshal(b, &products); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return products, nil
}
