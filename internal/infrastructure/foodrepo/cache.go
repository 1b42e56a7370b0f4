package foodrepo

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ethicalmeat/backend/internal/domain"
)

// SaveProductsCache writes a fetched product batch to a JSON file, creating
// parent directories as needed.
func SaveProductsCache(path string, products []domain.ProductRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding products: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	log.Printf("[FOODREPO] Saved %d products to cache: %s", len(products), path)
	return nil
}

// LoadProductsCache reads a previously saved product batch. A missing or
// unreadable file reports ErrCacheMiss so callers fall through to the API.
func LoadProductsCache(path string) ([]domain.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}

	var products []domain.ProductRecord
	if err := json.Unmarshal(data, &products); err != nil {
		log.Printf("[FOODREPO] Failed to parse cache %s: %v", path, err)
		return nil, domain.ErrCacheMiss
	}

	log.Printf("[FOODREPO] Loaded %d products from cache: %s", len(products), path)
	return products, nil
}
