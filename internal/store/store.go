// Package store persists the two flat JSON documents backing the app:
// products_urls.json (registered URLs) and food_data.json (resolved
// products keyed by URL). Every mutation is a whole-file
// read-modify-write guarded by a mutex; the store is not meant for
// concurrent processes.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"macrotrack/internal/urlmeta"
	"macrotrack/pkg/models"
)

const (
	productURLsFile = "products_urls.json"
	foodDataFile    = "food_data.json"
)

var (
	// ErrInvalidURL rejects registrations that are not retailer
	// product pages. Checked before any I/O.
	ErrInvalidURL = errors.New("store: not a supported retailer product URL")
	// ErrDuplicateURL rejects re-registration of a known URL.
	ErrDuplicateURL = errors.New("store: url already registered")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store owns the data directory. Files are created with empty defaults
// on first use; corrupt files are logged and treated as empty.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates the data directory if needed and initializes both
// documents with their empty defaults.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir}
	if err := s.initFile(productURLsFile, []byte("[]")); err != nil {
		return nil, err
	}
	if err := s.initFile(foodDataFile, []byte("{}")); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initFile(name string, empty []byte) error {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, empty, 0o644); err != nil {
		return fmt.Errorf("init %s: %w", name, err)
	}
	return nil
}

// ProductURLs returns every registered URL in registration order.
func (s *Store) ProductURLs() []models.ProductURL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadURLs()
}

// AddProductURL validates and registers a new URL. URL-derived metadata
// fills any field the caller left empty; explicit values win.
func (s *Store) AddProductURL(reg models.ProductURL) error {
	if !urlmeta.Validate(reg.URL) {
		return ErrInvalidURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	urls := s.loadURLs()
	for _, existing := range urls {
		if existing.URL == reg.URL {
			return ErrDuplicateURL
		}
	}

	md := urlmeta.Extract(reg.URL, "")
	if reg.WeightGr == nil {
		reg.WeightGr = md.WeightGr
	}
	if reg.Type == "" {
		reg.Type = md.Type
	}

	return s.writeJSON(productURLsFile, append(urls, reg))
}

// DeleteProductURL removes a registration. Returns false when the URL
// was not registered.
func (s *Store) DeleteProductURL(url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := s.loadURLs()
	kept := urls[:0]
	for _, u := range urls {
		if u.URL != url {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(urls) {
		return false, nil
	}
	if err := s.writeJSON(productURLsFile, kept); err != nil {
		return false, err
	}
	return true, nil
}

// Products returns all resolved products keyed by URL.
func (s *Store) Products() map[string]models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadProducts()
}

// Product returns the resolved product for url, or nil.
func (s *Store) Product(url string) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.loadProducts()
	if p, ok := products[url]; ok {
		return &p
	}
	return nil
}

// UpdateProducts merges resolved products into food_data.json,
// replacing each URL's prior record wholesale. Entries absent from
// updated are left untouched, which is what keeps failed resolutions
// from clobbering older data.
func (s *Store) UpdateProducts(updated map[string]models.Product) error {
	if len(updated) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.loadProducts()
	for url, p := range updated {
		products[url] = p
	}
	return s.writeJSON(foodDataFile, products)
}

// SearchProducts matches resolved products by name or category
// substring, case-insensitive.
func (s *Store) SearchProducts(query string) []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	var out []models.Product
	for _, p := range s.loadProducts() {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(string(p.Type)), q) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) loadURLs() []models.ProductURL {
	var urls []models.ProductURL
	if err := s.readJSON(productURLsFile, &urls); err != nil {
		zap.S().Errorw("load registered urls failed, treating as empty", "err", err)
		return nil
	}
	return urls
}

func (s *Store) loadProducts() map[string]models.Product {
	products := make(map[string]models.Product)
	if err := s.readJSON(foodDataFile, &products); err != nil {
		zap.S().Errorw("load food data failed, treating as empty", "err", err)
		return make(map[string]models.Product)
	}
	return products
}

func (s *Store) readJSON(name string, v any) error {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
