// Package coretest provides in-memory doubles of the core interfaces for tests.
package coretest

import (
	"context"
	"sort"
	"sync"

	"github.com/JonMunkholm/inventory/internal/core"
)

// Store is an in-memory core.Store. Set the *Err fields to make the next
// calls of that method fail.
type Store struct {
	mu       sync.Mutex
	products map[string]core.Product

	FindErr   error
	InsertErr error
	ListErr   error
	CountErr  error

	// InsertCalls counts InsertBatch invocations, failed ones included.
	InsertCalls int
}

// NewStore returns a store seeded with products.
func NewStore(products ...core.Product) *Store {
	s := &Store{products: make(map[string]core.Product)}
	for _, p := range products {
		s.products[p.SKU] = p
	}
	return s
}

// FindBySKU implements core.Store.
func (s *Store) FindBySKU(_ context.Context, sku string) (*core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FindErr != nil {
		return nil, s.FindErr
	}
	p, ok := s.products[sku]
	if !ok {
		return nil, core.ErrProductNotFound
	}
	return &p, nil
}

// InsertBatch implements core.Store. It stores all products or none.
func (s *Store) InsertBatch(_ context.Context, products []core.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.InsertCalls++
	if s.InsertErr != nil {
		return s.InsertErr
	}
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if _, exists := s.products[p.SKU]; exists || seen[p.SKU] {
			return core.ErrDuplicateSKU
		}
		seen[p.SKU] = true
	}
	for _, p := range products {
		s.products[p.SKU] = p
	}
	return nil
}

// List implements core.Store.
func (s *Store) List(_ context.Context, page core.Page) ([]core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return window(s.sorted(nil), &page), nil
}

// Search implements core.Store.
func (s *Store) Search(_ context.Context, f core.ProductFilter) ([]core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ListErr != nil {
		return nil, s.ListErr
	}
	match := func(p core.Product) bool {
		if f.Brand != nil && p.Brand != *f.Brand {
			return false
		}
		if f.Color != nil && (p.Color == nil || *p.Color != *f.Color) {
			return false
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			return false
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			return false
		}
		return true
	}
	return window(s.sorted(match), f.Page), nil
}

// Count implements core.Store.
func (s *Store) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CountErr != nil {
		return 0, s.CountErr
	}
	return int64(len(s.products)), nil
}

// Len returns the number of stored products.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

func (s *Store) sorted(keep func(core.Product) bool) []core.Product {
	out := make([]core.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func window(products []core.Product, page *core.Page) []core.Product {
	if page == nil {
		return products
	}
	start := page.Offset()
	if start >= len(products) {
		return []core.Product{}
	}
	end := start + page.Limit
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	Err    error
	Events map[string][]core.Product
}

// NewPublisher returns an empty recording publisher.
func NewPublisher() *Publisher {
	return &Publisher{Events: make(map[string][]core.Product)}
}

// ProductsImported implements core.EventPublisher.
func (p *Publisher) ProductsImported(_ context.Context, uploadID string, products []core.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.Events[uploadID] = append(p.Events[uploadID], products...)
	return nil
}

// Count returns the number of products announced across all uploads.
func (p *Publisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, products := range p.Events {
		n += len(products)
	}
	return n
}
