package core

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound is returned by a Store when no product has the requested SKU.
	ErrProductNotFound = errors.New("product not found")

	// ErrDuplicateSKU is returned by a Store when a write hits the SKU uniqueness
	// constraint. The text matches the DB001 pattern in the error catalogue.
	ErrDuplicateSKU = errors.New("duplicate key: sku already exists")
)

// Product is a catalog record. It is created only by a successful ingestion
// and never updated or deleted afterwards.
type Product struct {
	SKU      string
	Name     string
	Brand    string
	Color    *string
	Size     *string
	MRP      decimal.Decimal
	Price    decimal.Decimal
	Quantity int
}

// Page is a listing window. Number is 1-based.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of records skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// ProductFilter narrows a search. Nil fields impose no constraint; set fields
// are AND-ed together. Page is nil for an unpaginated search.
type ProductFilter struct {
	Brand    *string
	Color    *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     *Page
}

// Store is the persistent, SKU-keyed product collection.
type Store interface {
	// FindBySKU returns ErrProductNotFound when no product has the SKU.
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// InsertBatch writes every product or none of them.
	InsertBatch(ctx context.Context, products []Product) error

	// List returns one page of products ordered by SKU.
	List(ctx context.Context, page Page) ([]Product, error)

	// Search returns products matching every set field of the filter, ordered by SKU.
	Search(ctx context.Context, filter ProductFilter) ([]Product, error)

	// Count returns the number of stored products.
	Count(ctx context.Context) (int64, error)
}

// EventPublisher announces products that were committed by an ingestion.
type EventPublisher interface {
	ProductsImported(ctx context.Context, uploadID string, products []Product) error
}

// NopPublisher discards events. It is used when no broker is configured.
type NopPublisher struct{}

// ProductsImported implements EventPublisher.
func (NopPublisher) ProductsImported(context.Context, string, []Product) error { return nil }

// FailedRow describes one rejected CSV data row.
type FailedRow struct {
	RowNumber int               `json:"row_number"`
	Data      map[string]string `json:"data"`
	Error     string            `json:"error"`
}

// IngestionResult is the outcome of one upload. Stored plus len(Failed)
// always equals the number of data rows in the file.
type IngestionResult struct {
	UploadID string      `json:"-"`
	Stored   int         `json:"stored"`
	Failed   []FailedRow `json:"failed"`
}

// TotalRows returns the number of data rows the upload contained.
func (r *IngestionResult) TotalRows() int {
	return r.Stored + len(r.Failed)
}
