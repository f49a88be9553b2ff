package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/metrics"
)

const uniqueViolation = "23505"

// DefaultBatchSize is the number of rows per INSERT statement when the
// caller does not set one.
const DefaultBatchSize = 500

// ProductStore implements core.Store.
type ProductStore struct {
	db        *gorm.DB
	batchSize int
}

var _ core.Store = (*ProductStore)(nil)

// NewProductStore returns a store over db that inserts batchSize rows per statement.
func NewProductStore(db *gorm.DB, batchSize int) *ProductStore {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ProductStore{db: db, batchSize: batchSize}
}

// FindBySKU returns core.ErrProductNotFound when no row has the SKU.
func (s *ProductStore) FindBySKU(ctx context.Context, sku string) (*core.Product, error) {
	t := metrics.NewDBTimer("find_by_sku")

	var row productRow
	err := s.db.WithContext(ctx).Where("sku = ?", sku).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t.Done(nil)
		return nil, core.ErrProductNotFound
	}
	if err := t.Done(err); err != nil {
		return nil, fmt.Errorf("find product %q: %w", sku, err)
	}

	p := row.toProduct()
	return &p, nil
}

// InsertBatch writes all products in one transaction.
func (s *ProductStore) InsertBatch(ctx context.Context, products []core.Product) error {
	if len(products) == 0 {
		return nil
	}
	t := metrics.NewDBTimer("insert_batch")

	rows := make([]productRow, len(products))
	for i, p := range products {
		rows[i] = toRow(p)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, s.batchSize).Error
	})
	if err := t.Done(err); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", core.ErrDuplicateSKU, err)
		}
		return fmt.Errorf("insert %d products: %w", len(products), err)
	}
	return nil
}

// List returns one page ordered by SKU.
func (s *ProductStore) List(ctx context.Context, page core.Page) ([]core.Product, error) {
	t := metrics.NewDBTimer("list")

	var rows []productRow
	err := s.db.WithContext(ctx).
		Order("sku ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err := t.Done(err); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return toProducts(rows), nil
}

// Search applies every set filter field. Price bounds are inclusive.
func (s *ProductStore) Search(ctx context.Context, f core.ProductFilter) ([]core.Product, error) {
	t := metrics.NewDBTimer("search")

	q := s.db.WithContext(ctx).Model(&productRow{})
	if f.Brand != nil {
		q = q.Where("brand = ?", *f.Brand)
	}
	if f.Color != nil {
		q = q.Where("color = ?", *f.Color)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	q = q.Order("sku ASC")
	if f.Page != nil {
		q = q.Limit(f.Page.Limit).Offset(f.Page.Offset())
	}

	var rows []productRow
	if err := t.Done(q.Find(&rows).Error); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return toProducts(rows), nil
}

// Count returns the number of stored products.
func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	t := metrics.NewDBTimer("count")

	var n int64
	err := s.db.WithContext(ctx).Model(&productRow{}).Count(&n).Error
	if err := t.Done(err); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
