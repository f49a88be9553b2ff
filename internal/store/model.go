package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/inventory/internal/core"
)

// productRow is the products table. SKU is the primary key, which is what
// makes a second insert of the same SKU fail.
type productRow struct {
	SKU       string          `gorm:"column:sku;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Brand     string          `gorm:"column:brand;not null;index"`
	Color     *string         `gorm:"column:color;index"`
	Size      *string         `gorm:"column:size"`
	MRP       decimal.Decimal `gorm:"column:mrp;type:numeric(12,2);not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;index"`
	Quantity  int             `gorm:"column:quantity;not null;check:chk_products_quantity,quantity >= 0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (productRow) TableName() string { return "products" }

func toRow(p core.Product) productRow {
	return productRow{
		SKU:      p.SKU,
		Name:     p.Name,
		Brand:    p.Brand,
		Color:    p.Color,
		Size:     p.Size,
		MRP:      p.MRP,
		Price:    p.Price,
		Quantity: p.Quantity,
	}
}

func (r productRow) toProduct() core.Product {
	return core.Product{
		SKU:      r.SKU,
		Name:     r.Name,
		Brand:    r.Brand,
		Color:    r.Color,
		Size:     r.Size,
		MRP:      r.MRP,
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}

func toProducts(rows []productRow) []core.Product {
	out := make([]core.Product, len(rows))
	for i, r := range rows {
		out[i] = r.toProduct()
	}
	return out
}
