package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/inventory/internal/core"
)

// productResponse fixes the JSON field order. Money is written as a JSON
// number with the stored precision.
type productResponse struct {
	SKU      string      `json:"sku"`
	Name     string      `json:"name"`
	Brand    string      `json:"brand"`
	Color    *string     `json:"color"`
	Size     *string     `json:"size"`
	MRP      json.Number `json:"mrp"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func toResponse(products []core.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = productResponse{
			SKU:      p.SKU,
			Name:     p.Name,
			Brand:    p.Brand,
			Color:    p.Color,
			Size:     p.Size,
			MRP:      money(p.MRP),
			Price:    money(p.Price),
			Quantity: p.Quantity,
		}
	}
	return out
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// handleListProducts serves GET /products?page=&limit=.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := s.service.ParsePage(q.Get("page"), q.Get("limit"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	products, err := s.service.ListProducts(r.Context(), page)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to list products", err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(products))
}

// handleSearchProducts serves GET /products/search. Blank parameters are
// ignored; page and limit are optional.
func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := s.parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	products, err := s.service.SearchProducts(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to search products", err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(products))
}

func (s *Server) parseFilter(q url.Values) (core.ProductFilter, error) {
	var f core.ProductFilter

	f.Brand = param(q, "brand")
	f.Color = param(q, "color")

	for _, bound := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"minPrice", &f.MinPrice},
		{"maxPrice", &f.MaxPrice},
	} {
		raw := param(q, bound.name)
		if raw == nil {
			continue
		}
		d, err := core.ParsePrice(bound.name, *raw)
		if err != nil {
			return core.ProductFilter{}, err
		}
		*bound.dst = &d
	}

	if q.Has("page") || q.Has("limit") {
		page, err := s.service.ParsePage(q.Get("page"), q.Get("limit"))
		if err != nil {
			return core.ProductFilter{}, err
		}
		f.Page = &page
	}
	return f, nil
}

// param returns the trimmed value of name, or nil when it is absent or blank.
func param(q url.Values, name string) *string {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil
	}
	return &v
}
