package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPage is returned for a page or limit that is not a positive integer.
	ErrInvalidPage = errors.New("invalid pagination: page and limit must be positive integers")

	// ErrInvalidNumber is returned for a price bound that is not a decimal number.
	ErrInvalidNumber = errors.New("invalid number")
)

// pageParams is validated with the same validator used for CSV rows.
// The page ceiling keeps (page-1)*limit inside int range.
type pageParams struct {
	Number int `csv:"page" validate:"min=1,max=10000000"`
	Limit  int `csv:"limit" validate:"min=1"`
}

// ParsePage builds a listing window from raw query values. Empty values take
// the defaults (page 1, the configured default limit). A limit above the
// configured maximum is lowered to the maximum.
func (s *Service) ParsePage(rawPage, rawLimit string) (Page, error) {
	params := pageParams{Number: 1, Limit: s.defaultLimit}

	if rawPage = strings.TrimSpace(rawPage); rawPage != "" {
		n, err := strconv.Atoi(rawPage)
		if err != nil {
			return Page{}, fmt.Errorf("%w: page %q", ErrInvalidPage, rawPage)
		}
		params.Number = n
	}
	if rawLimit = strings.TrimSpace(rawLimit); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil {
			return Page{}, fmt.Errorf("%w: limit %q", ErrInvalidPage, rawLimit)
		}
		params.Limit = n
	}

	if err := s.validator.Struct(params); err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}

	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return Page{Number: params.Number, Limit: params.Limit}, nil
}

// ParsePrice parses a price bound named param.
func ParsePrice(param, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w for %s: %q", ErrInvalidNumber, param, raw)
	}
	return d, nil
}

// ListProducts returns one page of the catalog ordered by SKU.
func (s *Service) ListProducts(ctx context.Context, page Page) ([]Product, error) {
	products, err := s.store.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// SearchProducts returns every product matching filter, ordered by SKU.
func (s *Service) SearchProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	products, err := s.store.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}
