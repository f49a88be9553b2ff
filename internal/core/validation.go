package core

// validation.go turns one raw CSV row into a Product or a rejection.
//
// Checks run in a fixed order:
//  1. Required columns present and non-blank (validator/v10 "required" tags)
//  2. Text fields are storable (no NUL bytes)
//  3. price, mrp and quantity parse as numbers
//  4. Money fits the column: at most MoneyScale decimal places and an
//     absolute value below 10^MoneyIntegerDigits
//  5. Business rules: price <= mrp, quantity >= 0
//
// Steps 1 to 4 stop the row on failure since later checks need their values.
// Every business rule is evaluated and all violations are reported.

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Money columns are numeric(12,2).
const (
	MoneyScale         = 2
	MoneyIntegerDigits = 10
)

var moneyLimit = decimal.New(1, MoneyIntegerDigits)

// RejectReason classifies why a row was not stored.
type RejectReason string

const (
	ReasonMissingField     RejectReason = "missing_field"
	ReasonTypeError        RejectReason = "type_error"
	ReasonInvalidText      RejectReason = "invalid_text"
	ReasonOutOfRange       RejectReason = "out_of_range"
	ReasonPriceExceedsMRP  RejectReason = "price_exceeds_mrp"
	ReasonNegativeQuantity RejectReason = "negative_quantity"
	ReasonDuplicateSKU     RejectReason = "duplicate_sku"
)

// Violation is a single failed check.
type Violation struct {
	Reason  RejectReason
	Message string
}

// RowError holds every violation found for a row, in check order.
type RowError struct {
	Violations []Violation
}

func (e *RowError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether the row failed with the given reason.
func (e *RowError) Has(reason RejectReason) bool {
	for _, v := range e.Violations {
		if v.Reason == reason {
			return true
		}
	}
	return false
}

func reject(reason RejectReason, msg string) *RowError {
	return &RowError{Violations: []Violation{{Reason: reason, Message: msg}}}
}

// RawRow is one CSV data row addressed by column name. String fields hold
// cleaned cell text, empty when the column is missing or blank.
type RawRow struct {
	SKU      string  `csv:"sku" validate:"required"`
	Name     string  `csv:"name" validate:"required"`
	Brand    string  `csv:"brand" validate:"required"`
	Color    *string `csv:"color"`
	Size     *string `csv:"size"`
	MRP      string  `csv:"mrp" validate:"required"`
	Price    string  `csv:"price" validate:"required"`
	Quantity string  `csv:"quantity" validate:"required"`

	// Cells is the row as it appeared in the file, keyed by header text.
	Cells map[string]string `csv:"-"`
}

// RecordValidator validates raw rows. It is safe for concurrent use.
type RecordValidator struct {
	validate *validator.Validate
}

// NewRecordValidator builds a validator that reports fields by CSV column name.
func NewRecordValidator() *RecordValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("csv"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RecordValidator{validate: v}
}

// Struct exposes the underlying validator for other tagged inputs.
func (v *RecordValidator) Struct(s any) error {
	return v.validate.Struct(s)
}

// Validate checks row and returns the normalized product, or a RowError
// describing why the row must be rejected. It has no side effects.
func (v *RecordValidator) Validate(row RawRow) (Product, *RowError) {
	if err := v.validate.Struct(row); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Product{}, reject(ReasonMissingField, err.Error())
		}
		missing := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			missing = append(missing, fe.Field())
		}
		return Product{}, reject(ReasonMissingField,
			fmt.Sprintf("Missing one or more required fields (%s)", strings.Join(missing, ", ")))
	}

	if bad := textWithNUL(row); len(bad) > 0 {
		return Product{}, reject(ReasonInvalidText,
			fmt.Sprintf("Invalid characters in %s. Text cannot contain NUL bytes.", strings.Join(bad, ", ")))
	}

	var unparsable []string
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		unparsable = append(unparsable, "price")
	}
	mrp, err := decimal.NewFromString(row.MRP)
	if err != nil {
		unparsable = append(unparsable, "mrp")
	}
	quantity, err := strconv.Atoi(row.Quantity)
	if err != nil {
		unparsable = append(unparsable, "quantity")
	}
	if len(unparsable) > 0 {
		return Product{}, reject(ReasonTypeError,
			fmt.Sprintf("Invalid data type for %s. They must be numbers.", strings.Join(unparsable, ", ")))
	}

	rangeErr := &RowError{}
	for _, m := range []struct {
		column string
		value  decimal.Decimal
	}{{"price", price}, {"mrp", mrp}} {
		if msg := checkMoney(m.column, m.value); msg != "" {
			rangeErr.Violations = append(rangeErr.Violations, Violation{Reason: ReasonOutOfRange, Message: msg})
		}
	}
	if len(rangeErr.Violations) > 0 {
		return Product{}, rangeErr
	}

	rowErr := &RowError{}
	if price.GreaterThan(mrp) {
		rowErr.Violations = append(rowErr.Violations, Violation{
			Reason:  ReasonPriceExceedsMRP,
			Message: fmt.Sprintf("Validation failed: Price (%s) cannot be greater than MRP (%s)", price, mrp),
		})
	}
	if quantity < 0 {
		rowErr.Violations = append(rowErr.Violations, Violation{
			Reason:  ReasonNegativeQuantity,
			Message: fmt.Sprintf("Validation failed: Quantity (%d) cannot be negative", quantity),
		})
	}
	if len(rowErr.Violations) > 0 {
		return Product{}, rowErr
	}

	return Product{
		SKU:      row.SKU,
		Name:     row.Name,
		Brand:    row.Brand,
		Color:    row.Color,
		Size:     row.Size,
		MRP:      mrp,
		Price:    price,
		Quantity: quantity,
	}, nil
}

func textWithNUL(row RawRow) []string {
	var bad []string
	check := func(column, value string) {
		if strings.IndexByte(value, 0) >= 0 {
			bad = append(bad, column)
		}
	}
	check("sku", row.SKU)
	check("name", row.Name)
	check("brand", row.Brand)
	if row.Color != nil {
		check("color", *row.Color)
	}
	if row.Size != nil {
		check("size", *row.Size)
	}
	return bad
}

// checkMoney returns a rejection message when d cannot be stored exactly.
func checkMoney(column string, d decimal.Decimal) string {
	if !d.Equal(d.Truncate(MoneyScale)) {
		return fmt.Sprintf("Validation failed: %s (%s) has more than %d decimal places", column, d, MoneyScale)
	}
	if d.Abs().GreaterThanOrEqual(moneyLimit) {
		return fmt.Sprintf("Validation failed: %s (%s) must be less than %s", column, d, moneyLimit)
	}
	return ""
}
