package core

import "strings"

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching. When a name repeats,
// the rightmost column wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(CleanCell(h))] = i
	}
	return idx
}

// Cell returns the cleaned value of column name in record. ok is false when
// the column is not in the header or the record is too short to reach it.
func (h HeaderIndex) Cell(record []string, name string) (value string, ok bool) {
	pos, found := h[name]
	if !found || pos >= len(record) {
		return "", false
	}
	return CleanCell(record[pos]), true
}

// CleanCell removes common spreadsheet artifacts from a cell value:
//   - surrounding whitespace
//   - the Excel text-formula wrapper ="..." used to keep leading zeros in SKUs
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// BuildRawRow addresses record by column name using the file's header.
func BuildRawRow(header []string, idx HeaderIndex, record []string) RawRow {
	cell := func(name string) string {
		v, _ := idx.Cell(record, name)
		return v
	}
	optional := func(name string) *string {
		if v, ok := idx.Cell(record, name); ok && v != "" {
			return &v
		}
		return nil
	}

	cells := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(record) {
			cells[strings.TrimSpace(name)] = record[i]
		}
	}

	return RawRow{
		SKU:      cell("sku"),
		Name:     cell("name"),
		Brand:    cell("brand"),
		Color:    optional("color"),
		Size:     optional("size"),
		MRP:      cell("mrp"),
		Price:    cell("price"),
		Quantity: cell("quantity"),
		Cells:    cells,
	}
}
