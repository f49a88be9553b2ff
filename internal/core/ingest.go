package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/inventory/internal/logging"
)

// ContextCheckInterval is how many rows are processed between cancellation checks.
const ContextCheckInterval = 100

// ErrInvalidCSV is returned when the upload cannot be decoded as CSV.
var ErrInvalidCSV = errors.New("invalid csv")

// PersistenceError reports a store failure during ingestion. Nothing from
// the upload has been committed when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Ingest decodes a CSV upload, validates every data row, rejects SKUs that
// already exist in the store or earlier in the same file, and writes all
// accepted products in a single all-or-nothing batch.
//
// Row-level problems never fail the call; they are listed in the result.
// Errors are returned only when the upload cannot be decoded
// (ErrInvalidCSV, ErrInvalidEncoding), when no ingestion slot is available
// (ErrTooManyUploads), or when the store fails (*PersistenceError).
func (s *Service) Ingest(ctx context.Context, fileName string, r io.Reader) (*IngestionResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	uploadID := uuid.NewString()
	log := logging.WithFields(ctx, "upload_id", uploadID, "file", fileName)
	start := time.Now()

	body, counter := wrapUpload(r)
	records, err := parseCSV(body)
	if err != nil {
		log.Warn("upload rejected", "error", err, "bytes", counter.BytesRead())
		return nil, err
	}

	result := &IngestionResult{UploadID: uploadID, Failed: []FailedRow{}}
	if len(records) == 0 {
		log.Info("empty upload")
		return result, nil
	}

	header := records[0]
	idx := MakeHeaderIndex(header)
	dataRows := records[1:]

	staged := make([]Product, 0, len(dataRows))
	firstSeen := make(map[string]int, len(dataRows))

	for i, record := range dataRows {
		// Header is row 1.
		rowNum := i + 2

		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			return nil, fmt.Errorf("upload cancelled: %w", ctx.Err())
		}

		raw := BuildRawRow(header, idx, record)
		product, rowErr := s.validator.Validate(raw)
		if rowErr != nil {
			result.reject(rowNum, raw, rowErr)
			continue
		}

		if first, ok := firstSeen[product.SKU]; ok {
			result.reject(rowNum, raw, reject(ReasonDuplicateSKU,
				fmt.Sprintf("Duplicate SKU in upload (first seen on row %d)", first)))
			continue
		}

		_, err := s.store.FindBySKU(ctx, product.SKU)
		switch {
		case err == nil:
			result.reject(rowNum, raw, reject(ReasonDuplicateSKU, "Duplicate SKU"))
			continue
		case !errors.Is(err, ErrProductNotFound):
			log.Error("sku lookup failed", "sku", product.SKU, "row", rowNum, "error", err)
			return nil, &PersistenceError{Op: "lookup sku", Err: err}
		}

		firstSeen[product.SKU] = rowNum
		staged = append(staged, product)
	}

	if len(staged) > 0 {
		if err := s.store.InsertBatch(ctx, staged); err != nil {
			log.Error("bulk insert failed", "staged", len(staged), "error", err)
			return nil, &PersistenceError{Op: "insert products", Err: err}
		}

		if err := s.events.ProductsImported(ctx, uploadID, staged); err != nil {
			log.Warn("publishing product events failed", "products", len(staged), "error", err)
		}
	}
	result.Stored = len(staged)

	log.Info("ingestion complete",
		"rows", result.TotalRows(),
		"stored", result.Stored,
		"failed", len(result.Failed),
		"bytes", counter.BytesRead(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

func (r *IngestionResult) reject(rowNum int, raw RawRow, rowErr *RowError) {
	r.Failed = append(r.Failed, FailedRow{
		RowNumber: rowNum,
		Data:      raw.Cells,
		Error:     rowErr.Error(),
	})
}

// parseCSV reads every record. Rows may have any number of fields;
// short rows simply leave trailing columns empty. Quoting is strict, so a
// stray quote is an ErrInvalidCSV rather than a silently merged field.
func parseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err == nil {
		return records, nil
	}
	if errors.Is(err, ErrInvalidEncoding) {
		return nil, err
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	return nil, fmt.Errorf("read upload: %w", err)
}
