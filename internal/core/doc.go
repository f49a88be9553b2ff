// Package core holds the inventory business logic. It depends only on the
// [Store] and [EventPublisher] interfaces and knows nothing about HTTP, SQL
// or Kafka, so web handlers and tests drive it the same way.
//
// # Ingestion
//
// [Service.Ingest] turns one CSV upload into stored products:
//
//  1. The reader is wrapped to drop a UTF-8 BOM and reject invalid UTF-8
//  2. The first record is the header; columns are matched case-insensitively
//     in any order, and color and size may be absent
//  3. Each data row is validated by [RecordValidator] and checked for a SKU
//     that already exists in the store or earlier in the same file
//  4. Accepted rows are written with a single [Store.InsertBatch] call, so
//     either all of them are stored or none are
//
// Row problems never fail the upload. They are returned in
// [IngestionResult.Failed] with the 1-based file row number (the header is
// row 1), the cells as sent and a message. Stored plus failed always equals
// the number of data rows.
//
// At most Config.Upload.MaxConcurrent ingestions run at once; callers beyond
// that wait up to Config.Upload.MaxWaitTime and then get [ErrTooManyUploads].
//
// # Queries
//
// [Service.ListProducts] and [Service.SearchProducts] return products ordered
// by SKU. [Service.ParsePage] and [ParsePrice] turn raw query values into a
// [Page] and price bounds.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Each category has a code for support reference:
//
//   - DB001-DB007: Database errors (duplicates, connections, timeouts)
//   - VAL002, VAL007: Query parameter errors
//   - FILE001-FILE004: File errors (size, CSV syntax, encoding, missing part)
//   - UPL001-UPL005: Upload lifecycle (busy, cancelled, timed out)
package core
