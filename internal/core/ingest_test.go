package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/core/coretest"
)

const header = "sku,name,brand,color,size,mrp,price,quantity\n"

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxConcurrent: 2,
			MaxWaitTime:   50 * time.Millisecond,
			Timeout:       time.Minute,
		},
		Listing: config.ListingConfig{DefaultLimit: 10, MaxLimit: 100},
	}
}

func newService(t *testing.T, seed ...core.Product) (*core.Service, *coretest.Store, *coretest.Publisher) {
	t.Helper()
	store := coretest.NewStore(seed...)
	pub := coretest.NewPublisher()
	return core.NewService(store, pub, testConfig()), store, pub
}

func product(sku, brand string, price int64) core.Product {
	return core.Product{
		SKU:      sku,
		Name:     "Item " + sku,
		Brand:    brand,
		MRP:      decimal.NewFromInt(price * 2),
		Price:    decimal.NewFromInt(price),
		Quantity: 1,
	}
}

func TestIngest_PartialSuccess(t *testing.T) {
	svc, store, pub := newService(t)

	csv := header +
		"TEST-001,Test T-Shirt,TestBrand,Red,M,1000,500,10\n" +
		"TEST-002,Invalid Price,TestBrand,Blue,L,800,900,5\n"

	result, err := svc.Ingest(context.Background(), "products.csv", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stored)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 3, result.Failed[0].RowNumber)
	assert.Contains(t, result.Failed[0].Error, "Price (900) cannot be greater than MRP (800)")
	assert.Equal(t, "TEST-002", result.Failed[0].Data["sku"])
	assert.NotEmpty(t, result.UploadID)

	assert.Equal(t, 1, store.Len())
	stored, err := store.FindBySKU(context.Background(), "TEST-001")
	require.NoError(t, err)
	assert.Equal(t, "Red", *stored.Color)
	assert.Equal(t, 1, pub.Count())
}

func TestIngest_DuplicateAgainstStore(t *testing.T) {
	svc, store, _ := newService(t, product("A-1", "Acme", 10))

	csv := header +
		"A-1,Shirt,Acme,,,20,10,1\n" +
		"A-2,Shirt,Acme,,,20,10,1\n"

	result, err := svc.Ingest(context.Background(), "p.csv", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stored)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, core.FailedRow{
		RowNumber: 2,
		Data: map[string]string{
			"sku": "A-1", "name": "Shirt", "brand": "Acme", "color": "", "size": "",
			"mrp": "20", "price": "10", "quantity": "1",
		},
		Error: "Duplicate SKU",
	}, result.Failed[0])
	assert.Equal(t, 2, store.Len())
}

func TestIngest_DuplicateWithinUpload(t *testing.T) {
	svc, store, _ := newService(t)

	csv := header +
		"B-1,First,Acme,,,20,10,1\n" +
		"B-2,Other,Acme,,,20,10,1\n" +
		"B-1,Second,Acme,,,20,10,1\n"

	result, err := svc.Ingest(context.Background(), "p.csv", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stored)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 4, result.Failed[0].RowNumber)
	assert.Equal(t, "Duplicate SKU in upload (first seen on row 2)", result.Failed[0].Error)

	stored, err := store.FindBySKU(context.Background(), "B-1")
	require.NoError(t, err)
	assert.Equal(t, "First", stored.Name)
}

func TestIngest_RowAccounting(t *testing.T) {
	svc, _, _ := newService(t, product("DUP", "Acme", 5))

	csv := header +
		"OK-1,Shirt,Acme,,,20,10,1\n" +
		",Missing Sku,Acme,,,20,10,1\n" +
		"BAD-NUM,Shirt,Acme,,,twenty,10,1\n" +
		"NEG,Shirt,Acme,,,20,10,-1\n" +
		"DUP,Shirt,Acme,,,20,10,1\n" +
		"   ,  ,  ,,,  ,  ,  \n" +
		"OK-2,Shirt,Acme,,,20,20,0\n"

	result, err := svc.Ingest(context.Background(), "p.csv", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stored)
	assert.Len(t, result.Failed, 5)
	assert.Equal(t, 7, result.TotalRows())

	rows := make([]int, len(result.Failed))
	for i, f := range result.Failed {
		rows[i] = f.RowNumber
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7}, rows, "failures keep file order")
}

func TestIngest_UnstorableRowsAreRejectedNotFatal(t *testing.T) {
	svc, store, _ := newService(t)

	csv := header +
		"A-1,Shirt,Acme,,,20,10,1\n" +
		"A-2,Shirt,Acme,,,1e20,10,1\n" +
		"A-3,Shirt,Acme,,,10.009,5,1\n" +
		"A-4,Shirt,Acme,,,20,10,1\n"

	result, err := svc.Ingest(context.Background(), "products.csv", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stored)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, 3, result.Failed[0].RowNumber)
	assert.Equal(t, 4, result.Failed[1].RowNumber)
	assert.Equal(t, 4, result.TotalRows())
	assert.Equal(t, 2, store.Len())
}

func TestIngest_HeaderVariants(t *testing.T) {
	svc, store, _ := newService(t)

	csv := "\xEF\xBB\xBFQuantity, Price ,MRP,Brand,Name,SKU\n" +
		"4,9.99,12.50,Acme,Mug,\"=\"\"00042\"\"\"\n"

	result, err := svc.Ingest(context.Background(), "bom.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Empty(t, result.Failed)
	assert.Equal(t, 1, result.Stored)

	p, err := store.FindBySKU(context.Background(), "00042")
	require.NoError(t, err)
	assert.Nil(t, p.Color)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 4, p.Quantity)
}

func TestIngest_EmptyFile(t *testing.T) {
	svc, store, _ := newService(t)

	for _, body := range []string{"", header} {
		result, err := svc.Ingest(context.Background(), "empty.csv", strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, 0, result.Stored)
		assert.NotNil(t, result.Failed)
		assert.Empty(t, result.Failed)
	}
	assert.Equal(t, 0, store.InsertCalls, "nothing to write means no write")
}

func TestIngest_InvalidEncoding(t *testing.T) {
	svc, store, _ := newService(t)

	_, err := svc.Ingest(context.Background(), "latin1.csv", strings.NewReader(header+"C-1,Caf\xe9,Acme,,,2,1,1\n"))
	assert.ErrorIs(t, err, core.ErrInvalidEncoding)
	assert.Equal(t, 0, store.Len())
}

func TestIngest_MalformedCSV(t *testing.T) {
	svc, store, _ := newService(t)

	csv := header + "Q-1,\"Unclosed,Acme,,,20,10,1\nQ-2,Shirt,Acme,,,20,10,1\n"
	_, err := svc.Ingest(context.Background(), "bad.csv", strings.NewReader(csv))
	assert.ErrorIs(t, err, core.ErrInvalidCSV)
	assert.Equal(t, 0, store.InsertCalls)
}

func TestIngest_PersistenceFailureStoresNothing(t *testing.T) {
	svc, store, pub := newService(t)
	store.InsertErr = core.ErrDuplicateSKU

	csv := header + "R-1,Shirt,Acme,,,20,10,1\n"
	result, err := svc.Ingest(context.Background(), "p.csv", strings.NewReader(csv))

	assert.Nil(t, result)
	var perr *core.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, core.ErrDuplicateSKU)
	assert.Equal(t, "DB001", core.MapError(err).Code)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, pub.Count())
}

func TestIngest_LookupFailure(t *testing.T) {
	svc, store, _ := newService(t)
	store.FindErr = errors.New("dial tcp: connection refused")

	_, err := svc.Ingest(context.Background(), "p.csv", strings.NewReader(header+"R-1,Shirt,Acme,,,20,10,1\n"))

	var perr *core.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "lookup sku", perr.Op)
	assert.Equal(t, 0, store.InsertCalls)
}

func TestIngest_PublishFailureDoesNotFailUpload(t *testing.T) {
	svc, store, pub := newService(t)
	pub.Err = errors.New("kafka unavailable")

	result, err := svc.Ingest(context.Background(), "p.csv", strings.NewReader(header+"P-1,Shirt,Acme,,,20,10,1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, 1, store.Len())
}

func TestIngest_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxConcurrent = 1
	block := make(chan struct{})
	store := &blockingStore{Store: coretest.NewStore(), release: block, entered: make(chan struct{}, 1)}
	svc := core.NewService(store, nil, cfg)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ingest(context.Background(), "slow.csv", strings.NewReader(header+"S-1,Shirt,Acme,,,20,10,1\n"))
		done <- err
	}()
	<-store.entered

	_, err := svc.Ingest(context.Background(), "second.csv", strings.NewReader(header))
	assert.ErrorIs(t, err, core.ErrTooManyUploads)

	close(block)
	require.NoError(t, <-done)
}

// blockingStore parks the first FindBySKU call until release is closed.
type blockingStore struct {
	*coretest.Store
	release chan struct{}
	entered chan struct{}
}

func (b *blockingStore) FindBySKU(ctx context.Context, sku string) (*core.Product, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.Store.FindBySKU(ctx, sku)
}
