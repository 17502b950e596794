package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shelf-inventory/internal/application/analytics"
	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/application/usecase"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/cache"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/memory"
)

type fixture struct {
	store    *memory.Store
	backend  *cache.Memory
	products *usecase.ProductUseCase
	engine   *inventory.StockEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	backend := cache.NewMemory(0)
	aggregates := analytics.NewAggregateCache(backend, analytics.DefaultStatsPool, analytics.DefaultOptionsPool, zerolog.Nop(), nil)
	return &fixture{
		store:    store,
		backend:  backend,
		products: usecase.NewProductUseCase(store.Products(), store, aggregates, zerolog.Nop()),
		engine:   inventory.NewStockEngine(store, store.Products(), store.Ledger(), inventory.EngineConfig{Stats: aggregates}),
	}
}

func widget(spec string) dto.CreateProductRequest {
	return dto.CreateProductRequest{Name: "Widget", Spec: spec, Unit: "pcs", InitialStock: 10, Price: decimal.NewFromInt(3)}
}

// ─── Create ──────────────────────────────────────────────────────────────────

func TestCreate_SetsRunningBalanceFromInitialStock(t *testing.T) {
	f := newFixture(t)

	p, err := f.products.Create(context.Background(), widget("Red"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, int64(10), p.InitialStock)
	assert.Equal(t, int64(10), p.RunningBalance)
}

func TestCreate_DuplicateIgnoresCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.products.Create(ctx, widget("Red"))
	require.NoError(t, err)

	dup := widget("red")
	dup.Name = "WIDGET"
	_, err = f.products.Create(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.products.Create(ctx, widget("Blue"))
	assert.NoError(t, err)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	noName := widget("Red")
	noName.Name = "  "
	_, err := f.products.Create(ctx, noName)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	negative := widget("Red")
	negative.InitialStock = -1
	_, err = f.products.Create(ctx, negative)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cheap := widget("Red")
	cheap.Price = decimal.NewFromInt(-1)
	_, err = f.products.Create(ctx, cheap)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── Update ──────────────────────────────────────────────────────────────────

func TestUpdate_RenameOntoExistingKeyIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.products.Create(ctx, widget("Red"))
	require.NoError(t, err)
	blue, err := f.products.Create(ctx, widget("Blue"))
	require.NoError(t, err)

	spec := "RED"
	_, err = f.products.Update(ctx, blue.ID, dto.UpdateProductRequest{Spec: &spec})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdate_KeepsOwnKeyAndStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, widget("Red"))
	require.NoError(t, err)

	price := decimal.NewFromInt(7)
	out, err := f.products.Update(ctx, p.ID, dto.UpdateProductRequest{Price: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(out.Price))
	assert.Equal(t, int64(10), out.InitialStock)
	assert.Equal(t, int64(10), out.RunningBalance)
}

func TestUpdate_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	name := "x"
	_, err := f.products.Update(context.Background(), "missing", dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── List ────────────────────────────────────────────────────────────────────

func TestList_SortsAndRejectsUnknownKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, spec := range []string{"B", "A", "C"} {
		req := widget(spec)
		req.Name = "Item " + spec
		_, err := f.products.Create(ctx, req)
		require.NoError(t, err)
	}

	out, err := f.products.List(ctx, usecase.ListProductsInput{Sort: "name", Order: "asc", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Page.Total)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Item A", out.Items[0].Name)
	assert.Equal(t, "Item B", out.Items[1].Name)

	_, err = f.products.List(ctx, usecase.ListProductsInput{Sort: "name; DROP TABLE products"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── Delete ──────────────────────────────────────────────────────────────────

func TestDelete_RemovesInboundHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, widget("Red"))
	require.NoError(t, err)
	_, err = f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p.ID, Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, p.ID))

	_, err = f.products.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	n, err := f.store.Ledger().CountByProduct(ctx, p.ID, entity.DirectionInbound)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDelete_BlockedByOutboundEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, widget("Red"))
	require.NoError(t, err)
	_, err = f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p.ID, Quantity: 1, Recipient: "Ann"})
	require.NoError(t, err)

	err = f.products.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrProductInUse)

	got, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.RunningBalance)
}

// ─── Options ─────────────────────────────────────────────────────────────────

func TestOptions_CachedUntilCatalogueChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.products.Create(ctx, widget("Red"))
	require.NoError(t, err)

	opts, err := f.products.Options(ctx)
	require.NoError(t, err)
	require.Len(t, opts, 1)

	_, err = f.products.Create(ctx, widget("Blue"))
	require.NoError(t, err)

	opts, err = f.products.Options(ctx)
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestOptions_ServedFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, widget("Red"))
	require.NoError(t, err)
	_, err = f.products.Options(ctx)
	require.NoError(t, err)

	// Bypass the use case so nothing invalidates the options pool.
	require.NoError(t, f.store.Run(ctx, func(products repository.ProductRepository, _ repository.LedgerRepository) error {
		return products.Create(ctx, &entity.Product{ID: "other", Name: "Gadget", Unit: "pcs", CreatedAt: time.Now()})
	}))

	opts, err := f.products.Options(ctx)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, p.ID, opts[0].ID)
}

func TestOptions_WithoutCacheReadsStore(t *testing.T) {
	store := memory.New()
	products := usecase.NewProductUseCase(store.Products(), store, nil, zerolog.Nop())
	ctx := context.Background()

	created, err := products.Create(ctx, widget("Red"))
	require.NoError(t, err)
	opts, err := products.Options(ctx)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, created.ID, opts[0].ID)

	_, err = products.Create(ctx, widget("Blue"))
	require.NoError(t, err)
	opts, err = products.Options(ctx)
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}
