package inventory_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/memory"
	"github.com/jhoicas/shelf-inventory/pkg/metrics"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time { return today.AddDate(0, 0, offset) }

type statsSpy struct {
	mu    sync.Mutex
	calls int
}

func (s *statsSpy) InvalidateStats(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil
}

func (s *statsSpy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type eventSpy struct {
	mu     sync.Mutex
	events []entity.MovementEvent
}

func (s *eventSpy) Publish(_ context.Context, e entity.MovementEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

type engineFixture struct {
	store  *memory.Store
	engine *inventory.StockEngine
	stats  *statsSpy
	events *eventSpy
	reg    *prometheus.Registry
}

func newEngine(t *testing.T, retries int) *engineFixture {
	t.Helper()
	store := memory.New()
	f := &engineFixture{
		store:  store,
		stats:  &statsSpy{},
		events: &eventSpy{},
		reg:    prometheus.NewRegistry(),
	}
	f.engine = inventory.NewStockEngine(store, store.Products(), store.Ledger(), inventory.EngineConfig{
		ConflictRetries: retries,
		Stats:           f.stats,
		Events:          f.events,
		Log:             zerolog.Nop(),
		Metrics:         metrics.NewEngineMetrics(f.reg),
		Now:             func() time.Time { return today.Add(9 * time.Hour) },
	})
	return f
}

func (f *engineFixture) product(t *testing.T, name string, initial int64) string {
	t.Helper()
	p := &entity.Product{
		ID:             uuid.NewString(),
		Name:           name,
		Unit:           "pcs",
		InitialStock:   initial,
		RunningBalance: initial,
		Price:          decimal.RequireFromString("5.00"),
		CreatedAt:      day(-30),
		UpdatedAt:      day(-30),
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p.ID
}

func (f *engineFixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.RunningBalance
}

// assertConsistent checks the running balance against the ledger and against stockAt far in
// the future, which sees every entry.
func (f *engineFixture) assertConsistent(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	p, err := f.store.Products().GetByID(ctx, id)
	require.NoError(t, err)
	totals, err := f.store.Ledger().TotalsUntil(ctx, id, day(3650))
	require.NoError(t, err)
	assert.Equal(t, p.InitialStock+totals.Inbound-totals.Outbound, p.RunningBalance, "running balance drifted from the ledger")

	stock, err := f.engine.StockAt(ctx, id, day(3650))
	require.NoError(t, err)
	assert.Equal(t, p.RunningBalance, stock)
}

// ─── Scenario ────────────────────────────────────────────────────────────────

func TestEngine_Scenario(t *testing.T) {
	f := newEngine(t, 3)
	ctx := context.Background()
	p := f.product(t, "P", 10)
	d1, d2 := day(-2), day(-1)

	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 5, Date: d1})
	require.NoError(t, err)
	assert.Equal(t, int64(15), f.balance(t, p))

	_, err = f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 20, Date: d2, Recipient: "A"})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(15), f.balance(t, p))

	out, err := f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 12, Date: d2, Recipient: "A"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.balance(t, p))

	s1, err := f.engine.StockAt(ctx, p, d1)
	require.NoError(t, err)
	s2, err := f.engine.StockAt(ctx, p, d2)
	require.NoError(t, err)
	assert.Equal(t, int64(15), s1)
	assert.Equal(t, int64(3), s2)

	require.NoError(t, f.engine.DeleteEntry(ctx, out.ID, entity.DirectionOutbound))
	assert.Equal(t, int64(15), f.balance(t, p))
	f.assertConsistent(t, p)
}

// ─── Record ──────────────────────────────────────────────────────────────────

func TestRecord_Validation(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: -1, Recipient: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 1, Recipient: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: uuid.NewString(), Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, int64(10), f.balance(t, p))
	assert.Zero(t, f.stats.count(), "rejected calls must not invalidate stats")
}

func TestRecord_DefaultsDateAndTrimsRecipient(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	entry, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, today, entry.Date)
	assert.Equal(t, entity.DirectionInbound, entry.Direction)

	out, err := f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 12, Recipient: " Ana ", Paid: true})
	require.NoError(t, err)
	assert.Equal(t, "Ana", out.RecipientName)
	assert.True(t, out.Paid)
	assert.Zero(t, f.balance(t, p))
	f.assertConsistent(t, p)
}

func TestRecord_InvalidatesStatsAndPublishes(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	entry, err := f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 4, Recipient: "A"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.stats.count())
	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, entity.EventEntryRecorded, ev.Type)
	assert.Equal(t, entry.ID, ev.EntryID)
	assert.Equal(t, map[string]int64{p: 6}, ev.Balances)
}

// ─── Update ──────────────────────────────────────────────────────────────────

func TestUpdate_QuantityOnSameProduct(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	out, err := f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 4, Recipient: "A"})
	require.NoError(t, err)

	qty := int64(10)
	updated, err := f.engine.UpdateEntry(ctx, out.ID, inventory.EntryUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, int64(10), updated.Quantity)
	assert.Zero(t, f.balance(t, p))

	qty = 11
	_, err = f.engine.UpdateEntry(ctx, out.ID, inventory.EntryUpdate{Quantity: &qty})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Zero(t, f.balance(t, p))
	f.assertConsistent(t, p)
}

func TestUpdate_RetargetMovesEffect(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 10)

	out, err := f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: a, Quantity: 6, Recipient: "X"})
	require.NoError(t, err)

	updated, err := f.engine.UpdateEntry(ctx, out.ID, inventory.EntryUpdate{ProductID: &b})
	require.NoError(t, err)
	assert.Equal(t, b, updated.ProductID)
	assert.Equal(t, int64(10), f.balance(t, a))
	assert.Equal(t, int64(4), f.balance(t, b))
	f.assertConsistent(t, a)
	f.assertConsistent(t, b)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, map[string]int64{a: 10, b: 4}, f.events.events[1].Balances)
}

func TestUpdate_RetargetShortfallRollsBackReversal(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 2)

	out, err := f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: a, Quantity: 6, Recipient: "X"})
	require.NoError(t, err)
	invalidations := f.stats.count()

	_, err = f.engine.UpdateEntry(ctx, out.ID, inventory.EntryUpdate{ProductID: &b})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(4), f.balance(t, a), "reversal on the old product must not survive")
	assert.Equal(t, int64(2), f.balance(t, b))
	entry, err := f.engine.GetEntry(ctx, out.ID, entity.DirectionOutbound)
	require.NoError(t, err)
	assert.Equal(t, a, entry.ProductID)
	assert.Equal(t, invalidations, f.stats.count())
}

func TestUpdate_InboundRetargetSkipsStockCheck(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	a := f.product(t, "A", 0)
	b := f.product(t, "B", 0)

	in, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: a, Quantity: 5})
	require.NoError(t, err)
	_, err = f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: a, Quantity: 5, Recipient: "X"})
	require.NoError(t, err)

	_, err = f.engine.UpdateEntry(ctx, in.ID, inventory.EntryUpdate{ProductID: &b})
	require.NoError(t, err)
	assert.Equal(t, int64(-5), f.balance(t, a))
	assert.Equal(t, int64(5), f.balance(t, b))
	f.assertConsistent(t, a)
	f.assertConsistent(t, b)
}

func TestUpdate_RecipientAndPayment(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	out, err := f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 1, Recipient: "A"})
	require.NoError(t, err)
	in, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 1})
	require.NoError(t, err)

	name, paid := "B", true
	updated, err := f.engine.UpdateEntry(ctx, out.ID, inventory.EntryUpdate{Recipient: &name, Paid: &paid})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.RecipientName)
	assert.True(t, updated.Paid)

	_, err = f.engine.UpdateEntry(ctx, in.ID, inventory.EntryUpdate{Recipient: &name})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	empty := " "
	_, err = f.engine.UpdateEntry(ctx, out.ID, inventory.EntryUpdate{Recipient: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdate_WrongDirectionIsNotFound(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	in, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 1})
	require.NoError(t, err)

	qty := int64(2)
	_, err = f.engine.UpdateEntry(ctx, in.ID, inventory.EntryUpdate{Expect: entity.DirectionOutbound, Quantity: &qty})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.engine.DeleteEntry(ctx, in.ID, entity.DirectionOutbound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.UpdateEntry(ctx, uuid.NewString(), inventory.EntryUpdate{Quantity: &qty})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Delete ──────────────────────────────────────────────────────────────────

func TestDelete_ReversesByDirection(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	in, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 7})
	require.NoError(t, err)
	out, err := f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 3, Recipient: "A"})
	require.NoError(t, err)
	require.Equal(t, int64(14), f.balance(t, p))

	require.NoError(t, f.engine.DeleteEntry(ctx, in.ID, ""))
	assert.Equal(t, int64(7), f.balance(t, p))

	require.NoError(t, f.engine.DeleteEntry(ctx, out.ID, ""))
	assert.Equal(t, int64(10), f.balance(t, p))
	f.assertConsistent(t, p)

	_, err = f.engine.GetEntry(ctx, out.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Concurrency and faults ──────────────────────────────────────────────────

func TestMutate_RetriesConflicts(t *testing.T) {
	f := newEngine(t, 3)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	f.store.InjectConflicts(2)
	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(15), f.balance(t, p))
	expected := `
# HELP ledger_conflict_retries_total Mutations retried after a concurrent modification.
# TYPE ledger_conflict_retries_total counter
ledger_conflict_retries_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "ledger_conflict_retries_total"))
	f.assertConsistent(t, p)
}

func TestMutate_ConflictSurfacesAfterRetries(t *testing.T) {
	f := newEngine(t, 2)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	f.store.InjectConflicts(10)
	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 5})
	f.store.InjectConflicts(0)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, int64(10), f.balance(t, p))
	assert.Empty(t, f.events.events)
}

func TestMutate_FailedCommitLeavesNothing(t *testing.T) {
	f := newEngine(t, 3)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	f.store.FailNextCommit(domain.Wrap(domain.ErrStorageUnavailable, "connection reset", errors.New("EOF")))
	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	assert.Equal(t, int64(10), f.balance(t, p))
	n, err := f.store.Ledger().CountByProduct(ctx, p, entity.DirectionInbound)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.stats.count())
}

func TestMutate_CancelledContextLeavesNothing(t *testing.T) {
	f := newEngine(t, 3)
	p := f.product(t, "P", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 5})
	assert.Error(t, err)
	assert.Equal(t, int64(10), f.balance(t, p))
}

func TestMutate_ConcurrentOutboundsNeverOversell(t *testing.T) {
	f := newEngine(t, 3)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 1, Recipient: "A"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Zero(t, f.balance(t, p))
	f.assertConsistent(t, p)
}

// ─── Point-in-time ───────────────────────────────────────────────────────────

func TestStockAt_DeltaBetweenDates(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	for _, in := range []struct {
		qty  int64
		date time.Time
	}{{3, day(-5)}, {4, day(-3)}, {2, day(-1)}} {
		_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: in.qty, Date: in.date})
		require.NoError(t, err)
	}

	d1, err := f.engine.StockAt(ctx, p, day(-4))
	require.NoError(t, err)
	d2, err := f.engine.StockAt(ctx, p, day(-1))
	require.NoError(t, err)
	before, err := f.engine.StockAt(ctx, p, day(-10))
	require.NoError(t, err)

	assert.Equal(t, int64(10), before)
	assert.Equal(t, int64(13), d1)
	assert.LessOrEqual(t, d1, d2)
	assert.Equal(t, int64(6), d2-d1)

	_, err = f.engine.StockAt(ctx, uuid.NewString(), today)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBulkStockAt_MatchesStockAt(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 0)
	c := f.product(t, "C", 4)

	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: b, Quantity: 8, Date: day(-2)})
	require.NoError(t, err)
	_, err = f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: a, Quantity: 3, Date: day(-1), Recipient: "X"})
	require.NoError(t, err)

	bulk, err := f.engine.BulkStockAt(ctx, day(-1))
	require.NoError(t, err)
	require.Len(t, bulk, 3)
	for _, id := range []string{a, b, c} {
		single, err := f.engine.StockAt(ctx, id, day(-1))
		require.NoError(t, err)
		assert.Equal(t, single, bulk[id])
	}
	assert.Equal(t, map[string]int64{a: 7, b: 8, c: 4}, bulk)

	levels, err := f.engine.Levels(ctx, day(-1))
	require.NoError(t, err)
	for _, l := range levels {
		if l.ProductID == a {
			assert.True(t, decimal.RequireFromString("35").Equal(l.Value))
		}
	}
}

// ─── Dates out of order ──────────────────────────────────────────────────────

func TestStockAt_FutureEntryDivergesFromRunningBalance(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 7, Date: day(5)})
	require.NoError(t, err)
	_, err = f.engine.RecordOutbound(ctx, inventory.OutboundInput{ProductID: p, Quantity: 2, Date: day(-4), Recipient: "X"})
	require.NoError(t, err)

	assert.Equal(t, int64(15), f.balance(t, p))
	now, err := f.engine.StockAt(ctx, p, today)
	require.NoError(t, err)
	assert.Equal(t, int64(8), now, "an entry dated after today is not stock today")
	later, err := f.engine.StockAt(ctx, p, day(5))
	require.NoError(t, err)
	assert.Equal(t, int64(15), later)
	earlier, err := f.engine.StockAt(ctx, p, day(-5))
	require.NoError(t, err)
	assert.Equal(t, int64(10), earlier, "a back-dated entry only counts from its own date")

	bulk, err := f.engine.BulkStockAt(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(8), bulk[p])
	f.assertConsistent(t, p)
}

func TestUpdate_DateAcrossCutoffMovesStockAt(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	p := f.product(t, "P", 10)

	in, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p, Quantity: 4, Date: day(-5)})
	require.NoError(t, err)
	at := func(d time.Time) int64 {
		t.Helper()
		s, err := f.engine.StockAt(ctx, p, d)
		require.NoError(t, err)
		return s
	}
	assert.Equal(t, int64(14), at(day(-3)))

	later := day(-1)
	_, err = f.engine.UpdateEntry(ctx, in.ID, inventory.EntryUpdate{Expect: entity.DirectionInbound, Date: &later})
	require.NoError(t, err)
	assert.Equal(t, int64(10), at(day(-3)))
	assert.Equal(t, int64(14), at(day(-1)))

	future := day(2)
	_, err = f.engine.UpdateEntry(ctx, in.ID, inventory.EntryUpdate{Expect: entity.DirectionInbound, Date: &future})
	require.NoError(t, err)
	assert.Equal(t, int64(10), at(today))
	assert.Equal(t, int64(14), at(day(2)))
	assert.Equal(t, int64(14), f.balance(t, p), "moving a date never changes the running balance")
	f.assertConsistent(t, p)
}

func TestLowStock_FollowsStockToday(t *testing.T) {
	f := newEngine(t, 0)
	ctx := context.Background()
	restocked := f.product(t, "Restocked later", 5)
	f.product(t, "Plenty", 50)

	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: restocked, Quantity: 100, Date: day(3)})
	require.NoError(t, err)
	require.Equal(t, int64(105), f.balance(t, restocked))

	low, err := inventory.NewReplenishmentUseCase(f.engine).LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, restocked, low.Items[0].ProductID)
	assert.Equal(t, int64(5), low.Items[0].Stock)

	_, err = inventory.NewReplenishmentUseCase(f.engine).LowStock(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// cancellingInvalidator cancels the caller's context as soon as the commit is done.
type cancellingInvalidator struct {
	cancel context.CancelFunc
	err    error
}

func (c *cancellingInvalidator) InvalidateStats(ctx context.Context) error {
	c.cancel()
	c.err = ctx.Err()
	return c.err
}

func TestRecord_SideEffectsOutliveCallerCancel(t *testing.T) {
	store := memory.New()
	events := &eventSpy{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stats := &cancellingInvalidator{cancel: cancel}
	engine := inventory.NewStockEngine(store, store.Products(), store.Ledger(), inventory.EngineConfig{
		Stats:  stats,
		Events: events,
		Log:    zerolog.Nop(),
		Now:    func() time.Time { return today.Add(9 * time.Hour) },
	})
	p := &entity.Product{ID: uuid.NewString(), Name: "P", Unit: "pcs", InitialStock: 3, RunningBalance: 3, Price: decimal.Zero}
	require.NoError(t, store.Products().Create(context.Background(), p))

	_, err := engine.RecordInbound(ctx, inventory.InboundInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.NoError(t, stats.err, "invalidation must not see the caller's cancellation")
	assert.Len(t, events.events, 1)
}
