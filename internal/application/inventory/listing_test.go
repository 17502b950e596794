package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/memory"
)

type brokenStrategy struct {
	tier  repository.QueryTier
	calls int
}

func (b *brokenStrategy) Tier() repository.QueryTier { return b.tier }

func (b *brokenStrategy) Find(context.Context, repository.LedgerQuery) (*repository.LedgerPage, error) {
	b.calls++
	return nil, errors.New("syntax error at or near \"::\"")
}

// only returns the strategy of the given tier from a memory store.
func only(store *memory.Store, tier repository.QueryTier) repository.LedgerQueryStrategy {
	for _, s := range memory.NewLedgerQueryStrategies(store) {
		if s.Tier() == tier {
			return s
		}
	}
	return nil
}

func seedLedger(t *testing.T) (*engineFixture, string, string) {
	t.Helper()
	f := newEngine(t, 0)
	ctx := context.Background()
	bolt := f.product(t, "Bolt", 100)
	nut := f.product(t, "Hex Nut", 100)
	for i, in := range []inventory.OutboundInput{
		{ProductID: bolt, Quantity: 1, Date: day(-3), Recipient: "Ana", Paid: true},
		{ProductID: bolt, Quantity: 2, Date: day(-2), Recipient: "Luis"},
		{ProductID: nut, Quantity: 3, Date: day(-2), Recipient: "ana maria", Paid: true},
		{ProductID: nut, Quantity: 4, Date: day(-1), Recipient: "Pedro"},
	} {
		_, err := f.engine.RecordOutbound(ctx, in)
		require.NoError(t, err, "entry %d", i)
	}
	_, err := f.engine.RecordInbound(ctx, inventory.InboundInput{ProductID: bolt, Quantity: 9, Date: day(-1)})
	require.NoError(t, err)
	return f, bolt, nut
}

func outboundQuery() repository.LedgerQuery {
	return repository.LedgerQuery{
		Filter: repository.LedgerFilter{Direction: entity.DirectionOutbound},
		Limit:  20,
	}
}

func TestList_PreferredTierServes(t *testing.T) {
	f, _, nut := seedLedger(t)
	lister := inventory.NewLedgerLister(memory.NewLedgerQueryStrategies(f.store), zerolog.Nop(), nil)

	q := outboundQuery()
	q.Filter.ProductName = "NUT"
	res, err := lister.List(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, repository.TierPreferred, res.Tier)
	assert.Equal(t, int64(2), res.Page.Total)
	for _, row := range res.Page.Rows {
		assert.Equal(t, nut, row.ProductID)
		assert.Equal(t, "Hex Nut", row.ProductName)
	}
}

func TestList_FallsBackToDegradedWithSameRows(t *testing.T) {
	f, bolt, _ := seedLedger(t)
	broken := &brokenStrategy{tier: repository.TierPreferred}
	from, to := day(-2), day(-1)
	paid := true

	queries := []repository.LedgerQuery{
		outboundQuery(),
		func() repository.LedgerQuery { q := outboundQuery(); q.Filter.ProductID = bolt; return q }(),
		func() repository.LedgerQuery { q := outboundQuery(); q.Filter.Recipient = "ANA"; return q }(),
		func() repository.LedgerQuery { q := outboundQuery(); q.Filter.Paid = &paid; return q }(),
		func() repository.LedgerQuery {
			q := outboundQuery()
			q.Filter.From, q.Filter.To = &from, &to
			q.Sort = repository.Sort{Key: repository.SortQuantity}
			q.Limit, q.Offset = 2, 1
			return q
		}(),
	}

	preferred := inventory.NewLedgerLister([]repository.LedgerQueryStrategy{only(f.store, repository.TierPreferred)}, zerolog.Nop(), nil)
	fallback := inventory.NewLedgerLister([]repository.LedgerQueryStrategy{
		only(f.store, repository.TierMinimal),
		only(f.store, repository.TierDegraded),
		broken,
	}, zerolog.Nop(), nil)

	for i, q := range queries {
		want, err := preferred.List(context.Background(), q)
		require.NoError(t, err, "query %d", i)
		got, err := fallback.List(context.Background(), q)
		require.NoError(t, err, "query %d", i)

		assert.Equal(t, repository.TierDegraded, got.Tier, "query %d", i)
		assert.Equal(t, want.Page.Total, got.Page.Total, "query %d", i)
		assert.Equal(t, want.Page.Rows, got.Page.Rows, "query %d", i)
	}
	assert.Equal(t, len(queries), broken.calls)
}

func TestList_MinimalTierIgnoresFilters(t *testing.T) {
	f, bolt, _ := seedLedger(t)
	lister := inventory.NewLedgerLister([]repository.LedgerQueryStrategy{
		&brokenStrategy{tier: repository.TierPreferred},
		&brokenStrategy{tier: repository.TierDegraded},
		only(f.store, repository.TierMinimal),
	}, zerolog.Nop(), nil)

	q := outboundQuery()
	q.Filter.ProductID = bolt
	res, err := lister.List(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, repository.TierMinimal, res.Tier)
	assert.Equal(t, int64(4), res.Page.Total)
	for i := 1; i < len(res.Page.Rows); i++ {
		assert.False(t, res.Page.Rows[i].CreatedAt.After(res.Page.Rows[i-1].CreatedAt), "newest first")
	}
}

func TestList_AllTiersFailIsQueryFailure(t *testing.T) {
	lister := inventory.NewLedgerLister([]repository.LedgerQueryStrategy{
		&brokenStrategy{tier: repository.TierPreferred},
		&brokenStrategy{tier: repository.TierDegraded},
		&brokenStrategy{tier: repository.TierMinimal},
	}, zerolog.Nop(), nil)

	_, err := lister.List(context.Background(), outboundQuery())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQueryFailure)
	assert.Equal(t, "ledger listing is unavailable", domain.PublicReason(err))
	assert.NotContains(t, domain.PublicReason(err), "syntax error")
}

func TestList_RejectsInvalidQueries(t *testing.T) {
	f, _, _ := seedLedger(t)
	lister := inventory.NewLedgerLister(memory.NewLedgerQueryStrategies(f.store), zerolog.Nop(), nil)
	from, to := day(-1), day(-3)

	cases := map[string]func(*repository.LedgerQuery){
		"missing direction": func(q *repository.LedgerQuery) { q.Filter.Direction = "" },
		"bad product id":    func(q *repository.LedgerQuery) { q.Filter.ProductID = "not-a-uuid" },
		"reversed range":    func(q *repository.LedgerQuery) { q.Filter.From, q.Filter.To = &from, &to },
		"zero limit":        func(q *repository.LedgerQuery) { q.Limit = 0 },
		"huge limit":        func(q *repository.LedgerQuery) { q.Limit = inventory.MaxPageSize + 1 },
		"negative offset":   func(q *repository.LedgerQuery) { q.Offset = -1 },
		"unknown sort key":  func(q *repository.LedgerQuery) { q.Sort = repository.Sort{Key: "name; DROP TABLE"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			q := outboundQuery()
			mutate(&q)
			_, err := lister.List(context.Background(), q)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	q := outboundQuery()
	q.Filter.ProductID = uuid.NewString()
	res, err := lister.List(context.Background(), q)
	require.NoError(t, err)
	assert.Zero(t, res.Page.Total)
}
