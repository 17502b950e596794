package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

var ledgerSortFuncs = map[repository.SortKey]func(a, b *entity.LedgerRow) int{
	repository.SortDate:      func(a, b *entity.LedgerRow) int { return a.Date.Compare(b.Date) },
	repository.SortCreatedAt: func(a, b *entity.LedgerRow) int { return a.CreatedAt.Compare(b.CreatedAt) },
	repository.SortQuantity:  func(a, b *entity.LedgerRow) int { return compareInt(a.Quantity, b.Quantity) },
	repository.SortProductID: func(a, b *entity.LedgerRow) int { return strings.Compare(a.ProductID, b.ProductID) },
	repository.SortPaymentStatus: func(a, b *entity.LedgerRow) int {
		return compareInt(boolInt(a.Paid), boolInt(b.Paid))
	},
}

func init() {
	if err := repository.CheckSortTable(ledgerSortFuncs, repository.LedgerSortKeys); err != nil {
		panic("memory ledger: " + err.Error())
	}
}

// LedgerQuery ejecuta listados del libro sobre el almacén para un nivel. El preferido revisa
// el filtro campo por campo; el degradado lo compila en una lista de predicados como el nivel
// degradado de SQL arma su WHERE. El mínimo conserva solo la dirección.
type LedgerQuery struct {
	store *Store
	tier  repository.QueryTier
}

type rowPredicate func(*entity.LedgerRow) bool

// NewLedgerQueryStrategies devuelve los tres niveles de listado sobre s.
func NewLedgerQueryStrategies(s *Store) []repository.LedgerQueryStrategy {
	return []repository.LedgerQueryStrategy{
		&LedgerQuery{store: s, tier: repository.TierPreferred},
		&LedgerQuery{store: s, tier: repository.TierDegraded},
		&LedgerQuery{store: s, tier: repository.TierMinimal},
	}
}

func (q *LedgerQuery) Tier() repository.QueryTier { return q.tier }

func (q *LedgerQuery) Find(_ context.Context, lq repository.LedgerQuery) (*repository.LedgerPage, error) {
	f := lq.Filter
	sortKey := lq.Sort
	if q.tier == repository.TierMinimal {
		f = repository.LedgerFilter{Direction: f.Direction}
		sortKey = repository.Sort{Key: repository.SortCreatedAt, Desc: true}
	}
	match := func(r *entity.LedgerRow) bool { return matches(r, f) }
	if q.tier == repository.TierDegraded {
		preds := compileFilter(f)
		match = func(r *entity.LedgerRow) bool {
			for _, p := range preds {
				if !p(r) {
					return false
				}
			}
			return true
		}
	}
	var rows []*entity.LedgerRow
	err := view{store: q.store}.do(func(st *state) error {
		for _, e := range st.entries {
			row := &entity.LedgerRow{LedgerEntry: e}
			if p, ok := st.products[e.ProductID]; ok {
				row.ProductName, row.ProductSpec, row.ProductUnit = p.Name, p.Spec, p.Unit
			}
			if match(row) {
				rows = append(rows, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cmp, ok := ledgerSortFuncs[sortKey.Key]
	if !ok {
		cmp = ledgerSortFuncs[repository.SortCreatedAt]
	}
	sort.Slice(rows, func(i, j int) bool {
		c := cmp(rows[i], rows[j])
		if c == 0 {
			c = strings.Compare(rows[i].ID, rows[j].ID)
		}
		if sortKey.Desc {
			return c > 0
		}
		return c < 0
	})
	total := int64(len(rows))
	paged := page(rows, lq.Limit, lq.Offset)
	out := &repository.LedgerPage{Rows: make([]entity.LedgerRow, 0, len(paged)), Total: total}
	for _, r := range paged {
		out.Rows = append(out.Rows, *r)
	}
	return out, nil
}

func matches(r *entity.LedgerRow, f repository.LedgerFilter) bool {
	if r.Direction != f.Direction {
		return false
	}
	if f.ProductID != "" && r.ProductID != f.ProductID {
		return false
	}
	if f.ProductName != "" && !strings.Contains(strings.ToLower(r.ProductName), strings.ToLower(f.ProductName)) {
		return false
	}
	if f.Recipient != "" && !strings.Contains(strings.ToLower(r.RecipientName), strings.ToLower(f.Recipient)) {
		return false
	}
	if f.Paid != nil && r.Paid != *f.Paid {
		return false
	}
	if f.From != nil && r.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && r.Date.After(*f.To) {
		return false
	}
	return true
}

// compileFilter convierte f en predicados, pasando a minúsculas los patrones una sola vez.
func compileFilter(f repository.LedgerFilter) []rowPredicate {
	dir := f.Direction
	preds := []rowPredicate{func(r *entity.LedgerRow) bool { return r.Direction == dir }}
	if id := f.ProductID; id != "" {
		preds = append(preds, func(r *entity.LedgerRow) bool { return r.ProductID == id })
	}
	if name := strings.ToLower(f.ProductName); name != "" {
		preds = append(preds, func(r *entity.LedgerRow) bool {
			return strings.Contains(strings.ToLower(r.ProductName), name)
		})
	}
	if recipient := strings.ToLower(f.Recipient); recipient != "" {
		preds = append(preds, func(r *entity.LedgerRow) bool {
			return strings.Contains(strings.ToLower(r.RecipientName), recipient)
		})
	}
	if f.Paid != nil {
		paid := *f.Paid
		preds = append(preds, func(r *entity.LedgerRow) bool { return r.Paid == paid })
	}
	if f.From != nil {
		from := *f.From
		preds = append(preds, func(r *entity.LedgerRow) bool { return !r.Date.Before(from) })
	}
	if f.To != nil {
		to := *f.To
		preds = append(preds, func(r *entity.LedgerRow) bool { return !r.Date.After(to) })
	}
	return preds
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
