package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo es el LedgerRepository en proceso.
type LedgerRepo struct {
	v view
}

func (r *LedgerRepo) Create(_ context.Context, e *entity.LedgerEntry) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.products[e.ProductID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.entries[e.ID]; ok {
			return domain.ErrDuplicate
		}
		st.entries[e.ID] = *e
		return nil
	})
}

func (r *LedgerRepo) GetByID(_ context.Context, id string) (*entity.LedgerEntry, error) {
	var out *entity.LedgerEntry
	err := r.v.do(func(st *state) error {
		if e, ok := st.entries[id]; ok {
			out = &e
		}
		return nil
	})
	return out, err
}

// GetForUpdate es GetByID: las transacciones ya son exclusivas.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	return r.GetByID(ctx, id)
}

func (r *LedgerRepo) Update(_ context.Context, e *entity.LedgerEntry) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.entries[e.ID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.products[e.ProductID]; !ok {
			return domain.ErrNotFound
		}
		st.entries[e.ID] = *e
		return nil
	})
}

func (r *LedgerRepo) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.entries[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.entries, id)
		return nil
	})
}

func (r *LedgerRepo) CountByProduct(_ context.Context, productID string, dir entity.Direction) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		for _, e := range st.entries {
			if e.ProductID == productID && e.Direction == dir {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *LedgerRepo) DeleteByProduct(_ context.Context, productID string, dir entity.Direction) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		for id, e := range st.entries {
			if e.ProductID == productID && e.Direction == dir {
				delete(st.entries, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *LedgerRepo) TotalsUntil(_ context.Context, productID string, until time.Time) (entity.MovementTotals, error) {
	var t entity.MovementTotals
	err := r.v.do(func(st *state) error {
		for _, e := range st.entries {
			if e.ProductID == productID && !e.Date.After(until) {
				addTotals(&t, e)
			}
		}
		return nil
	})
	return t, err
}

func (r *LedgerRepo) TotalsByProductUntil(_ context.Context, until time.Time) (map[string]entity.MovementTotals, error) {
	out := make(map[string]entity.MovementTotals)
	err := r.v.do(func(st *state) error {
		for _, e := range st.entries {
			if e.Date.After(until) {
				continue
			}
			t := out[e.ProductID]
			addTotals(&t, e)
			out[e.ProductID] = t
		}
		return nil
	})
	return out, err
}

func (r *LedgerRepo) SumBetween(_ context.Context, dir entity.Direction, from, to time.Time) (int64, error) {
	var sum int64
	err := r.v.do(func(st *state) error {
		for _, e := range st.entries {
			if e.Direction == dir && !e.Date.Before(from) && !e.Date.After(to) {
				sum += e.Quantity
			}
		}
		return nil
	})
	return sum, err
}

func (r *LedgerRepo) DailyTotals(_ context.Context, dir entity.Direction, from, to time.Time) ([]entity.DailyTotal, error) {
	byDate := make(map[time.Time]int64)
	err := r.v.do(func(st *state) error {
		for _, e := range st.entries {
			if e.Direction == dir && !e.Date.Before(from) && !e.Date.After(to) {
				byDate[e.Date] += e.Quantity
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]entity.DailyTotal, 0, len(byDate))
	for d, q := range byDate {
		out = append(out, entity.DailyTotal{Date: d, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func addTotals(t *entity.MovementTotals, e entity.LedgerEntry) {
	if e.Direction == entity.DirectionOutbound {
		t.Outbound += e.Quantity
	} else {
		t.Inbound += e.Quantity
	}
}
