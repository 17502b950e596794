package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

var productSortFuncs = map[repository.SortKey]func(a, b *entity.Product) int{
	repository.SortCreatedAt:    func(a, b *entity.Product) int { return a.CreatedAt.Compare(b.CreatedAt) },
	repository.SortUpdatedAt:    func(a, b *entity.Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	repository.SortName:         func(a, b *entity.Product) int { return strings.Compare(a.Name, b.Name) },
	repository.SortPrice:        func(a, b *entity.Product) int { return a.Price.Cmp(b.Price) },
	repository.SortInitialStock: func(a, b *entity.Product) int { return compareInt(a.InitialStock, b.InitialStock) },
}

func init() {
	if err := repository.CheckSortTable(productSortFuncs, repository.ProductSortKeys); err != nil {
		panic("memory products: " + err.Error())
	}
}

// ProductRepo es el ProductRepository en proceso.
type ProductRepo struct {
	v view
}

var folder = cases.Fold()

func sameKey(a, b string) bool {
	return folder.String(strings.TrimSpace(a)) == folder.String(strings.TrimSpace(b))
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range st.products {
			if sameKey(other.Name, p.Name) && sameKey(other.Spec, p.Spec) {
				return domain.ErrDuplicate
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

// GetForUpdate es GetByID: las transacciones ya son exclusivas.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) FindByNameAndSpec(_ context.Context, name, spec string) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			if sameKey(p.Name, name) && sameKey(p.Spec, spec) {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		for id, other := range st.products {
			if id != p.ID && sameKey(other.Name, p.Name) && sameKey(other.Spec, p.Spec) {
				return domain.ErrDuplicate
			}
		}
		cur.Name, cur.Spec, cur.Unit = p.Name, p.Spec, p.Unit
		cur.Price, cur.ImageURL, cur.UpdatedAt = p.Price, p.ImageURL, p.UpdatedAt
		st.products[p.ID] = cur
		return nil
	})
}

func (r *ProductRepo) UpdateBalance(_ context.Context, id string, balance, version int64) error {
	if r.v.store.takeConflict() {
		return domain.ErrConflict
	}
	return r.v.do(func(st *state) error {
		cur, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Version != version {
			return domain.ErrConflict
		}
		cur.RunningBalance = balance
		cur.Version++
		cur.UpdatedAt = time.Now().UTC()
		st.products[id] = cur
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, q repository.ProductQuery) ([]*entity.Product, int64, error) {
	cmp, ok := productSortFuncs[q.Sort.Key]
	if !ok {
		cmp = productSortFuncs[repository.SortCreatedAt]
	}
	var matched []*entity.Product
	err := r.v.do(func(st *state) error {
		name, spec := strings.ToLower(q.Filter.Name), strings.ToLower(q.Filter.Spec)
		for _, p := range st.products {
			if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
				continue
			}
			if spec != "" && !strings.Contains(strings.ToLower(p.Spec), spec) {
				continue
			}
			p := p
			matched = append(matched, &p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(matched, func(i, j int) bool {
		c := cmp(matched[i], matched[j])
		if c == 0 {
			c = strings.Compare(matched[i].ID, matched[j].ID)
		}
		if q.Sort.Desc {
			return c > 0
		}
		return c < 0
	})
	total := int64(len(matched))
	return page(matched, q.Limit, q.Offset), total, nil
}

func (r *ProductRepo) ListAll(_ context.Context) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			p := p
			out = append(out, &p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *ProductRepo) Count(_ context.Context) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		n = int64(len(st.products))
		return nil
	})
	return n, err
}

func (r *ProductRepo) EarliestCreatedAt(_ context.Context) (*time.Time, error) {
	var out *time.Time
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			if out == nil || p.CreatedAt.Before(*out) {
				t := p.CreatedAt
				out = &t
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.ErrNotFound
		}
		for _, e := range st.entries {
			if e.ProductID == id {
				return domain.ErrProductInUse
			}
		}
		delete(st.products, id)
		return nil
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
