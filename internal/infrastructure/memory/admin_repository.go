package memory

import (
	"context"
	"time"

	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

var _ repository.AdminRepository = (*AdminRepo)(nil)

// AdminRepo es el AdminRepository en proceso.
type AdminRepo struct {
	v view
}

// Seed guarda un admin, reemplazando cualquiera con el mismo username.
func (r *AdminRepo) Seed(a entity.Admin) {
	_ = r.v.do(func(st *state) error {
		st.admins[a.Username] = a
		return nil
	})
}

func (r *AdminRepo) GetByUsername(_ context.Context, username string) (*entity.Admin, error) {
	var out *entity.Admin
	err := r.v.do(func(st *state) error {
		if a, ok := st.admins[username]; ok {
			out = &a
		}
		return nil
	})
	return out, err
}

func (r *AdminRepo) TouchLogin(_ context.Context, id string, at time.Time) error {
	return r.v.do(func(st *state) error {
		for k, a := range st.admins {
			if a.ID == id {
				a.LastLoginAt = &at
				st.admins[k] = a
				return nil
			}
		}
		return domain.ErrNotFound
	})
}
