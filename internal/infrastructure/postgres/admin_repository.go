package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

var _ repository.AdminRepository = (*AdminRepo)(nil)

// AdminRepo implementa AdminRepository sobre PostgreSQL.
type AdminRepo struct {
	q Querier
}

// NewAdminRepository construye el adaptador.
func NewAdminRepository(q Querier) *AdminRepo {
	return &AdminRepo{q: q}
}

func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	var a entity.Admin
	err := r.q.QueryRow(ctx, `
		SELECT id, username, display_name, password_hash, last_login_at, created_at
		FROM admins WHERE username = $1`, username,
	).Scan(&a.ID, &a.Username, &a.DisplayName, &a.PasswordHash, &a.LastLoginAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get admin", err)
	}
	return &a, nil
}

func (r *AdminRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE admins SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return mapError("touch admin login", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upsert crea o reemplaza un admin por username. Se usa para sembrar el primer operador.
func (r *AdminRepo) Upsert(ctx context.Context, a *entity.Admin) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO admins (id, username, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE
		SET display_name = EXCLUDED.display_name, password_hash = EXCLUDED.password_hash`,
		a.ID, a.Username, a.DisplayName, a.PasswordHash, a.CreatedAt)
	return mapError("upsert admin", err)
}
