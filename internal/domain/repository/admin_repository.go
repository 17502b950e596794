package repository

import (
	"context"
	"time"

	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
)

// AdminRepository es el puerto de persistencia de los operadores del back office.
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*entity.Admin, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}
