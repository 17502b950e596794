package repository

import (
	"context"
	"time"

	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
)

// ProductFilter acota un listado de productos. Los campos vacíos no filtran.
type ProductFilter struct {
	Name string // subcadena sin distinguir mayúsculas
	Spec string // subcadena sin distinguir mayúsculas
}

// ProductQuery es una página filtrada y ordenada de productos.
type ProductQuery struct {
	Filter ProductFilter
	Sort   Sort
	Limit  int
	Offset int
}

// ProductRepository es el puerto de persistencia de productos. Las implementaciones atadas
// a una transacción ven sus escrituras. Los Get devuelven (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate carga el producto y bloquea su fila hasta que termine la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// FindByNameAndSpec devuelve los productos cuyo name y spec coinciden sin distinguir mayúsculas.
	FindByNameAndSpec(ctx context.Context, name, spec string) ([]*entity.Product, error)
	// Update escribe solo atributos descriptivos; los campos de stock no se tocan.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateBalance escribe balance si la versión guardada sigue siendo version y la incrementa.
	// Una versión vieja da domain.ErrConflict.
	UpdateBalance(ctx context.Context, id string, balance, version int64) error
	List(ctx context.Context, q ProductQuery) ([]*entity.Product, int64, error)
	ListAll(ctx context.Context) ([]*entity.Product, error)
	Count(ctx context.Context) (int64, error)
	// EarliestCreatedAt devuelve nil cuando no hay productos.
	EarliestCreatedAt(ctx context.Context) (*time.Time, error)
	Delete(ctx context.Context, id string) error
}
