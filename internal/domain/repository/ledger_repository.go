package repository

import (
	"context"
	"time"

	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
)

// LedgerFilter acota un listado del libro. Direction es obligatoria; los demás campos son
// opcionales y uno vacío no filtra.
type LedgerFilter struct {
	Direction   entity.Direction
	ProductID   string
	ProductName string // subcadena del nombre del producto, sin distinguir mayúsculas
	Recipient   string // subcadena del destinatario, sin distinguir mayúsculas
	Paid        *bool
	From        *time.Time // inclusive
	To          *time.Time // inclusive
}

// LedgerQuery es una página filtrada y ordenada de registros del libro.
type LedgerQuery struct {
	Filter LedgerFilter
	Sort   Sort
	Limit  int
	Offset int
}

// LedgerPage es una página de un listado del libro y el total de filas que coinciden.
type LedgerPage struct {
	Rows  []entity.LedgerRow
	Total int64
}

// LedgerRepository es el puerto de persistencia de los registros del libro.
type LedgerRepository interface {
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error)
	// GetForUpdate carga el registro y bloquea su fila hasta que termine la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.LedgerEntry, error)
	Update(ctx context.Context, entry *entity.LedgerEntry) error
	Delete(ctx context.Context, id string) error
	CountByProduct(ctx context.Context, productID string, dir entity.Direction) (int64, error)
	DeleteByProduct(ctx context.Context, productID string, dir entity.Direction) (int64, error)
	// TotalsUntil suma las entradas y salidas de un producto con fecha hasta until inclusive.
	TotalsUntil(ctx context.Context, productID string, until time.Time) (entity.MovementTotals, error)
	// TotalsByProductUntil hace lo mismo para todos los productos en una sola agregación.
	// Los productos sin registros no aparecen en el mapa.
	TotalsByProductUntil(ctx context.Context, until time.Time) (map[string]entity.MovementTotals, error)
	// SumBetween suma una dirección sobre los registros con fecha en [from, to].
	SumBetween(ctx context.Context, dir entity.Direction, from, to time.Time) (int64, error)
	// DailyTotals suma una dirección por fecha en [from, to]; las fechas sin registros no aparecen.
	DailyTotals(ctx context.Context, dir entity.Direction, from, to time.Time) ([]entity.DailyTotal, error)
}

// QueryTier ordena las estrategias de listado de la más capaz a la menos capaz.
type QueryTier int

const (
	TierPreferred QueryTier = iota + 1
	TierDegraded
	TierMinimal
)

func (t QueryTier) String() string {
	switch t {
	case TierPreferred:
		return "preferred"
	case TierDegraded:
		return "degraded"
	case TierMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// LedgerQueryStrategy ejecuta una forma de la consulta de listado. El nivel mínimo ignora
// todo filtro salvo la dirección y ordena por inserción.
type LedgerQueryStrategy interface {
	Tier() QueryTier
	Find(ctx context.Context, q LedgerQuery) (*LedgerPage, error)
}
