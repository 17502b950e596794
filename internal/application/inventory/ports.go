package inventory

import (
	"context"

	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción del almacén, pasando repositorios atados a esa tx.
// Un error de fn hace Rollback de todo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		products repository.ProductRepository,
		ledger repository.LedgerRepository,
	) error) error
}

// StatsInvalidator descarta las estadísticas en caché. Se llama tras cada mutación confirmada.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context) error
}

// EventPublisher anuncia las mutaciones del libro ya confirmadas.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.MovementEvent) error
}
