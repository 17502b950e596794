package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
	"github.com/jhoicas/shelf-inventory/pkg/metrics"
)

// DefaultConflictRetries es cuántas veces se reintenta una mutación tras ErrConflict.
const DefaultConflictRetries = 3

// EngineConfig lleva los colaboradores opcionales del StockEngine.
type EngineConfig struct {
	ConflictRetries int
	Stats           StatsInvalidator
	Events          EventPublisher
	Log             zerolog.Logger
	Metrics         *metrics.EngineMetrics
	Now             func() time.Time
}

// StockEngine es el único que escribe Product.RunningBalance. Cada mutación corre en una
// transacción que bloquea las filas de producto tocadas (SELECT FOR UPDATE) y escribe el saldo
// con un compare-and-swap de version; ErrConflict reintenta la mutación completa.
type StockEngine struct {
	txRunner TxRunner
	products repository.ProductRepository
	ledger   repository.LedgerRepository
	retries  int
	stats    StatsInvalidator
	events   EventPublisher
	log      zerolog.Logger
	metrics  *metrics.EngineMetrics
	now      func() time.Time
}

// NewStockEngine construye el motor. products y ledger se usan para lecturas fuera de transacción.
func NewStockEngine(
	txRunner TxRunner,
	products repository.ProductRepository,
	ledger repository.LedgerRepository,
	cfg EngineConfig,
) *StockEngine {
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &StockEngine{
		txRunner: txRunner,
		products: products,
		ledger:   ledger,
		retries:  cfg.ConflictRetries,
		stats:    cfg.Stats,
		events:   cfg.Events,
		log:      cfg.Log.With().Str("component", "stock_engine").Logger(),
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}
}

// InboundInput registra mercancía recibida. Date cero significa hoy.
type InboundInput struct {
	ProductID string
	Quantity  int64
	Date      time.Time
}

// OutboundInput registra mercancía despachada. Date cero significa hoy.
type OutboundInput struct {
	ProductID string
	Quantity  int64
	Date      time.Time
	Recipient string
	Paid      bool
}

// EntryUpdate cambia un registro existente. Los campos nil conservan su valor. Un ProductID
// distinto del actual reasigna el registro. Expect, si viene, debe coincidir con la dirección.
type EntryUpdate struct {
	Expect    entity.Direction
	ProductID *string
	Quantity  *int64
	Date      *time.Time
	Recipient *string
	Paid      *bool
}

// Today devuelve la fecha calendario actual.
func (e *StockEngine) Today() time.Time {
	return entity.Date(e.now())
}

// RecordInbound inserta una entrada y sube el saldo del producto.
func (e *StockEngine) RecordInbound(ctx context.Context, in InboundInput) (*entity.LedgerEntry, error) {
	if err := validateMovement(in.ProductID, in.Quantity); err != nil {
		return nil, err
	}
	return e.record(ctx, "record_inbound", entity.LedgerEntry{
		ProductID: in.ProductID,
		Direction: entity.DirectionInbound,
		Quantity:  in.Quantity,
		Date:      e.dateOrToday(in.Date),
	})
}

// RecordOutbound inserta una salida y baja el saldo del producto. El saldo se lee y se
// verifica con la fila bloqueada; si no alcanza no se escribe nada.
func (e *StockEngine) RecordOutbound(ctx context.Context, in OutboundInput) (*entity.LedgerEntry, error) {
	if err := validateMovement(in.ProductID, in.Quantity); err != nil {
		return nil, err
	}
	recipient := strings.TrimSpace(in.Recipient)
	if recipient == "" {
		return nil, domain.Reject(domain.ErrInvalidInput, "recipient is required")
	}
	return e.record(ctx, "record_outbound", entity.LedgerEntry{
		ProductID:     in.ProductID,
		Direction:     entity.DirectionOutbound,
		Quantity:      in.Quantity,
		Date:          e.dateOrToday(in.Date),
		RecipientName: recipient,
		Paid:          in.Paid,
	})
}

func (e *StockEngine) record(ctx context.Context, op string, tmpl entity.LedgerEntry) (*entity.LedgerEntry, error) {
	var (
		entry    *entity.LedgerEntry
		balances map[string]int64
	)
	err := e.mutate(ctx, op, func(products repository.ProductRepository, ledger repository.LedgerRepository) error {
		p, err := lockProduct(ctx, products, tmpl.ProductID)
		if err != nil {
			return err
		}
		if tmpl.Direction == entity.DirectionOutbound && !inventory.CanDispatch(p.RunningBalance, tmpl.Quantity) {
			return insufficient(p, p.RunningBalance, tmpl.Quantity)
		}
		now := e.now()
		next := tmpl
		next.ID = uuid.New().String()
		next.ImageSnapshot = p.ImageURL
		next.CreatedAt = now
		next.UpdatedAt = now
		if err := ledger.Create(ctx, &next); err != nil {
			return err
		}
		balance := inventory.Apply(p.RunningBalance, &next)
		if err := products.UpdateBalance(ctx, p.ID, balance, p.Version); err != nil {
			return err
		}
		entry = &next
		balances = map[string]int64{p.ID: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.afterCommit(ctx, entity.EventEntryRecorded, entry, balances)
	return entry, nil
}

// updateStep nombra las etapas de una actualización para diagnóstico.
type updateStep string

const (
	stepValidatedOld updateStep = "validated-old"
	stepReversedOld  updateStep = "reversed-old"
	stepValidatedNew updateStep = "validated-new"
	stepAppliedNew   updateStep = "applied-new"
)

// UpdateEntry cambia cantidad, fecha, producto y, en salidas, destinatario y estado de pago.
// El efecto anterior se revierte y el nuevo se aplica en una sola transacción:
// si el nuevo producto no alcanza también se deshace la reversión.
func (e *StockEngine) UpdateEntry(ctx context.Context, id string, upd EntryUpdate) (*entity.LedgerEntry, error) {
	if id == "" {
		return nil, domain.Reject(domain.ErrInvalidInput, "entry id is required")
	}
	if upd.Quantity != nil && *upd.Quantity <= 0 {
		return nil, domain.Reject(domain.ErrInvalidInput, "quantity must be positive")
	}
	if upd.ProductID != nil && strings.TrimSpace(*upd.ProductID) == "" {
		return nil, domain.Reject(domain.ErrInvalidInput, "product id is required")
	}
	var (
		entry    *entity.LedgerEntry
		balances map[string]int64
	)
	err := e.mutate(ctx, "update_entry", func(products repository.ProductRepository, ledger repository.LedgerRepository) error {
		var step updateStep
		old, err := lockEntry(ctx, ledger, id, upd.Expect)
		if err != nil {
			return err
		}
		next, err := applyUpdate(*old, upd)
		if err != nil {
			return err
		}

		locked, err := lockProducts(ctx, products, old.ProductID, next.ProductID)
		if err != nil {
			return err
		}
		source := locked[old.ProductID]
		step = stepValidatedOld

		reversed := inventory.Reverse(source.RunningBalance, old)
		step = stepReversedOld
		balances = make(map[string]int64, 2)

		target, base, version := source, reversed, source.Version
		if next.ProductID != old.ProductID {
			if err := products.UpdateBalance(ctx, source.ID, reversed, source.Version); err != nil {
				return fmt.Errorf("update entry at %s: %w", step, err)
			}
			balances[source.ID] = reversed
			target = locked[next.ProductID]
			base, version = target.RunningBalance, target.Version
			next.ImageSnapshot = target.ImageURL
		}

		if next.Direction == entity.DirectionOutbound && !inventory.CanDispatch(base, next.Quantity) {
			return insufficient(target, base, next.Quantity)
		}
		step = stepValidatedNew

		applied := inventory.Apply(base, &next)
		if err := products.UpdateBalance(ctx, target.ID, applied, version); err != nil {
			return fmt.Errorf("update entry at %s: %w", step, err)
		}
		next.UpdatedAt = e.now()
		if err := ledger.Update(ctx, &next); err != nil {
			return fmt.Errorf("update entry at %s: %w", step, err)
		}
		step = stepAppliedNew
		balances[target.ID] = applied
		entry = &next
		e.log.Debug().Str("entry_id", id).Str("step", string(step)).Msg("entry updated")
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.afterCommit(ctx, entity.EventEntryUpdated, entry, balances)
	return entry, nil
}

// DeleteEntry elimina un registro y revierte su efecto en el saldo del producto.
// expect, si viene, debe coincidir con la dirección del registro.
func (e *StockEngine) DeleteEntry(ctx context.Context, id string, expect entity.Direction) error {
	if id == "" {
		return domain.Reject(domain.ErrInvalidInput, "entry id is required")
	}
	var (
		entry    *entity.LedgerEntry
		balances map[string]int64
	)
	err := e.mutate(ctx, "delete_entry", func(products repository.ProductRepository, ledger repository.LedgerRepository) error {
		old, err := lockEntry(ctx, ledger, id, expect)
		if err != nil {
			return err
		}
		p, err := lockProduct(ctx, products, old.ProductID)
		if err != nil {
			return err
		}
		balance := inventory.Reverse(p.RunningBalance, old)
		if err := ledger.Delete(ctx, old.ID); err != nil {
			return err
		}
		if err := products.UpdateBalance(ctx, p.ID, balance, p.Version); err != nil {
			return err
		}
		entry = old
		balances = map[string]int64{p.ID: balance}
		return nil
	})
	if err != nil {
		return err
	}
	e.afterCommit(ctx, entity.EventEntryDeleted, entry, balances)
	return nil
}

// GetEntry devuelve un registro. expect, si viene, debe coincidir con su dirección.
func (e *StockEngine) GetEntry(ctx context.Context, id string, expect entity.Direction) (*entity.LedgerEntry, error) {
	entry, err := e.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil || (expect != "" && entry.Direction != expect) {
		return nil, entryNotFound(id)
	}
	return entry, nil
}

// StockAt reconstruye el stock de un producto en date a partir del stock inicial y el libro.
// Nunca consulta RunningBalance.
func (e *StockEngine) StockAt(ctx context.Context, productID string, date time.Time) (int64, error) {
	p, err := e.products.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, productNotFound(productID)
	}
	totals, err := e.ledger.TotalsUntil(ctx, p.ID, entity.Date(date))
	if err != nil {
		return 0, err
	}
	return inventory.StockAt(p.InitialStock, totals), nil
}

// Levels reconstruye el stock de todos los productos en date con una sola agregación del libro.
func (e *StockEngine) Levels(ctx context.Context, date time.Time) ([]entity.StockLevel, error) {
	day := entity.Date(date)
	products, err := e.products.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := e.ledger.TotalsByProductUntil(ctx, day)
	if err != nil {
		return nil, err
	}
	levels := make([]entity.StockLevel, 0, len(products))
	for _, p := range products {
		stock := inventory.StockAt(p.InitialStock, totals[p.ID])
		levels = append(levels, entity.StockLevel{
			ProductID: p.ID,
			Name:      p.Name,
			Spec:      p.Spec,
			Unit:      p.Unit,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Date:      day,
			Stock:     stock,
			Value:     p.StockValue(stock),
		})
	}
	return levels, nil
}

// BulkStockAt es StockAt para todos los productos a la vez.
func (e *StockEngine) BulkStockAt(ctx context.Context, date time.Time) (map[string]int64, error) {
	levels, err := e.Levels(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(levels))
	for _, l := range levels {
		out[l.ProductID] = l.Stock
	}
	return out, nil
}

// mutate ejecuta fn en una transacción y la reintenta mientras el almacén reporte ErrConflict.
func (e *StockEngine) mutate(ctx context.Context, op string, fn func(repository.ProductRepository, repository.LedgerRepository) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = e.txRunner.Run(ctx, fn)
		if err == nil || !domain.Retryable(err) || attempt > e.retries || ctx.Err() != nil {
			break
		}
		e.metrics.IncConflictRetry()
		e.log.Warn().Err(err).Str("operation", op).Int("attempt", attempt).Msg("concurrent modification, retrying")
	}
	result := "ok"
	if err != nil {
		result = string(domain.KindOf(err))
		if errors.Is(err, domain.ErrConflict) {
			err = domain.Wrap(domain.ErrConflict, "the product was modified concurrently, try again", err)
		}
	}
	e.metrics.ObserveMutation(op, result)
	return err
}

// afterCommit ejecuta los efectos de una mutación confirmada. Las fallas solo se registran.
// Si el llamador se va después del commit no se cancelan.
func (e *StockEngine) afterCommit(ctx context.Context, eventType string, entry *entity.LedgerEntry, balances map[string]int64) {
	ctx = context.WithoutCancel(ctx)
	if e.stats != nil {
		if err := e.stats.InvalidateStats(ctx); err != nil {
			e.log.Error().Err(err).Str("entry_id", entry.ID).Msg("invalidate stats cache")
		}
	}
	if e.events != nil {
		event := entity.MovementEvent{
			Type:       eventType,
			EntryID:    entry.ID,
			Direction:  entry.Direction,
			ProductID:  entry.ProductID,
			Quantity:   entry.Quantity,
			Date:       entry.Date,
			Balances:   balances,
			OccurredAt: e.now().UTC(),
		}
		if err := e.events.Publish(ctx, event); err != nil {
			e.log.Error().Err(err).Str("entry_id", entry.ID).Str("event", eventType).Msg("publish movement event")
		}
	}
}

func (e *StockEngine) dateOrToday(d time.Time) time.Time {
	if d.IsZero() {
		return e.Today()
	}
	return entity.Date(d)
}

func validateMovement(productID string, quantity int64) error {
	if strings.TrimSpace(productID) == "" {
		return domain.Reject(domain.ErrInvalidInput, "product id is required")
	}
	if quantity <= 0 {
		return domain.Reject(domain.ErrInvalidInput, "quantity must be positive")
	}
	return nil
}

func applyUpdate(next entity.LedgerEntry, upd EntryUpdate) (entity.LedgerEntry, error) {
	if next.Direction == entity.DirectionInbound && (upd.Recipient != nil || upd.Paid != nil) {
		return next, domain.Reject(domain.ErrInvalidInput, "recipient and payment status apply to outbound entries only")
	}
	if upd.ProductID != nil {
		next.ProductID = strings.TrimSpace(*upd.ProductID)
	}
	if upd.Quantity != nil {
		next.Quantity = *upd.Quantity
	}
	if upd.Date != nil && !upd.Date.IsZero() {
		next.Date = entity.Date(*upd.Date)
	}
	if upd.Recipient != nil {
		r := strings.TrimSpace(*upd.Recipient)
		if r == "" {
			return next, domain.Reject(domain.ErrInvalidInput, "recipient is required")
		}
		next.RecipientName = r
	}
	if upd.Paid != nil {
		next.Paid = *upd.Paid
	}
	return next, nil
}

func lockEntry(ctx context.Context, ledger repository.LedgerRepository, id string, expect entity.Direction) (*entity.LedgerEntry, error) {
	entry, err := ledger.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil || (expect != "" && entry.Direction != expect) {
		return nil, entryNotFound(id)
	}
	return entry, nil
}

func lockProduct(ctx context.Context, products repository.ProductRepository, id string) (*entity.Product, error) {
	p, err := products.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, productNotFound(id)
	}
	return p, nil
}

// lockProducts bloquea los productos en orden ascendente de id; dos actualizaciones sobre
// el mismo par no pueden caer en deadlock.
func lockProducts(ctx context.Context, products repository.ProductRepository, ids ...string) (map[string]*entity.Product, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Strings(unique)
	locked := make(map[string]*entity.Product, len(unique))
	for _, id := range unique {
		p, err := lockProduct(ctx, products, id)
		if err != nil {
			return nil, err
		}
		locked[id] = p
	}
	return locked, nil
}

func insufficient(p *entity.Product, available, requested int64) error {
	return domain.Reject(domain.ErrInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: requested %d, available %d", p.Name, requested, available))
}

func productNotFound(id string) error {
	return domain.Reject(domain.ErrNotFound, fmt.Sprintf("product %s not found", id))
}

func entryNotFound(id string) error {
	return domain.Reject(domain.ErrNotFound, fmt.Sprintf("ledger entry %s not found", id))
}
