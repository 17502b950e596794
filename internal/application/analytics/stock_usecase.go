package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

// Límites de la ventana de tendencia, en días.
const (
	DefaultTrendDays = 7
	MaxTrendDays     = 90
)

// StockReportUseCase responde consultas de stock por fecha y por día a partir del libro.
type StockReportUseCase struct {
	engine   *inventory.StockEngine
	products repository.ProductRepository
	ledger   repository.LedgerRepository
}

// NewStockReportUseCase construye el caso de uso.
func NewStockReportUseCase(
	engine *inventory.StockEngine,
	products repository.ProductRepository,
	ledger repository.LedgerRepository,
) *StockReportUseCase {
	return &StockReportUseCase{engine: engine, products: products, ledger: ledger}
}

// History devuelve el stock de cada producto en date. Fecha cero significa hoy.
func (uc *StockReportUseCase) History(ctx context.Context, date time.Time) (*dto.StockHistoryDTO, error) {
	if date.IsZero() {
		date = uc.engine.Today()
	}
	levels, err := uc.engine.Levels(ctx, date)
	if err != nil {
		return nil, err
	}
	out := &dto.StockHistoryDTO{
		Date:       entity.Date(date).Format(dto.DateLayout),
		Items:      make([]dto.StockLevelDTO, 0, len(levels)),
		TotalValue: decimal.Zero,
	}
	for _, l := range levels {
		out.Items = append(out.Items, inventory.ToStockLevelDTO(l))
		out.TotalStock += l.Stock
		out.TotalValue = out.TotalValue.Add(l.Value)
	}
	return out, nil
}

// HistoryFor devuelve el stock de un producto en date. Fecha cero significa hoy.
func (uc *StockReportUseCase) HistoryFor(ctx context.Context, productID string, date time.Time) (*dto.StockLevelDTO, error) {
	if date.IsZero() {
		date = uc.engine.Today()
	}
	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.Reject(domain.ErrNotFound, "product "+productID+" not found")
	}
	stock, err := uc.engine.StockAt(ctx, productID, date)
	if err != nil {
		return nil, err
	}
	out := inventory.ToStockLevelDTO(entity.StockLevel{
		ProductID: p.ID,
		Name:      p.Name,
		Spec:      p.Spec,
		Unit:      p.Unit,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Date:      entity.Date(date),
		Stock:     stock,
		Value:     p.StockValue(stock),
	})
	return &out, nil
}

// DateRange devuelve el rango desde el alta del primer producto hasta hoy.
func (uc *StockReportUseCase) DateRange(ctx context.Context) (*dto.StockDateRangeDTO, error) {
	today := uc.engine.Today()
	start := today
	earliest, err := uc.products.EarliestCreatedAt(ctx)
	if err != nil {
		return nil, err
	}
	if earliest != nil {
		start = entity.Date(*earliest)
	}
	return &dto.StockDateRangeDTO{
		StartDate: start.Format(dto.DateLayout),
		EndDate:   today.Format(dto.DateLayout),
	}, nil
}

// Total suma una dirección en [from, to].
func (uc *StockReportUseCase) Total(ctx context.Context, dir entity.Direction, from, to time.Time) (*dto.MovementTotalResponse, error) {
	if from.IsZero() || to.IsZero() {
		return nil, domain.Reject(domain.ErrInvalidInput, "start_date and end_date are required")
	}
	from, to = entity.Date(from), entity.Date(to)
	if from.After(to) {
		return nil, domain.Reject(domain.ErrInvalidInput, "date range start is after its end")
	}
	sum, err := uc.ledger.SumBetween(ctx, dir, from, to)
	if err != nil {
		return nil, err
	}
	return &dto.MovementTotalResponse{
		Direction: string(dir),
		StartDate: from.Format(dto.DateLayout),
		EndDate:   to.Format(dto.DateLayout),
		Quantity:  sum,
	}, nil
}

// Trend devuelve los totales diarios de una dirección en los últimos days días, hoy incluido,
// con cero en los días sin registros.
func (uc *StockReportUseCase) Trend(ctx context.Context, dir entity.Direction, days int) (*dto.TrendResponse, error) {
	if days == 0 {
		days = DefaultTrendDays
	}
	if days < 1 || days > MaxTrendDays {
		return nil, domain.Reject(domain.ErrInvalidInput, "days must be between 1 and 90")
	}
	to := uc.engine.Today()
	from := to.AddDate(0, 0, -(days - 1))
	totals, err := uc.ledger.DailyTotals(ctx, dir, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]int64, len(totals))
	for _, t := range totals {
		byDate[entity.Date(t.Date).Format(dto.DateLayout)] = t.Quantity
	}
	points := make([]dto.TrendPointDTO, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dto.DateLayout)
		points = append(points, dto.TrendPointDTO{Date: key, Quantity: byDate[key]})
	}
	return &dto.TrendResponse{Direction: string(dir), Days: days, Points: points}, nil
}
