// Package analytics sirve cifras derivadas: estadísticas del dashboard a través del caché
// de agregados y reportes de stock por fecha reconstruidos desde el libro.
package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

// DashboardUseCase calcula las estadísticas del dashboard.
//
// Cada cifra se guarda en el pool de estadísticas con clave del día que describe y se
// reconstruye desde el libro en un fallo de caché; nunca se lee RunningBalance.
type DashboardUseCase struct {
	engine   *inventory.StockEngine
	products repository.ProductRepository
	ledger   repository.LedgerRepository
	cache    *AggregateCache
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(
	engine *inventory.StockEngine,
	products repository.ProductRepository,
	ledger repository.LedgerRepository,
	cache *AggregateCache,
) *DashboardUseCase {
	return &DashboardUseCase{engine: engine, products: products, ledger: ledger, cache: cache}
}

type stockSummary struct {
	TotalStock int64           `json:"total_stock"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// GetStats devuelve cantidad de productos, stock total, valor del stock y salidas de hoy.
// Las tres fuentes se leen en paralelo.
func (uc *DashboardUseCase) GetStats(ctx context.Context) (*dto.DashboardStatsDTO, error) {
	var (
		count   int64
		summary stockSummary
		out     int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = Fetch(gctx, uc.cache, PoolStats, "product_count", uc.products.Count)
		if err != nil {
			return fmt.Errorf("dashboard: conteo de productos: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		summary, err = uc.stockSummary(gctx)
		if err != nil {
			return fmt.Errorf("dashboard: resumen de stock: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		out, err = uc.TodayOutbound(gctx)
		if err != nil {
			return fmt.Errorf("dashboard: salidas de hoy: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dto.DashboardStatsDTO{
		ProductCount:  count,
		TotalStock:    summary.TotalStock,
		StockValue:    summary.StockValue.Round(2),
		TodayOutbound: out,
	}, nil
}

// TodayOutbound devuelve la cantidad de salidas con fecha de hoy.
func (uc *DashboardUseCase) TodayOutbound(ctx context.Context) (int64, error) {
	today := uc.engine.Today()
	return Fetch(ctx, uc.cache, PoolStats, "today_outbound:"+today.Format(dto.DateLayout), func(ctx context.Context) (int64, error) {
		return uc.ledger.SumBetween(ctx, entity.DirectionOutbound, today, today)
	})
}

func (uc *DashboardUseCase) stockSummary(ctx context.Context) (stockSummary, error) {
	today := uc.engine.Today()
	return Fetch(ctx, uc.cache, PoolStats, "stock_summary:"+today.Format(dto.DateLayout), func(ctx context.Context) (stockSummary, error) {
		levels, err := uc.engine.Levels(ctx, today)
		if err != nil {
			return stockSummary{}, err
		}
		s := stockSummary{StockValue: decimal.Zero}
		for _, l := range levels {
			s.TotalStock += l.Stock
			s.StockValue = s.StockValue.Add(l.Value)
		}
		return s, nil
	})
}
