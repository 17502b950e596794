package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
)

// DefaultLowStockThreshold se usa cuando el llamador no envía umbral.
const DefaultLowStockThreshold = 10

// ReplenishmentUseCase lista los productos que necesitan reposición.
type ReplenishmentUseCase struct {
	engine *StockEngine
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(engine *StockEngine) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{engine: engine}
}

// LowStock devuelve los productos cuyo stock de hoy está bajo el umbral, el menor primero.
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context, threshold int64) (*dto.LowStockDTO, error) {
	if threshold < 0 {
		return nil, domain.Reject(domain.ErrInvalidInput, "threshold must not be negative")
	}
	levels, err := uc.engine.Levels(ctx, uc.engine.Today())
	if err != nil {
		return nil, err
	}
	low := make([]entity.StockLevel, 0)
	for _, l := range levels {
		if l.Stock < threshold {
			low = append(low, l)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		if low[i].Stock != low[j].Stock {
			return low[i].Stock < low[j].Stock
		}
		return low[i].Name < low[j].Name
	})
	items := make([]dto.StockLevelDTO, 0, len(low))
	for _, l := range low {
		items = append(items, ToStockLevelDTO(l))
	}
	return &dto.LowStockDTO{Threshold: threshold, Items: items}, nil
}

// ToStockLevelDTO mapea un nivel de stock reconstruido a su forma en la API.
func ToStockLevelDTO(l entity.StockLevel) dto.StockLevelDTO {
	return dto.StockLevelDTO{
		ProductID: l.ProductID,
		Name:      l.Name,
		Spec:      l.Spec,
		Unit:      l.Unit,
		Price:     l.Price,
		ImageURL:  l.ImageURL,
		Date:      l.Date.Format(dto.DateLayout),
		Stock:     l.Stock,
		Value:     l.Value,
	}
}
