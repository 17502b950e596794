package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es un artículo en inventario. InitialStock queda fijo una vez dado de alta;
// RunningBalance es el stock actual cacheado para las escrituras y solo lo cambia el
// motor de inventario. Version se incrementa en cada escritura del saldo.
type Product struct {
	ID             string
	Name           string
	Spec           string // variante o especificación; vacío si el producto no tiene
	Unit           string
	InitialStock   int64
	Price          decimal.Decimal
	RunningBalance int64
	Version        int64
	ImageURL       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StockValue devuelve price * max(0, stock).
func (p *Product) StockValue(stock int64) decimal.Decimal {
	if stock <= 0 {
		return decimal.Zero
	}
	return p.Price.Mul(decimal.NewFromInt(stock))
}
