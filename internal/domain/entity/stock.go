package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementTotals guarda las cantidades sumadas del libro de un producto hasta un corte.
type MovementTotals struct {
	Inbound  int64
	Outbound int64
}

// StockLevel es el stock reconstruido de un producto en una fecha.
type StockLevel struct {
	ProductID string
	Name      string
	Spec      string
	Unit      string
	Price     decimal.Decimal
	ImageURL  string
	Date      time.Time
	Stock     int64
	Value     decimal.Decimal
}

// DailyTotal es la cantidad sumada de una dirección en una fecha calendario.
type DailyTotal struct {
	Date     time.Time
	Quantity int64
}
