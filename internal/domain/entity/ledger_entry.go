package entity

import (
	"time"
)

// Direction distingue los registros del libro.
type Direction string

const (
	DirectionInbound  Direction = "IN"  // recepción
	DirectionOutbound Direction = "OUT" // despacho
)

// Valid indica si d es una de las direcciones conocidas.
func (d Direction) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// LedgerEntry es un movimiento sobre un producto. RecipientName y Paid solo aplican
// a las salidas.
type LedgerEntry struct {
	ID            string
	ProductID     string
	Direction     Direction
	Quantity      int64
	Date          time.Time // fecha calendario, medianoche UTC
	ImageSnapshot string
	RecipientName string
	Paid          bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Delta es el efecto con signo del registro sobre el saldo de su producto.
func (e *LedgerEntry) Delta() int64 {
	if e.Direction == DirectionOutbound {
		return -e.Quantity
	}
	return e.Quantity
}

// LedgerRow es un registro del libro unido a los atributos de su producto, tal como lo devuelven los listados.
// Los campos del producto quedan vacíos si la fila del producto ya no existe.
type LedgerRow struct {
	LedgerEntry
	ProductName string
	ProductSpec string
	ProductUnit string
}

// Date trunca t a su fecha calendario UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
