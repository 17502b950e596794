package inventory

import "github.com/jhoicas/shelf-inventory/internal/domain/entity"

// StockAt es la fórmula del stock histórico: inicial + Σentradas − Σsalidas de los registros sumados en totals.
func StockAt(initialStock int64, totals entity.MovementTotals) int64 {
	return initialStock + totals.Inbound - totals.Outbound
}

// Reverse devuelve balance sin el efecto del registro.
func Reverse(balance int64, e *entity.LedgerEntry) int64 {
	return balance - e.Delta()
}

// Apply devuelve balance con el efecto del registro sumado.
func Apply(balance int64, e *entity.LedgerEntry) int64 {
	return balance + e.Delta()
}

// CanDispatch indica si una salida de quantity cabe en balance.
func CanDispatch(balance, quantity int64) bool {
	return quantity <= balance
}
