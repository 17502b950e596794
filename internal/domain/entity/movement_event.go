package entity

import "time"

// Tipos de evento de movimiento publicados tras confirmar una mutación del libro.
const (
	EventEntryRecorded = "ledger.entry.recorded"
	EventEntryUpdated  = "ledger.entry.updated"
	EventEntryDeleted  = "ledger.entry.deleted"
)

// MovementEvent describe una mutación confirmada del libro y los saldos que dejó.
type MovementEvent struct {
	Type       string           `json:"type"`
	EntryID    string           `json:"entry_id"`
	Direction  Direction        `json:"direction"`
	ProductID  string           `json:"product_id"`
	Quantity   int64            `json:"quantity"`
	Date       time.Time        `json:"date"`
	Balances   map[string]int64 `json:"balances"`
	OccurredAt time.Time        `json:"occurred_at"`
}
