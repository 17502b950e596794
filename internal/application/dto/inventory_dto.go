package dto

import "time"

// InboundRequest cuerpo de POST /api/inbounds. Date por defecto es hoy.
type InboundRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// OutboundRequest cuerpo de POST /api/outbounds. PaymentStatus es 0 (sin pagar) o 1 (pagado).
type OutboundRequest struct {
	ProductID     string `json:"product_id" validate:"required,uuid"`
	Quantity      int64  `json:"quantity" validate:"required,gt=0"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	RecipientName string `json:"recipient_name" validate:"required,max=200"`
	PaymentStatus *int   `json:"payment_status" validate:"omitempty,oneof=0 1"`
}

// UpdateEntryRequest cuerpo de PUT /api/inbounds/{id} y /api/outbounds/{id}. Los campos omitidos
// conservan su valor; un product_id distinto reasigna el registro.
type UpdateEntryRequest struct {
	ProductID     *string `json:"product_id" validate:"omitempty,uuid"`
	Quantity      *int64  `json:"quantity" validate:"omitempty,gt=0"`
	Date          *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	RecipientName *string `json:"recipient_name" validate:"omitempty,min=1,max=200"`
	PaymentStatus *int    `json:"payment_status" validate:"omitempty,oneof=0 1"`
}

// LedgerEntryResponse es un registro del libro. Los campos del producto se llenan en listados.
type LedgerEntryResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Direction     string    `json:"direction"`
	Quantity      int64     `json:"quantity"`
	Date          string    `json:"date"`
	ImageSnapshot string    `json:"image_snapshot,omitempty"`
	RecipientName string    `json:"recipient_name,omitempty"`
	PaymentStatus *int      `json:"payment_status,omitempty"`
	ProductName   string    `json:"product_name,omitempty"`
	ProductSpec   string    `json:"product_spec,omitempty"`
	ProductUnit   string    `json:"product_unit,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LedgerListResponse es una página de registros y el nivel de consulta que la sirvió.
type LedgerListResponse struct {
	Items []LedgerEntryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
	Tier  string                `json:"tier"`
}

// MovementTotalResponse es la cantidad sumada de una dirección en un rango de fechas.
type MovementTotalResponse struct {
	Direction string `json:"direction"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Quantity  int64  `json:"quantity"`
}

// TrendPointDTO es la cantidad sumada de una dirección en una fecha.
type TrendPointDTO struct {
	Date     string `json:"date"`
	Quantity int64  `json:"quantity"`
}

// TrendResponse es una serie diaria rellena con ceros, la más antigua primero.
type TrendResponse struct {
	Direction string          `json:"direction"`
	Days      int             `json:"days"`
	Points    []TrendPointDTO `json:"points"`
}
