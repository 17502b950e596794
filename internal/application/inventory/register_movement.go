package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
)

// ParseDate lee una fecha de la API. Un string vacío da el tiempo cero.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return time.Time{}, domain.Reject(domain.ErrInvalidInput, "date must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

// RecordInboundFromRequest adapta el cuerpo HTTP a RecordInbound.
func (e *StockEngine) RecordInboundFromRequest(ctx context.Context, in dto.InboundRequest) (*dto.LedgerEntryResponse, error) {
	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	entry, err := e.RecordInbound(ctx, InboundInput{ProductID: in.ProductID, Quantity: in.Quantity, Date: date})
	if err != nil {
		return nil, err
	}
	out := ToLedgerEntryResponse(entry)
	return &out, nil
}

// RecordOutboundFromRequest adapta el cuerpo HTTP a RecordOutbound. Sin estado de pago
// se toma como no pagado.
func (e *StockEngine) RecordOutboundFromRequest(ctx context.Context, in dto.OutboundRequest) (*dto.LedgerEntryResponse, error) {
	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	entry, err := e.RecordOutbound(ctx, OutboundInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Date:      date,
		Recipient: in.RecipientName,
		Paid:      in.PaymentStatus != nil && *in.PaymentStatus == 1,
	})
	if err != nil {
		return nil, err
	}
	out := ToLedgerEntryResponse(entry)
	return &out, nil
}

// UpdateEntryFromRequest adapta el cuerpo HTTP a UpdateEntry para un registro de dirección dir.
func (e *StockEngine) UpdateEntryFromRequest(ctx context.Context, dir entity.Direction, id string, in dto.UpdateEntryRequest) (*dto.LedgerEntryResponse, error) {
	upd := EntryUpdate{
		Expect:    dir,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Recipient: in.RecipientName,
	}
	if in.Date != nil {
		date, err := ParseDate(*in.Date)
		if err != nil {
			return nil, err
		}
		upd.Date = &date
	}
	if in.PaymentStatus != nil {
		paid := *in.PaymentStatus == 1
		upd.Paid = &paid
	}
	entry, err := e.UpdateEntry(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	out := ToLedgerEntryResponse(entry)
	return &out, nil
}

// ToLedgerEntryResponse mapea un registro a su forma en la API.
func ToLedgerEntryResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	out := dto.LedgerEntryResponse{
		ID:            e.ID,
		ProductID:     e.ProductID,
		Direction:     string(e.Direction),
		Quantity:      e.Quantity,
		Date:          e.Date.Format(dto.DateLayout),
		ImageSnapshot: e.ImageSnapshot,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.Direction == entity.DirectionOutbound {
		status := 0
		if e.Paid {
			status = 1
		}
		out.RecipientName = e.RecipientName
		out.PaymentStatus = &status
	}
	return out
}

// ToLedgerListResponse mapea un resultado de listado a su forma en la API.
func ToLedgerListResponse(res *ListResult, limit, offset int) dto.LedgerListResponse {
	items := make([]dto.LedgerEntryResponse, 0, len(res.Page.Rows))
	for i := range res.Page.Rows {
		row := res.Page.Rows[i]
		item := ToLedgerEntryResponse(&row.LedgerEntry)
		item.ProductName = row.ProductName
		item.ProductSpec = row.ProductSpec
		item.ProductUnit = row.ProductUnit
		items = append(items, item)
	}
	return dto.LedgerListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: res.Page.Total},
		Tier:  res.Tier.String(),
	}
}
