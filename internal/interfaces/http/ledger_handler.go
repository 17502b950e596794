package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shelf-inventory/internal/application/analytics"
	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

// LedgerHandler atiende una dirección del libro: /api/inbounds o /api/outbounds.
type LedgerHandler struct {
	dir     entity.Direction
	engine  *inventory.StockEngine
	lister  *inventory.LedgerLister
	reports *analytics.StockReportUseCase
}

// NewLedgerHandler construye el handler para dir.
func NewLedgerHandler(dir entity.Direction, engine *inventory.StockEngine, lister *inventory.LedgerLister, reports *analytics.StockReportUseCase) *LedgerHandler {
	return &LedgerHandler{dir: dir, engine: engine, lister: lister, reports: reports}
}

// Create godoc
// @Summary      Record a movement
// @Description  POST /api/inbounds takes dto.InboundRequest; POST /api/outbounds takes dto.OutboundRequest and fails with 422 when stock is short.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OutboundRequest  true  "Movement"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/outbounds [post]
func (h *LedgerHandler) Create(c *fiber.Ctx) error {
	var (
		out *dto.LedgerEntryResponse
		err error
	)
	if h.dir == entity.DirectionInbound {
		var in dto.InboundRequest
		if err := parseBody(c, &in); err != nil {
			return writeError(c, err)
		}
		out, err = h.engine.RecordInboundFromRequest(c.UserContext(), in)
	} else {
		var in dto.OutboundRequest
		if err := parseBody(c, &in); err != nil {
			return writeError(c, err)
		}
		out, err = h.engine.RecordOutboundFromRequest(c.UserContext(), in)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Get a movement
// @Tags         ledger
// @Produce      json
// @Param        id   path  string  true  "Entry ID"
// @Success      200  {object}  dto.LedgerEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/outbounds/{id} [get]
func (h *LedgerHandler) GetByID(c *fiber.Ctx) error {
	entry, err := h.engine.GetEntry(c.UserContext(), c.Params("id"), h.dir)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToLedgerEntryResponse(entry))
}

// Update godoc
// @Summary      Update a movement
// @Description  A different product_id moves the entry to that product. Both balances change in one transaction.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Entry ID"
// @Param        body  body  dto.UpdateEntryRequest  true  "Fields to change"
// @Success      200   {object}  dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/outbounds/{id} [put]
func (h *LedgerHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateEntryRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.engine.UpdateEntryFromRequest(c.UserContext(), h.dir, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Delete a movement
// @Tags         ledger
// @Param        id   path  string  true  "Entry ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/outbounds/{id} [delete]
func (h *LedgerHandler) Delete(c *fiber.Ctx) error {
	if err := h.engine.DeleteEntry(c.UserContext(), c.Params("id"), h.dir); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List godoc
// @Summary      List movements
// @Description  Served by the first query tier that succeeds; the tier is reported in the response.
// @Tags         ledger
// @Produce      json
// @Param        product_id      query  string  false  "Product ID"
// @Param        product_name    query  string  false  "Product name substring"
// @Param        recipient       query  string  false  "Recipient substring (outbound)"
// @Param        payment_status  query  int     false  "0 | 1 (outbound)"
// @Param        start_date      query  string  false  "YYYY-MM-DD, inclusive"
// @Param        end_date        query  string  false  "YYYY-MM-DD, inclusive"
// @Param        sort            query  string  false  "date | createdAt | quantity | productId | paymentStatus"
// @Param        order           query  string  false  "asc | desc"
// @Param        limit           query  int     false  "Limit"   default(20)
// @Param        offset          query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LedgerListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/outbounds [get]
func (h *LedgerHandler) List(c *fiber.Ctx) error {
	q, err := h.parseListQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.lister.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToLedgerListResponse(res, q.Limit, q.Offset))
}

func (h *LedgerHandler) parseListQuery(c *fiber.Ctx) (repository.LedgerQuery, error) {
	var q repository.LedgerQuery
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	sort, err := repository.ParseSort(c.Query("sort"), c.Query("order"), repository.LedgerSortKeys, inventory.DefaultLedgerSort)
	if err != nil {
		return q, err
	}
	q = repository.LedgerQuery{
		Filter: repository.LedgerFilter{
			Direction:   h.dir,
			ProductID:   c.Query("product_id"),
			ProductName: c.Query("product_name"),
		},
		Sort:   sort,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if h.dir == entity.DirectionOutbound {
		q.Filter.Recipient = c.Query("recipient")
		if raw := c.Query("payment_status"); raw != "" {
			paid, err := parsePaymentStatus(raw)
			if err != nil {
				return q, err
			}
			q.Filter.Paid = &paid
		}
	}
	if q.Filter.From, err = optionalDate(c.Query("start_date")); err != nil {
		return q, err
	}
	if q.Filter.To, err = optionalDate(c.Query("end_date")); err != nil {
		return q, err
	}
	return q, nil
}

// Total godoc
// @Summary      Summed quantity over a date range
// @Tags         ledger
// @Produce      json
// @Param        start_date  query  string  true  "YYYY-MM-DD"
// @Param        end_date    query  string  true  "YYYY-MM-DD"
// @Success      200  {object}  dto.MovementTotalResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/outbounds/total [get]
func (h *LedgerHandler) Total(c *fiber.Ctx) error {
	from, err := requiredDate(c, "start_date")
	if err != nil {
		return writeError(c, err)
	}
	to, err := requiredDate(c, "end_date")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.reports.Total(c.UserContext(), h.dir, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Today godoc
// @Summary      Summed quantity dated today
// @Tags         ledger
// @Produce      json
// @Success      200  {object}  dto.MovementTotalResponse
// @Router       /api/outbounds/today [get]
func (h *LedgerHandler) Today(c *fiber.Ctx) error {
	today := h.engine.Today()
	out, err := h.reports.Total(c.UserContext(), h.dir, today, today)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Trend godoc
// @Summary      Daily totals for the last N days
// @Tags         ledger
// @Produce      json
// @Param        days  query  int  false  "Days (max 90)"  default(7)
// @Success      200  {object}  dto.TrendResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/outbounds/trend [get]
func (h *LedgerHandler) Trend(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", strconv.Itoa(analytics.DefaultTrendDays)))
	if err != nil {
		return badRequest(c, "days must be an integer")
	}
	out, err := h.reports.Trend(c.UserContext(), h.dir, days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func parsePaymentStatus(raw string) (bool, error) {
	switch raw {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, domain.Reject(domain.ErrInvalidInput, "payment_status must be 0 or 1")
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := inventory.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func requiredDate(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, domain.Reject(domain.ErrInvalidInput, key+" is required")
	}
	return inventory.ParseDate(raw)
}
