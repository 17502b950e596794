package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/shelf-inventory/internal/application/analytics"
	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
)

// DashboardHandler atiende las estadísticas del dashboard y los reportes de stock.
type DashboardHandler struct {
	stats   *appanalytics.DashboardUseCase
	reports *appanalytics.StockReportUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(stats *appanalytics.DashboardUseCase, reports *appanalytics.StockReportUseCase) *DashboardHandler {
	return &DashboardHandler{stats: stats, reports: reports}
}

// GetStats godoc
// @Summary      Dashboard statistics
// @Description  Product count, total stock, stock value and today's outbound quantity. Cached briefly; every mutation invalidates them.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dto.DashboardStatsDTO
// @Router       /api/stats/dashboard [get]
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	out, err := h.stats.GetStats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Every product's stock on a date
// @Tags         stock
// @Produce      json
// @Param        date  query  string  false  "YYYY-MM-DD, defaults to today"
// @Success      200  {object}  dto.StockHistoryDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/history [get]
func (h *DashboardHandler) History(c *fiber.Ctx) error {
	date, err := inventory.ParseDate(c.Query("date"))
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.reports.History(c.UserContext(), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// HistoryFor godoc
// @Summary      One product's stock on a date
// @Tags         stock
// @Produce      json
// @Param        id    path   string  true   "Product ID"
// @Param        date  query  string  false  "YYYY-MM-DD, defaults to today"
// @Success      200  {object}  dto.StockLevelDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/history/{id} [get]
func (h *DashboardHandler) HistoryFor(c *fiber.Ctx) error {
	date, err := inventory.ParseDate(c.Query("date"))
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.reports.HistoryFor(c.UserContext(), c.Params("id"), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DateRange godoc
// @Summary      Dates with stock history
// @Tags         stock
// @Produce      json
// @Success      200  {object}  dto.StockDateRangeDTO
// @Router       /api/stock/date-range [get]
func (h *DashboardHandler) DateRange(c *fiber.Ctx) error {
	out, err := h.reports.DateRange(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
