package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shelf-inventory/internal/application/analytics"
	"github.com/jhoicas/shelf-inventory/internal/application/auth"
	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/application/usecase"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
)

// RouterDeps son las dependencias de las rutas de la API.
type RouterDeps struct {
	ProductUC     *usecase.ProductUseCase
	Engine        *inventory.StockEngine
	Lister        *inventory.LedgerLister
	Replenishment *inventory.ReplenishmentUseCase
	Dashboard     *analytics.DashboardUseCase
	Reports       *analytics.StockReportUseCase
	AdminUC       *auth.AdminUseCase
	JWTSecret     string
	RequireAuth   bool // las mutaciones exigen token bearer
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	guard := optionalAuth(deps.RequireAuth, deps.JWTSecret)

	authHandler := NewAuthHandler(deps.AdminUC)
	api.Post("/admin/login", authHandler.Login)
	api.Get("/admin/check/:username", authHandler.Check)
	api.Get("/admin/:username", authHandler.Profile)

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Replenishment)
	products.Get("/", productHandler.List)
	products.Get("/options", productHandler.Options)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", guard, productHandler.Create)
	products.Put("/:id", guard, productHandler.Update)
	products.Delete("/:id", guard, productHandler.Delete)

	for path, dir := range map[string]entity.Direction{
		"/inbounds":  entity.DirectionInbound,
		"/outbounds": entity.DirectionOutbound,
	} {
		group := api.Group(path)
		h := NewLedgerHandler(dir, deps.Engine, deps.Lister, deps.Reports)
		group.Get("/", h.List)
		group.Get("/total", h.Total)
		group.Get("/today", h.Today)
		group.Get("/trend", h.Trend)
		group.Get("/:id", h.GetByID)
		group.Post("/", guard, h.Create)
		group.Put("/:id", guard, h.Update)
		group.Delete("/:id", guard, h.Delete)
	}

	dashboard := NewDashboardHandler(deps.Dashboard, deps.Reports)
	api.Get("/stats/dashboard", dashboard.GetStats)
	stock := api.Group("/stock")
	stock.Get("/history", dashboard.History)
	stock.Get("/history/:id", dashboard.HistoryFor)
	stock.Get("/date-range", dashboard.DateRange)
}
