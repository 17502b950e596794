package dto

import "github.com/shopspring/decimal"

// DashboardStatsDTO respuesta de GET /api/stats/dashboard.
type DashboardStatsDTO struct {
	ProductCount  int64           `json:"product_count"`
	TotalStock    int64           `json:"total_stock"`
	StockValue    decimal.Decimal `json:"stock_value"` // Σ price * max(0, stock)
	TodayOutbound int64           `json:"today_outbound"`
}

// StockLevelDTO es el stock reconstruido de un producto en una fecha.
type StockLevelDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Spec      string          `json:"spec"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url,omitempty"`
	Date      string          `json:"date"`
	Stock     int64           `json:"stock"`
	Value     decimal.Decimal `json:"value"`
}

// StockHistoryDTO respuesta de GET /api/stock/history.
type StockHistoryDTO struct {
	Date       string          `json:"date"`
	Items      []StockLevelDTO `json:"items"`
	TotalStock int64           `json:"total_stock"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// StockDateRangeDTO es el rango de fechas con historial de stock.
type StockDateRangeDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// LowStockDTO respuesta de GET /api/products/low-stock.
type LowStockDTO struct {
	Threshold int64           `json:"threshold"`
	Items     []StockLevelDTO `json:"items"`
}
