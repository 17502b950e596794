package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest cuerpo de POST /api/products.
type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Spec         string          `json:"spec" validate:"max=100"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	InitialStock int64           `json:"initial_stock" validate:"gte=0"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url" validate:"omitempty,max=500"`
}

// UpdateProductRequest cuerpo de PUT /api/products/{id}. Los campos de stock no se escriben.
type UpdateProductRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Spec     *string          `json:"spec" validate:"omitempty,max=100"`
	Unit     *string          `json:"unit" validate:"omitempty,min=1,max=20"`
	Price    *decimal.Decimal `json:"price"`
	ImageURL *string          `json:"image_url" validate:"omitempty,max=500"`
}

// ProductResponse es un producto.
type ProductResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Spec           string          `json:"spec"`
	Unit           string          `json:"unit"`
	InitialStock   int64           `json:"initial_stock"`
	Price          decimal.Decimal `json:"price"`
	RunningBalance int64           `json:"running_balance"`
	ImageURL       string          `json:"image_url,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProductListResponse es una página de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ProductOptionDTO es la forma liviana del producto para selectores.
type ProductOptionDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Spec string `json:"spec"`
	Unit string `json:"unit"`
}
