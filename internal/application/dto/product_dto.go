package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// CreateProductRequest alta de un producto del catálogo. Cost inicia en 0 y solo cambia con entradas.
type CreateProductRequest struct {
	ID           string           `json:"id" validate:"omitempty,max=100"`
	SKU          string           `json:"sku" validate:"required,min=1,max=100"`
	Name         string           `json:"name" validate:"required,min=1,max=200"`
	UnitMeasure  string           `json:"unit_measure" validate:"omitempty,max=20"`
	MinimumStock decimal.Decimal  `json:"minimum_stock"`
	MaximumStock *decimal.Decimal `json:"maximum_stock,omitempty"`
}

// UpdateThresholdsRequest nuevos umbrales de alerta (maximum_stock ausente = sin máximo).
type UpdateThresholdsRequest struct {
	MinimumStock decimal.Decimal  `json:"minimum_stock"`
	MaximumStock *decimal.Decimal `json:"maximum_stock,omitempty"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string           `json:"id"`
	SKU          string           `json:"sku"`
	Name         string           `json:"name"`
	UnitMeasure  string           `json:"unit_measure"`
	Cost         decimal.Decimal  `json:"cost"`
	MinimumStock decimal.Decimal  `json:"minimum_stock"`
	MaximumStock *decimal.Decimal `json:"maximum_stock,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ProductFromEntity convierte la entidad a respuesta.
func ProductFromEntity(p *entity.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		UnitMeasure:  p.UnitMeasure,
		Cost:         p.Cost,
		MinimumStock: p.MinimumStock,
		MaximumStock: p.MaximumStock,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
