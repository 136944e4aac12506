package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product insumo externo del núcleo: umbrales de stock y costo promedio ponderado.
type Product struct {
	ID           string
	SKU          string
	Name         string
	UnitMeasure  string
	Cost         decimal.Decimal  // costo promedio ponderado (inicia en 0)
	MinimumStock decimal.Decimal  // 0 = sin mínimo
	MaximumStock *decimal.Decimal // nil = sin máximo
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
