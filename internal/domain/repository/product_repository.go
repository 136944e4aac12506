package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// El libro solo lee umbrales y actualiza el costo promedio; el alta y los umbrales vienen del catálogo.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
	// UpdateThresholds reemplaza mínimo y máximo (max nil = sin máximo).
	UpdateThresholds(ctx context.Context, productID string, minStock decimal.Decimal, maxStock *decimal.Decimal) error
}
