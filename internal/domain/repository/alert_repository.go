package repository

import (
	"context"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// AlertFilter filtros de consulta de alertas; campos vacíos no filtran.
type AlertFilter struct {
	IsResolved  *bool
	AlertType   entity.AlertType
	Priority    entity.AlertPriority
	ProductID   string
	WarehouseID string
	Limit       int
	Offset      int
}

// AlertRepository define el puerto de persistencia para alertas de inventario.
type AlertRepository interface {
	FindOpen(ctx context.Context, productID, warehouseID string, t entity.AlertType) (*entity.InventoryAlert, error)
	// FindLatest última alerta del tipo, resuelta o no.
	FindLatest(ctx context.Context, productID, warehouseID string, t entity.AlertType) (*entity.InventoryAlert, error)
	// Create devuelve false sin error si ya existe una alerta abierta para (producto, bodega, tipo).
	Create(ctx context.Context, a *entity.InventoryAlert) (bool, error)
	Update(ctx context.Context, a *entity.InventoryAlert) error
	GetByID(ctx context.Context, id string) (*entity.InventoryAlert, error)
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryAlert, error)
	List(ctx context.Context, f AlertFilter) ([]*entity.InventoryAlert, error)
}
