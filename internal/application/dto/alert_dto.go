package dto

import (
	"time"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// AlertListRequest filtros del listado de alertas.
type AlertListRequest struct {
	Limit       int    `json:"limit" validate:"min=0,max=100"`
	Offset      int    `json:"offset" validate:"min=0"`
	IsResolved  *bool  `json:"is_resolved"`
	AlertType   string `json:"alert_type" validate:"omitempty,oneof=low_stock out_of_stock overstock expiring_soon expired"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
}

// ResolveAlertRequest notas de la resolución manual.
type ResolveAlertRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

// EvaluateAlertsRequest reevaluación de un producto en una bodega.
type EvaluateAlertsRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
}

// AlertResponse salida de una alerta.
type AlertResponse struct {
	ID              string     `json:"id"`
	ProductID       string     `json:"product_id"`
	WarehouseID     string     `json:"warehouse_id"`
	AlertType       string     `json:"alert_type"`
	Priority        string     `json:"priority"`
	Message         string     `json:"message"`
	IsResolved      bool       `json:"is_resolved"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AlertListResponse lista paginada de alertas.
type AlertListResponse struct {
	Items []AlertResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// AlertFromEntity mapea una alerta a su salida.
func AlertFromEntity(a *entity.InventoryAlert) AlertResponse {
	return AlertResponse{
		ID:              a.ID,
		ProductID:       a.ProductID,
		WarehouseID:     a.WarehouseID,
		AlertType:       string(a.AlertType),
		Priority:        string(a.Priority),
		Message:         a.Message,
		IsResolved:      a.IsResolved,
		ResolvedAt:      a.ResolvedAt,
		ResolvedBy:      a.ResolvedBy,
		ResolutionNotes: a.ResolutionNotes,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// AlertsFromEntities mapea varias alertas.
func AlertsFromEntities(as []*entity.InventoryAlert) []AlertResponse {
	out := make([]AlertResponse, 0, len(as))
	for _, a := range as {
		out = append(out, AlertFromEntity(a))
	}
	return out
}
