package entity

import "time"

// AlertType condición de stock vigilada por el evaluador.
type AlertType string

const (
	AlertTypeLowStock     AlertType = "low_stock"
	AlertTypeOutOfStock   AlertType = "out_of_stock"
	AlertTypeOverstock    AlertType = "overstock"
	AlertTypeExpiringSoon AlertType = "expiring_soon"
	AlertTypeExpired      AlertType = "expired"
)

// Valid indica si el tipo de alerta es conocido.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeLowStock, AlertTypeOutOfStock, AlertTypeOverstock,
		AlertTypeExpiringSoon, AlertTypeExpired:
		return true
	}
	return false
}

// AlertPriority prioridad de la alerta.
type AlertPriority string

const (
	AlertPriorityLow      AlertPriority = "low"
	AlertPriorityMedium   AlertPriority = "medium"
	AlertPriorityHigh     AlertPriority = "high"
	AlertPriorityCritical AlertPriority = "critical"
)

// Prefijos de las notas de resolución; otras herramientas filtran por ellos.
const (
	AutoResolvedPrefix   = "Auto-resuelto"
	ManualResolvedPrefix = "Resuelto manualmente"
)

// InventoryAlert alerta de stock. A lo sumo una sin resolver por (producto, bodega, tipo).
// Producto y bodega son referencias débiles (solo id).
type InventoryAlert struct {
	ID              string
	ProductID       string
	WarehouseID     string
	AlertType       AlertType
	Priority        AlertPriority
	Message         string
	IsResolved      bool
	ResolvedAt      *time.Time
	ResolvedBy      string
	ResolutionNotes string
	// SuppressReopen se activa con una resolución manual: mientras la condición persista
	// el evaluador no abre otra alerta del mismo tipo.
	SuppressReopen bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
