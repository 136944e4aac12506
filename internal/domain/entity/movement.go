package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo explícito del movimiento; se fija al contabilizar y nunca se infiere después.
type MovementType string

const (
	MovementTypePurchase      MovementType = "purchase"
	MovementTypeSale          MovementType = "sale"
	MovementTypeTransferIn    MovementType = "transfer_in"
	MovementTypeTransferOut   MovementType = "transfer_out"
	MovementTypeAdjustmentIn  MovementType = "adjustment_in"
	MovementTypeAdjustmentOut MovementType = "adjustment_out"
	MovementTypeDonation      MovementType = "donation"
	MovementTypeExpiry        MovementType = "expiry"
	MovementTypeReturn        MovementType = "return"
)

// Valid indica si el tipo pertenece al catálogo cerrado.
func (t MovementType) Valid() bool {
	return t.IsInbound() || t.IsOutbound()
}

// IsInbound tipos que suman al saldo (quantityIn).
func (t MovementType) IsInbound() bool {
	switch t {
	case MovementTypePurchase, MovementTypeTransferIn, MovementTypeAdjustmentIn,
		MovementTypeDonation, MovementTypeReturn:
		return true
	}
	return false
}

// IsOutbound tipos que restan del saldo (quantityOut).
func (t MovementType) IsOutbound() bool {
	switch t {
	case MovementTypeSale, MovementTypeTransferOut, MovementTypeAdjustmentOut, MovementTypeExpiry:
		return true
	}
	return false
}

// StockKey identifica una secuencia de saldo: producto + bodega + lote opcional.
type StockKey struct {
	ProductID   string
	WarehouseID string
	LotNumber   string
}

func (k StockKey) String() string {
	if k.LotNumber == "" {
		return fmt.Sprintf("%s@%s", k.ProductID, k.WarehouseID)
	}
	return fmt.Sprintf("%s@%s#%s", k.ProductID, k.WarehouseID, k.LotNumber)
}

// Less orden total entre llaves; se usa para tomar bloqueos siempre en el mismo orden.
func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.LotNumber < o.LotNumber
}

// SourceRef referencia al documento origen del movimiento (vacía para movimientos directos).
type SourceRef struct {
	DocumentType DocumentKind
	DocumentID   string
}

// IsZero indica que el movimiento no proviene de un documento.
func (r SourceRef) IsZero() bool { return r.DocumentID == "" }

// MovementRecord fila del libro de inventario. Inmutable: las correcciones son filas nuevas.
type MovementRecord struct {
	ID              int64
	ProductID       string
	WarehouseID     string
	LotNumber       string
	ExpirationDate  *time.Time
	Type            MovementType
	QuantityIn      decimal.Decimal
	QuantityOut     decimal.Decimal
	UnitCost        decimal.Decimal
	BalanceQuantity decimal.Decimal // saldo inmediatamente después de esta fila
	Source          SourceRef
	MovementDate    time.Time
	CreatedAt       time.Time
	CreatedBy       string
}

// Key devuelve la llave de saldo de la fila.
func (m MovementRecord) Key() StockKey {
	return StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID, LotNumber: m.LotNumber}
}

// TotalCost valorización de la fila (cantidad movida * costo unitario).
func (m MovementRecord) TotalCost() decimal.Decimal {
	return m.QuantityIn.Add(m.QuantityOut).Mul(m.UnitCost)
}

// BalanceState último estado conocido de una llave. Solo lo escribe el camino de append del libro,
// bajo el mismo bloqueo que inserta la fila, por lo que nunca diverge del último MovementRecord.
type BalanceState struct {
	Key              StockKey
	Balance          decimal.Decimal
	LastMovementID   int64
	LastMovementDate time.Time
	ExpirationDate   *time.Time
	UpdatedAt        time.Time
}

// HasMovements indica si la llave ya tiene filas en el libro.
func (s BalanceState) HasMovements() bool { return s.LastMovementID != 0 }
