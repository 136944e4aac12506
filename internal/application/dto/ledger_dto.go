package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// AppendMovementRequest movimiento directo sobre el libro (sin documento origen).
type AppendMovementRequest struct {
	ProductID      string          `json:"product_id" validate:"required"`
	WarehouseID    string          `json:"warehouse_id" validate:"required"`
	LotNumber      string          `json:"lot_number" validate:"max=100"`
	ExpirationDate *time.Time      `json:"expiration_date"`
	Type           string          `json:"type" validate:"required,oneof=purchase sale transfer_in transfer_out adjustment_in adjustment_out donation expiry return"`
	QuantityIn     decimal.Decimal `json:"quantity_in"`
	QuantityOut    decimal.Decimal `json:"quantity_out"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	MovementDate   *time.Time      `json:"movement_date"`
}

// MovementResponse fila del kardex.
type MovementResponse struct {
	ID                 int64           `json:"id"`
	ProductID          string          `json:"product_id"`
	WarehouseID        string          `json:"warehouse_id"`
	LotNumber          string          `json:"lot_number,omitempty"`
	ExpirationDate     *time.Time      `json:"expiration_date,omitempty"`
	Type               string          `json:"movement_type"`
	QuantityIn         decimal.Decimal `json:"quantity_in"`
	QuantityOut        decimal.Decimal `json:"quantity_out"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	BalanceQuantity    decimal.Decimal `json:"balance_quantity"`
	SourceDocumentType string          `json:"source_document_type,omitempty"`
	SourceDocumentID   string          `json:"source_document_id,omitempty"`
	MovementDate       time.Time       `json:"movement_date"`
	CreatedAt          time.Time       `json:"created_at"`
	CreatedBy          string          `json:"created_by"`
}

// LotBalance saldo de un lote (o de la llave sin lote).
type LotBalance struct {
	LotNumber        string          `json:"lot_number"`
	Balance          decimal.Decimal `json:"balance"`
	ExpirationDate   *time.Time      `json:"expiration_date,omitempty"`
	LastMovementDate time.Time       `json:"last_movement_date"`
}

// BalanceResponse saldo de producto en bodega, total y por lote.
type BalanceResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Total       decimal.Decimal `json:"total"`
	Lots        []LotBalance    `json:"lots"`
}

// KardexResponse historial cronológico de una llave. Truncated indica que se alcanzó el límite.
type KardexResponse struct {
	ProductID   string             `json:"product_id"`
	WarehouseID string             `json:"warehouse_id"`
	LotNumber   string             `json:"lot_number,omitempty"`
	Items       []MovementResponse `json:"items"`
	Truncated   bool               `json:"truncated"`
}

// MovementFromEntity mapea una fila del libro a su salida.
func MovementFromEntity(m entity.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:                 m.ID,
		ProductID:          m.ProductID,
		WarehouseID:        m.WarehouseID,
		LotNumber:          m.LotNumber,
		ExpirationDate:     m.ExpirationDate,
		Type:               string(m.Type),
		QuantityIn:         m.QuantityIn,
		QuantityOut:        m.QuantityOut,
		UnitCost:           m.UnitCost,
		TotalCost:          m.TotalCost(),
		BalanceQuantity:    m.BalanceQuantity,
		SourceDocumentType: string(m.Source.DocumentType),
		SourceDocumentID:   m.Source.DocumentID,
		MovementDate:       m.MovementDate,
		CreatedAt:          m.CreatedAt,
		CreatedBy:          m.CreatedBy,
	}
}

// MovementsFromEntities mapea varias filas.
func MovementsFromEntities(ms []entity.MovementRecord) []MovementResponse {
	out := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

// BalanceFromStates arma la salida de saldo a partir de los estados por lote.
func BalanceFromStates(productID, warehouseID string, total decimal.Decimal, states []entity.BalanceState) BalanceResponse {
	lots := make([]LotBalance, 0, len(states))
	for _, s := range states {
		lots = append(lots, LotBalance{
			LotNumber:        s.Key.LotNumber,
			Balance:          s.Balance,
			ExpirationDate:   s.ExpirationDate,
			LastMovementDate: s.LastMovementDate,
		})
	}
	return BalanceResponse{ProductID: productID, WarehouseID: warehouseID, Total: total, Lots: lots}
}
