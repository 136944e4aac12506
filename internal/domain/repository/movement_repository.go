package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// HistoryQuery página de la historia de una llave, ordenada por (movement_date, id).
// After* es el cursor keyset: se devuelven filas estrictamente posteriores.
type HistoryQuery struct {
	Key       entity.StockKey
	From      *time.Time
	To        *time.Time
	AfterDate time.Time
	AfterID   int64
	Limit     int
}

// MovementRepository puerto del libro de movimientos. Solo el camino de append del libro escribe aquí.
type MovementRepository interface {
	// LockKey bloquea la llave hasta el fin de la transacción y devuelve su último estado.
	// Una llave sin movimientos devuelve un estado con saldo cero.
	LockKey(ctx context.Context, key entity.StockKey) (*entity.BalanceState, error)
	// Insert asigna ID y CreatedAt y actualiza el estado de la llave. Requiere LockKey previo.
	Insert(ctx context.Context, m *entity.MovementRecord) error
	GetBalance(ctx context.Context, key entity.StockKey) (*entity.BalanceState, error)
	// LockPair serializa la evaluación de alertas de (producto, bodega) hasta el fin de la transacción.
	// Se toma siempre después de los bloqueos de llave.
	LockPair(ctx context.Context, productID, warehouseID string) error
	// ProductOnHand saldo del producto sumado en todas sus bodegas y lotes, visto por la transacción.
	ProductOnHand(ctx context.Context, productID string) (decimal.Decimal, error)
	// ListBalances estados de todos los lotes de (producto, bodega).
	ListBalances(ctx context.Context, productID, warehouseID string) ([]entity.BalanceState, error)
	ListHistory(ctx context.Context, q HistoryQuery) ([]entity.MovementRecord, error)
	ListBySource(ctx context.Context, src entity.SourceRef) ([]entity.MovementRecord, error)
}
