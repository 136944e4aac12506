package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL. La fila de stock_balances de cada llave
// es el bloqueo del append y el caché del último saldo.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, warehouse_id, lot_number, expiration_date, movement_type,
	quantity_in, quantity_out, unit_cost, balance_quantity, source_document_type, source_document_id,
	movement_date, created_at, created_by`

// LockKey crea la fila de saldo si no existe y la bloquea (SELECT FOR UPDATE).
func (r *MovementRepo) LockKey(ctx context.Context, key entity.StockKey) (*entity.BalanceState, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_balances (product_id, warehouse_id, lot_number)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, warehouse_id, lot_number) DO NOTHING`,
		key.ProductID, key.WarehouseID, key.LotNumber)
	if err != nil {
		return nil, mapError("lock key", err)
	}
	st, err := r.scanBalance(r.q.QueryRow(ctx, `
		SELECT product_id, warehouse_id, lot_number, balance, last_movement_id, last_movement_date, expiration_date, updated_at
		FROM stock_balances
		WHERE product_id = $1 AND warehouse_id = $2 AND lot_number = $3
		FOR UPDATE`,
		key.ProductID, key.WarehouseID, key.LotNumber))
	if err != nil {
		return nil, mapError("lock key", err)
	}
	return st, nil
}

// Insert agrega la fila y actualiza el estado de la llave en la misma transacción.
func (r *MovementRepo) Insert(ctx context.Context, m *entity.MovementRecord) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO inventory_movements (
			product_id, warehouse_id, lot_number, expiration_date, movement_type,
			quantity_in, quantity_out, unit_cost, balance_quantity,
			source_document_type, source_document_id, movement_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`,
		m.ProductID, m.WarehouseID, m.LotNumber, m.ExpirationDate, string(m.Type),
		m.QuantityIn, m.QuantityOut, m.UnitCost, m.BalanceQuantity,
		string(m.Source.DocumentType), m.Source.DocumentID, m.MovementDate, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return mapError("insert movement", err)
	}
	_, err = r.q.Exec(ctx, `
		UPDATE stock_balances
		SET balance = $4, last_movement_id = $5, last_movement_date = $6,
			expiration_date = COALESCE($7, expiration_date), updated_at = now()
		WHERE product_id = $1 AND warehouse_id = $2 AND lot_number = $3`,
		m.ProductID, m.WarehouseID, m.LotNumber, m.BalanceQuantity, m.ID, m.MovementDate, m.ExpirationDate)
	if err != nil {
		return mapError("update balance", err)
	}
	return nil
}

// GetBalance estado de la llave; nil si no tiene movimientos.
func (r *MovementRepo) GetBalance(ctx context.Context, key entity.StockKey) (*entity.BalanceState, error) {
	st, err := r.scanBalance(r.q.QueryRow(ctx, `
		SELECT product_id, warehouse_id, lot_number, balance, last_movement_id, last_movement_date, expiration_date, updated_at
		FROM stock_balances
		WHERE product_id = $1 AND warehouse_id = $2 AND lot_number = $3 AND last_movement_id <> 0`,
		key.ProductID, key.WarehouseID, key.LotNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get balance", err)
	}
	return st, nil
}

// LockPair advisory lock de transacción sobre (producto, bodega). Respeta lock_timeout.
func (r *MovementRepo) LockPair(ctx context.Context, productID, warehouseID string) error {
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1 || '|' || $2, 0))`, productID, warehouseID)
	return mapError("lock pair", err)
}

// ProductOnHand suma de saldos del producto en todas las llaves.
func (r *MovementRepo) ProductOnHand(ctx context.Context, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(balance), 0) FROM stock_balances WHERE product_id = $1`, productID).Scan(&total)
	if err != nil {
		return decimal.Zero, mapError("product on hand", err)
	}
	return total, nil
}

// ListBalances estados por lote de (producto, bodega).
func (r *MovementRepo) ListBalances(ctx context.Context, productID, warehouseID string) ([]entity.BalanceState, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, warehouse_id, lot_number, balance, last_movement_id, last_movement_date, expiration_date, updated_at
		FROM stock_balances
		WHERE product_id = $1 AND warehouse_id = $2 AND last_movement_id <> 0
		ORDER BY lot_number`, productID, warehouseID)
	if err != nil {
		return nil, mapError("list balances", err)
	}
	defer rows.Close()
	var out []entity.BalanceState
	for rows.Next() {
		st, err := r.scanBalance(rows)
		if err != nil {
			return nil, mapError("scan balance", err)
		}
		out = append(out, *st)
	}
	return out, mapError("list balances", rows.Err())
}

// ListHistory página de la historia por cursor (movement_date, id).
func (r *MovementRepo) ListHistory(ctx context.Context, q repository.HistoryQuery) ([]entity.MovementRecord, error) {
	var afterDate *time.Time
	if !q.AfterDate.IsZero() || q.AfterID != 0 {
		afterDate = &q.AfterDate
	}
	var limit any
	if q.Limit > 0 {
		limit = q.Limit
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+movementColumns+`
		FROM inventory_movements
		WHERE product_id = $1 AND warehouse_id = $2 AND lot_number = $3
		  AND ($4::timestamptz IS NULL OR movement_date >= $4)
		  AND ($5::timestamptz IS NULL OR movement_date <= $5)
		  AND ($6::timestamptz IS NULL OR (movement_date, id) > ($6, $7::bigint))
		ORDER BY movement_date, id
		LIMIT $8`,
		q.Key.ProductID, q.Key.WarehouseID, q.Key.LotNumber, q.From, q.To, afterDate, q.AfterID, limit)
	if err != nil {
		return nil, mapError("list history", err)
	}
	return collectMovements(rows)
}

// ListBySource movimientos creados por un documento, en orden de inserción.
func (r *MovementRepo) ListBySource(ctx context.Context, src entity.SourceRef) ([]entity.MovementRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+movementColumns+`
		FROM inventory_movements
		WHERE source_document_type = $1 AND source_document_id = $2
		ORDER BY id`, string(src.DocumentType), src.DocumentID)
	if err != nil {
		return nil, mapError("list by source", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]entity.MovementRecord, error) {
	defer rows.Close()
	var out []entity.MovementRecord
	for rows.Next() {
		var m entity.MovementRecord
		var typ, docType string
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.WarehouseID, &m.LotNumber, &m.ExpirationDate, &typ,
			&m.QuantityIn, &m.QuantityOut, &m.UnitCost, &m.BalanceQuantity, &docType, &m.Source.DocumentID,
			&m.MovementDate, &m.CreatedAt, &m.CreatedBy,
		); err != nil {
			return nil, mapError("scan movement", err)
		}
		m.Type = entity.MovementType(typ)
		m.Source.DocumentType = entity.DocumentKind(docType)
		out = append(out, m)
	}
	return out, mapError("list movements", rows.Err())
}

func (r *MovementRepo) scanBalance(row pgx.Row) (*entity.BalanceState, error) {
	var st entity.BalanceState
	var lastDate *time.Time
	if err := row.Scan(
		&st.Key.ProductID, &st.Key.WarehouseID, &st.Key.LotNumber, &st.Balance,
		&st.LastMovementID, &lastDate, &st.ExpirationDate, &st.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastDate != nil {
		st.LastMovementDate = *lastDate
	}
	return &st, nil
}
