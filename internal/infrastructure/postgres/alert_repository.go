package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo alertas de inventario sobre PostgreSQL. La unicidad de alertas abiertas la
// garantiza el índice parcial uq_inventory_alerts_open.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

const alertColumns = `id, product_id, warehouse_id, alert_type, priority, message, is_resolved,
	resolved_at, resolved_by, resolution_notes, suppress_reopen, created_at, updated_at`

// FindOpen bloquea la alerta abierta del tipo, si existe; el evaluador y la resolución manual
// se serializan sobre esa fila.
func (r *AlertRepo) FindOpen(ctx context.Context, productID, warehouseID string, t entity.AlertType) (*entity.InventoryAlert, error) {
	return r.one(ctx, `
		SELECT `+alertColumns+` FROM inventory_alerts
		WHERE product_id = $1 AND warehouse_id = $2 AND alert_type = $3 AND NOT is_resolved
		FOR UPDATE`,
		productID, warehouseID, string(t))
}

func (r *AlertRepo) FindLatest(ctx context.Context, productID, warehouseID string, t entity.AlertType) (*entity.InventoryAlert, error) {
	return r.one(ctx, `
		SELECT `+alertColumns+` FROM inventory_alerts
		WHERE product_id = $1 AND warehouse_id = $2 AND alert_type = $3
		ORDER BY seq DESC LIMIT 1
		FOR UPDATE`,
		productID, warehouseID, string(t))
}

// Create inserta la alerta salvo que ya exista una abierta del mismo tipo; en ese caso devuelve false.
func (r *AlertRepo) Create(ctx context.Context, a *entity.InventoryAlert) (bool, error) {
	var id string
	err := r.q.QueryRow(ctx, `
		INSERT INTO inventory_alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (product_id, warehouse_id, alert_type) WHERE NOT is_resolved DO NOTHING
		RETURNING id`,
		a.ID, a.ProductID, a.WarehouseID, string(a.AlertType), string(a.Priority), a.Message, a.IsResolved,
		a.ResolvedAt, a.ResolvedBy, a.ResolutionNotes, a.SuppressReopen, a.CreatedAt, a.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, mapError("create alert", err)
	}
	return true, nil
}

func (r *AlertRepo) Update(ctx context.Context, a *entity.InventoryAlert) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_alerts SET
			priority = $2, message = $3, is_resolved = $4, resolved_at = $5, resolved_by = $6,
			resolution_notes = $7, suppress_reopen = $8, updated_at = $9
		WHERE id = $1`,
		a.ID, string(a.Priority), a.Message, a.IsResolved, a.ResolvedAt, a.ResolvedBy,
		a.ResolutionNotes, a.SuppressReopen, a.UpdatedAt,
	)
	if err != nil {
		return mapError("update alert", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.InventoryAlert, error) {
	return r.one(ctx, `SELECT `+alertColumns+` FROM inventory_alerts WHERE id = $1`, id)
}

func (r *AlertRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryAlert, error) {
	return r.one(ctx, `SELECT `+alertColumns+` FROM inventory_alerts WHERE id = $1 FOR UPDATE`, id)
}

// List alertas filtradas, más recientes primero.
func (r *AlertRepo) List(ctx context.Context, f repository.AlertFilter) ([]*entity.InventoryAlert, error) {
	var limit any
	if f.Limit > 0 {
		limit = f.Limit
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+alertColumns+` FROM inventory_alerts
		WHERE ($1::boolean IS NULL OR is_resolved = $1)
			AND ($2::text = '' OR alert_type = $2)
			AND ($3::text = '' OR priority = $3)
			AND ($4::text = '' OR product_id = $4)
			AND ($5::text = '' OR warehouse_id = $5)
		ORDER BY created_at DESC, seq DESC
		LIMIT $6 OFFSET $7`,
		f.IsResolved, string(f.AlertType), string(f.Priority), f.ProductID, f.WarehouseID, limit, f.Offset)
	if err != nil {
		return nil, mapError("list alerts", err)
	}
	defer rows.Close()
	out := []*entity.InventoryAlert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, mapError("scan alert", err)
		}
		out = append(out, a)
	}
	return out, mapError("list alerts", rows.Err())
}

func (r *AlertRepo) one(ctx context.Context, query string, args ...any) (*entity.InventoryAlert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get alert", err)
	}
	return a, nil
}

func scanAlert(row pgx.Row) (*entity.InventoryAlert, error) {
	var a entity.InventoryAlert
	var alertType, priority string
	err := row.Scan(&a.ID, &a.ProductID, &a.WarehouseID, &alertType, &priority, &a.Message, &a.IsResolved,
		&a.ResolvedAt, &a.ResolvedBy, &a.ResolutionNotes, &a.SuppressReopen, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.AlertType = entity.AlertType(alertType)
	a.Priority = entity.AlertPriority(priority)
	return &a, nil
}
