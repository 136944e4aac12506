package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo documentos de inventario y sus líneas sobre PostgreSQL.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, number, kind, status, description, created_by, created_at, updated_at,
	submitted_by, submitted_at, approved_by, approved_at, approval_notes,
	rejected_by, rejected_at, rejection_reason, processed_by, processed_at,
	cancelled_by, cancelled_at, linked_movement_ids`

// Create inserta cabecera y líneas. Debe llamarse dentro de una transacción.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	if d.LinkedMovementIDs == nil {
		d.LinkedMovementIDs = []int64{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		documentArgs(d)...)
	if err != nil {
		return mapError("create document", err)
	}
	return r.insertLines(ctx, d)
}

// GetByID devuelve nil, nil si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, `SELECT `+documentColumns+` FROM inventory_documents WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera (SELECT FOR UPDATE); las transiciones se serializan por documento.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, `SELECT `+documentColumns+` FROM inventory_documents WHERE id = $1 FOR UPDATE`, id)
}

func (r *DocumentRepo) get(ctx context.Context, query, id string) (*entity.Document, error) {
	d, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get document", err)
	}
	lines, err := r.lines(ctx, []string{d.ID})
	if err != nil {
		return nil, err
	}
	d.Lines = lines[d.ID]
	return d, nil
}

// Update reescribe cabecera y líneas.
func (r *DocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	if d.LinkedMovementIDs == nil {
		d.LinkedMovementIDs = []int64{}
	}
	_, err := r.q.Exec(ctx, `
		UPDATE inventory_documents SET
			status = $2, description = $3, updated_at = $4,
			submitted_by = $5, submitted_at = $6, approved_by = $7, approved_at = $8, approval_notes = $9,
			rejected_by = $10, rejected_at = $11, rejection_reason = $12,
			processed_by = $13, processed_at = $14, cancelled_by = $15, cancelled_at = $16,
			linked_movement_ids = $17
		WHERE id = $1`,
		d.ID, string(d.Status), d.Description, d.UpdatedAt,
		d.SubmittedBy, d.SubmittedAt, d.ApprovedBy, d.ApprovedAt, d.ApprovalNotes,
		d.RejectedBy, d.RejectedAt, d.RejectionReason,
		d.ProcessedBy, d.ProcessedAt, d.CancelledBy, d.CancelledAt,
		d.LinkedMovementIDs,
	)
	if err != nil {
		return mapError("update document", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_document_lines WHERE document_id = $1`, d.ID); err != nil {
		return mapError("delete lines", err)
	}
	return r.insertLines(ctx, d)
}

// List cabeceras filtradas, más recientes primero, con sus líneas.
func (r *DocumentRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	var limit any
	if f.Limit > 0 {
		limit = f.Limit
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+documentColumns+`
		FROM inventory_documents
		WHERE ($1::text = '' OR kind = $1) AND ($2::text = '' OR status = $2)
		ORDER BY created_at DESC, number DESC
		LIMIT $3 OFFSET $4`,
		string(f.Kind), string(f.Status), limit, f.Offset)
	if err != nil {
		return nil, mapError("list documents", err)
	}
	defer rows.Close()
	var out []*entity.Document
	var ids []string
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, mapError("scan document", err)
		}
		out = append(out, d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list documents", err)
	}
	if len(ids) == 0 {
		return []*entity.Document{}, nil
	}
	lines, err := r.lines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range out {
		d.Lines = lines[d.ID]
	}
	return out, nil
}

// NextNumber incrementa el consecutivo de (tipo, periodo). La fila queda bloqueada hasta el commit.
func (r *DocumentRepo) NextNumber(ctx context.Context, kind entity.DocumentKind, period string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_sequences (kind, period, last_value) VALUES ($1, $2, 1)
		ON CONFLICT (kind, period) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`, string(kind), period).Scan(&n)
	if err != nil {
		return 0, mapError("next document number", err)
	}
	return n, nil
}

func (r *DocumentRepo) insertLines(ctx context.Context, d *entity.Document) error {
	if len(d.Lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range d.Lines {
		lineNo := l.LineNo
		if lineNo == 0 {
			lineNo = i + 1
		}
		batch.Queue(`
			INSERT INTO inventory_document_lines (
				document_id, line_no, product_id, warehouse_id, destination_warehouse_id,
				lot_number, expiration_date, quantity, unit_cost, reason, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			d.ID, lineNo, l.ProductID, l.WarehouseID, l.DestinationWarehouseID,
			l.LotNumber, l.ExpirationDate, l.Quantity, l.UnitCost, l.Reason, l.Notes)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range d.Lines {
		if _, err := br.Exec(); err != nil {
			return mapError("insert line", err)
		}
	}
	return nil
}

func (r *DocumentRepo) lines(ctx context.Context, ids []string) (map[string][]entity.DocumentLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT document_id, line_no, product_id, warehouse_id, destination_warehouse_id,
			lot_number, expiration_date, quantity, unit_cost, reason, notes
		FROM inventory_document_lines
		WHERE document_id = ANY($1)
		ORDER BY document_id, line_no`, ids)
	if err != nil {
		return nil, mapError("list lines", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.DocumentLine, len(ids))
	for rows.Next() {
		var docID string
		var l entity.DocumentLine
		if err := rows.Scan(&docID, &l.LineNo, &l.ProductID, &l.WarehouseID, &l.DestinationWarehouseID,
			&l.LotNumber, &l.ExpirationDate, &l.Quantity, &l.UnitCost, &l.Reason, &l.Notes); err != nil {
			return nil, mapError("scan line", err)
		}
		out[docID] = append(out[docID], l)
	}
	return out, mapError("list lines", rows.Err())
}

func documentArgs(d *entity.Document) []any {
	return []any{
		d.ID, d.Number, string(d.Kind), string(d.Status), d.Description, d.CreatedBy, d.CreatedAt, d.UpdatedAt,
		d.SubmittedBy, d.SubmittedAt, d.ApprovedBy, d.ApprovedAt, d.ApprovalNotes,
		d.RejectedBy, d.RejectedAt, d.RejectionReason, d.ProcessedBy, d.ProcessedAt,
		d.CancelledBy, d.CancelledAt, d.LinkedMovementIDs,
	}
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	var kind, status string
	err := row.Scan(
		&d.ID, &d.Number, &kind, &status, &d.Description, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		&d.SubmittedBy, &d.SubmittedAt, &d.ApprovedBy, &d.ApprovedAt, &d.ApprovalNotes,
		&d.RejectedBy, &d.RejectedAt, &d.RejectionReason, &d.ProcessedBy, &d.ProcessedAt,
		&d.CancelledBy, &d.CancelledAt, &d.LinkedMovementIDs,
	)
	if err != nil {
		return nil, err
	}
	d.Kind = entity.DocumentKind(kind)
	d.Status = entity.DocumentStatus(status)
	return &d, nil
}
