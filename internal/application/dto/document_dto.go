package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// DocumentLineRequest línea de documento. En ajustes Quantity lleva signo.
type DocumentLineRequest struct {
	ProductID              string          `json:"product_id" validate:"required"`
	WarehouseID            string          `json:"warehouse_id" validate:"required"`
	DestinationWarehouseID string          `json:"destination_warehouse_id"`
	LotNumber              string          `json:"lot_number" validate:"max=100"`
	ExpirationDate         *time.Time      `json:"expiration_date"`
	Quantity               decimal.Decimal `json:"quantity"`
	UnitCost               decimal.Decimal `json:"unit_cost"`
	Reason                 string          `json:"reason" validate:"max=100"`
	Notes                  string          `json:"notes" validate:"max=500"`
}

// CreateDocumentRequest entrada para crear un documento en borrador.
type CreateDocumentRequest struct {
	Kind        string                `json:"kind" validate:"required,oneof=purchase adjustment transfer dispatch donation"`
	Description string                `json:"description" validate:"max=500"`
	Lines       []DocumentLineRequest `json:"lines" validate:"dive"`
}

// UpdateLinesRequest reemplaza las líneas de un documento editable.
type UpdateLinesRequest struct {
	Lines []DocumentLineRequest `json:"lines" validate:"dive"`
}

// ApproveDocumentRequest notas opcionales de aprobación.
type ApproveDocumentRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

// RejectDocumentRequest el motivo es obligatorio.
type RejectDocumentRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// DocumentListRequest filtros del listado.
type DocumentListRequest struct {
	Limit  int    `json:"limit" validate:"min=0,max=100"`
	Offset int    `json:"offset" validate:"min=0"`
	Kind   string `json:"kind" validate:"omitempty,oneof=purchase adjustment transfer dispatch donation"`
	Status string `json:"status" validate:"omitempty,oneof=draft pending approved rejected processed cancelled"`
}

// DocumentLineResponse línea en la salida.
type DocumentLineResponse struct {
	LineNo                 int             `json:"line_no"`
	ProductID              string          `json:"product_id"`
	WarehouseID            string          `json:"warehouse_id"`
	DestinationWarehouseID string          `json:"destination_warehouse_id,omitempty"`
	LotNumber              string          `json:"lot_number,omitempty"`
	ExpirationDate         *time.Time      `json:"expiration_date,omitempty"`
	Quantity               decimal.Decimal `json:"quantity"`
	UnitCost               decimal.Decimal `json:"unit_cost"`
	Reason                 string          `json:"reason,omitempty"`
	Notes                  string          `json:"notes,omitempty"`
}

// DocumentResponse salida de un documento con su auditoría.
type DocumentResponse struct {
	ID                string                 `json:"id"`
	Number            string                 `json:"number"`
	Kind              string                 `json:"kind"`
	Status            string                 `json:"status"`
	Description       string                 `json:"description"`
	Lines             []DocumentLineResponse `json:"lines"`
	CreatedBy         string                 `json:"created_by"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	SubmittedBy       string                 `json:"submitted_by,omitempty"`
	SubmittedAt       *time.Time             `json:"submitted_at,omitempty"`
	ApprovedBy        string                 `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time             `json:"approved_at,omitempty"`
	ApprovalNotes     string                 `json:"approval_notes,omitempty"`
	RejectedBy        string                 `json:"rejected_by,omitempty"`
	RejectedAt        *time.Time             `json:"rejected_at,omitempty"`
	RejectionReason   string                 `json:"rejection_reason,omitempty"`
	ProcessedBy       string                 `json:"processed_by,omitempty"`
	ProcessedAt       *time.Time             `json:"processed_at,omitempty"`
	CancelledBy       string                 `json:"cancelled_by,omitempty"`
	CancelledAt       *time.Time             `json:"cancelled_at,omitempty"`
	LinkedMovementIDs []int64                `json:"linked_movement_ids"`
}

// DocumentListResponse lista paginada de documentos.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ProcessDocumentResponse documento procesado y los movimientos que generó.
type ProcessDocumentResponse struct {
	Document  DocumentResponse   `json:"document"`
	Movements []MovementResponse `json:"movements"`
}

// LinesToEntity convierte las líneas de entrada; el número de línea lo asigna el caso de uso.
func LinesToEntity(in []DocumentLineRequest) []entity.DocumentLine {
	out := make([]entity.DocumentLine, 0, len(in))
	for _, l := range in {
		out = append(out, entity.DocumentLine{
			ProductID:              l.ProductID,
			WarehouseID:            l.WarehouseID,
			DestinationWarehouseID: l.DestinationWarehouseID,
			LotNumber:              l.LotNumber,
			ExpirationDate:         l.ExpirationDate,
			Quantity:               l.Quantity,
			UnitCost:               l.UnitCost,
			Reason:                 l.Reason,
			Notes:                  l.Notes,
		})
	}
	return out
}

// DocumentFromEntity mapea un documento a su salida.
func DocumentFromEntity(d *entity.Document) DocumentResponse {
	lines := make([]DocumentLineResponse, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, DocumentLineResponse{
			LineNo:                 l.LineNo,
			ProductID:              l.ProductID,
			WarehouseID:            l.WarehouseID,
			DestinationWarehouseID: l.DestinationWarehouseID,
			LotNumber:              l.LotNumber,
			ExpirationDate:         l.ExpirationDate,
			Quantity:               l.Quantity,
			UnitCost:               l.UnitCost,
			Reason:                 l.Reason,
			Notes:                  l.Notes,
		})
	}
	linked := d.LinkedMovementIDs
	if linked == nil {
		linked = []int64{}
	}
	return DocumentResponse{
		ID:                d.ID,
		Number:            d.Number,
		Kind:              string(d.Kind),
		Status:            string(d.Status),
		Description:       d.Description,
		Lines:             lines,
		CreatedBy:         d.CreatedBy,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		SubmittedBy:       d.SubmittedBy,
		SubmittedAt:       d.SubmittedAt,
		ApprovedBy:        d.ApprovedBy,
		ApprovedAt:        d.ApprovedAt,
		ApprovalNotes:     d.ApprovalNotes,
		RejectedBy:        d.RejectedBy,
		RejectedAt:        d.RejectedAt,
		RejectionReason:   d.RejectionReason,
		ProcessedBy:       d.ProcessedBy,
		ProcessedAt:       d.ProcessedAt,
		CancelledBy:       d.CancelledBy,
		CancelledAt:       d.CancelledAt,
		LinkedMovementIDs: linked,
	}
}
