package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind tipo de documento origen.
type DocumentKind string

const (
	DocumentKindPurchase   DocumentKind = "purchase"
	DocumentKindAdjustment DocumentKind = "adjustment"
	DocumentKindTransfer   DocumentKind = "transfer"
	DocumentKindDispatch   DocumentKind = "dispatch"
	DocumentKindDonation   DocumentKind = "donation"
)

// Valid indica si el tipo de documento es conocido.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentKindPurchase, DocumentKindAdjustment, DocumentKindTransfer,
		DocumentKindDispatch, DocumentKindDonation:
		return true
	}
	return false
}

// NumberPrefix prefijo del correlativo del documento.
func (k DocumentKind) NumberPrefix() string {
	switch k {
	case DocumentKindPurchase:
		return "COM"
	case DocumentKindAdjustment:
		return "AJU"
	case DocumentKindTransfer:
		return "TRA"
	case DocumentKindDispatch:
		return "DES"
	case DocumentKindDonation:
		return "DON"
	}
	return "DOC"
}

// DocumentStatus estado del workflow. La tabla de transiciones vive en el paquete workflow.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusApproved  DocumentStatus = "approved"
	DocumentStatusRejected  DocumentStatus = "rejected"
	DocumentStatusProcessed DocumentStatus = "processed"
	DocumentStatusCancelled DocumentStatus = "cancelled"
)

// Valid indica si el estado pertenece al catálogo.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusPending, DocumentStatusApproved,
		DocumentStatusRejected, DocumentStatusProcessed, DocumentStatusCancelled:
		return true
	}
	return false
}

// IsTerminal processed y cancelled no admiten más transiciones.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusProcessed || s == DocumentStatusCancelled
}

// IsEditable las líneas solo se modifican en borrador o rechazado.
func (s DocumentStatus) IsEditable() bool {
	return s == DocumentStatusDraft || s == DocumentStatusRejected
}

// Motivos de línea de ajuste que cambian el tipo de movimiento.
const (
	LineReasonExpiry = "vencimiento"
	LineReasonReturn = "devolucion"
)

// DocumentLine línea de un documento. Quantity es con signo solo en ajustes.
type DocumentLine struct {
	LineNo                 int
	ProductID              string
	WarehouseID            string
	DestinationWarehouseID string // solo traslados
	LotNumber              string
	ExpirationDate         *time.Time
	Quantity               decimal.Decimal
	UnitCost               decimal.Decimal
	Reason                 string
	Notes                  string
}

// Document forma común de compras, ajustes, traslados, despachos y donaciones.
type Document struct {
	ID          string
	Number      string
	Kind        DocumentKind
	Status      DocumentStatus
	Description string
	Lines       []DocumentLine

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time

	SubmittedBy     string
	SubmittedAt     *time.Time
	ApprovedBy      string
	ApprovedAt      *time.Time
	ApprovalNotes   string
	RejectedBy      string
	RejectedAt      *time.Time
	RejectionReason string
	ProcessedBy     string
	ProcessedAt     *time.Time
	CancelledBy     string
	CancelledAt     *time.Time

	LinkedMovementIDs []int64
}

// Clone copia profunda; los stores en memoria y las transiciones trabajan sobre copias.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Lines = append([]DocumentLine(nil), d.Lines...)
	c.LinkedMovementIDs = append([]int64(nil), d.LinkedMovementIDs...)
	return &c
}
