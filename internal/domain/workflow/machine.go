// Package workflow define la máquina de estados común a todos los documentos de inventario.
// La tabla transitions es la única fuente de verdad de los estados alcanzables.
package workflow

import (
	"strings"
	"time"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// Event acción de workflow sobre un documento.
type Event string

const (
	EventSubmit   Event = "submit"
	EventResubmit Event = "resubmit"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventProcess  Event = "process"
	EventCancel   Event = "cancel"
)

var transitions = map[entity.DocumentStatus]map[Event]entity.DocumentStatus{
	entity.DocumentStatusDraft: {
		EventSubmit: entity.DocumentStatusPending,
		EventCancel: entity.DocumentStatusCancelled,
	},
	entity.DocumentStatusPending: {
		EventApprove: entity.DocumentStatusApproved,
		EventReject:  entity.DocumentStatusRejected,
		EventCancel:  entity.DocumentStatusCancelled,
	},
	entity.DocumentStatusApproved: {
		EventProcess: entity.DocumentStatusProcessed,
		EventCancel:  entity.DocumentStatusCancelled,
	},
	entity.DocumentStatusRejected: {
		EventResubmit: entity.DocumentStatusPending,
		EventCancel:   entity.DocumentStatusCancelled,
	},
}

// Events todos los eventos conocidos.
func Events() []Event {
	return []Event{EventSubmit, EventResubmit, EventApprove, EventReject, EventProcess, EventCancel}
}

// Next devuelve el estado destino de aplicar ev desde from, y false si el par no está permitido.
func Next(from entity.DocumentStatus, ev Event) (entity.DocumentStatus, bool) {
	to, ok := transitions[from][ev]
	return to, ok
}

// Can indica si ev es aplicable desde from.
func Can(from entity.DocumentStatus, ev Event) bool {
	_, ok := Next(from, ev)
	return ok
}

// SubmitEvent elige submit o resubmit según el estado actual.
func SubmitEvent(from entity.DocumentStatus) Event {
	if from == entity.DocumentStatusRejected {
		return EventResubmit
	}
	return EventSubmit
}

// Transition datos del actor para una transición.
type Transition struct {
	Event      Event
	ActorID    string
	CanApprove bool
	Reason     string // obligatorio al rechazar
	Notes      string // notas de aprobación
	At         time.Time
}

// Fire valida y aplica la transición sobre doc, sellando actor y fecha en el campo de auditoría.
// Si falla, doc queda exactamente como estaba.
func Fire(doc *entity.Document, t Transition) error {
	to, ok := Next(doc.Status, t.Event)
	if !ok {
		return &domain.IllegalTransitionError{Status: doc.Status, Event: string(t.Event)}
	}
	if t.ActorID == "" {
		return domain.ErrInvalidInput
	}
	at := t.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	switch t.Event {
	case EventSubmit, EventResubmit:
		if len(doc.Lines) == 0 {
			return domain.ErrInvalidInput
		}
		doc.SubmittedBy, doc.SubmittedAt = t.ActorID, &at
	case EventApprove:
		if !t.CanApprove {
			return domain.ErrForbidden
		}
		doc.ApprovedBy, doc.ApprovedAt, doc.ApprovalNotes = t.ActorID, &at, t.Notes
	case EventReject:
		reason := strings.TrimSpace(t.Reason)
		if reason == "" {
			return domain.ErrRejectionReasonRequired
		}
		doc.RejectedBy, doc.RejectedAt, doc.RejectionReason = t.ActorID, &at, reason
	case EventProcess:
		doc.ProcessedBy, doc.ProcessedAt = t.ActorID, &at
	case EventCancel:
		doc.CancelledBy, doc.CancelledAt = t.ActorID, &at
	}
	doc.Status = to
	doc.UpdatedAt = at
	return nil
}
