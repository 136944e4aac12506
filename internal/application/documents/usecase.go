// Package documents casos de uso del workflow de documentos de inventario
// (compras, ajustes, traslados, despachos y donaciones).
package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/application/poster"
	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/inventory"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/internal/domain/workflow"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

// Actor identidad y capacidad de aprobación de quien ejecuta la acción.
type Actor struct {
	ID         string
	CanApprove bool
}

// CreateInput datos de un documento nuevo.
type CreateInput struct {
	Kind        entity.DocumentKind
	Description string
	Lines       []entity.DocumentLine
}

// UseCase orquesta las transiciones de documentos. Cada transición bloquea el documento
// dentro de una transacción; process además contabiliza en el libro en esa misma transacción.
type UseCase struct {
	txRunner  ledger.TxRunner
	documents repository.DocumentRepository
	poster    *poster.Poster
	retry     ledger.RetryPolicy
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso. documents se usa para lecturas fuera de transacción.
func NewUseCase(txRunner ledger.TxRunner, documents repository.DocumentRepository, p *poster.Poster, retry ledger.RetryPolicy, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:  txRunner,
		documents: documents,
		poster:    p,
		retry:     retry,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FormatNumber número visible: <PREFIJO>-<AAAAMM>-<consecutivo>.
func FormatNumber(kind entity.DocumentKind, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%05d", kind.NumberPrefix(), at.Format("200601"), seq)
}

// Create registra un documento en borrador con número generado.
func (uc *UseCase) Create(ctx context.Context, actor Actor, in CreateInput) (*entity.Document, error) {
	if actor.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("tipo de documento %q: %w", in.Kind, domain.ErrInvalidInput)
	}
	doc := &entity.Document{
		ID:          uuid.New().String(),
		Kind:        in.Kind,
		Status:      entity.DocumentStatusDraft,
		Description: in.Description,
		Lines:       numberLines(in.Lines),
		CreatedBy:   actor.ID,
	}
	if err := validateLines(doc); err != nil {
		return nil, err
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		now := uc.now()
		seq, err := repos.Documents.NextNumber(ctx, doc.Kind, now.Format("200601"))
		if err != nil {
			return err
		}
		doc.Number = FormatNumber(doc.Kind, now, seq)
		doc.CreatedAt, doc.UpdatedAt = now, now
		return repos.Documents.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).Str("kind", string(doc.Kind)).Msg("documento creado")
	return doc, nil
}

// UpdateLines reemplaza las líneas; solo en draft o rejected.
func (uc *UseCase) UpdateLines(ctx context.Context, actor Actor, id string, lines []entity.DocumentLine) (*entity.Document, error) {
	if actor.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.mutate(ctx, id, "update_lines", func(ctx context.Context, repos repository.TxRepos, doc *entity.Document) error {
		if !doc.Status.IsEditable() {
			return &domain.IllegalTransitionError{Status: doc.Status, Event: "update_lines"}
		}
		doc.Lines = numberLines(lines)
		if err := validateLines(doc); err != nil {
			return err
		}
		doc.UpdatedAt = uc.now()
		return repos.Documents.Update(ctx, doc)
	})
}

// Submit envía a aprobación (resubmit si estaba rechazado). Exige líneas con productos y bodegas existentes.
func (uc *UseCase) Submit(ctx context.Context, actor Actor, id string) (*entity.Document, error) {
	return uc.mutate(ctx, id, string(workflow.EventSubmit), func(ctx context.Context, repos repository.TxRepos, doc *entity.Document) error {
		ev := workflow.SubmitEvent(doc.Status)
		if !workflow.Can(doc.Status, ev) {
			return &domain.IllegalTransitionError{Status: doc.Status, Event: string(ev)}
		}
		if err := validateLines(doc); err != nil {
			return err
		}
		if err := resolveReferences(ctx, repos, doc); err != nil {
			return err
		}
		return uc.fire(ctx, repos, doc, workflow.Transition{Event: ev, ActorID: actor.ID})
	})
}

// Approve aprueba un documento pendiente; requiere capacidad de aprobación.
func (uc *UseCase) Approve(ctx context.Context, actor Actor, id, notes string) (*entity.Document, error) {
	return uc.mutate(ctx, id, string(workflow.EventApprove), func(ctx context.Context, repos repository.TxRepos, doc *entity.Document) error {
		return uc.fire(ctx, repos, doc, workflow.Transition{Event: workflow.EventApprove, ActorID: actor.ID, CanApprove: actor.CanApprove, Notes: notes})
	})
}

// Reject rechaza un documento pendiente; el motivo es obligatorio.
func (uc *UseCase) Reject(ctx context.Context, actor Actor, id, reason string) (*entity.Document, error) {
	return uc.mutate(ctx, id, string(workflow.EventReject), func(ctx context.Context, repos repository.TxRepos, doc *entity.Document) error {
		return uc.fire(ctx, repos, doc, workflow.Transition{Event: workflow.EventReject, ActorID: actor.ID, CanApprove: actor.CanApprove, Reason: reason})
	})
}

// Cancel anula un documento que aún no fue procesado.
func (uc *UseCase) Cancel(ctx context.Context, actor Actor, id string) (*entity.Document, error) {
	return uc.mutate(ctx, id, string(workflow.EventCancel), func(ctx context.Context, repos repository.TxRepos, doc *entity.Document) error {
		return uc.fire(ctx, repos, doc, workflow.Transition{Event: workflow.EventCancel, ActorID: actor.ID})
	})
}

// Process contabiliza un documento aprobado y lo deja processed en una sola transacción.
// Reintenta ante conflictos de concurrencia; cualquier otro fallo deja el documento approved.
func (uc *UseCase) Process(ctx context.Context, actor Actor, id string) (*entity.Document, []entity.MovementRecord, error) {
	var records []entity.MovementRecord
	doc, err := uc.mutate(ctx, id, string(workflow.EventProcess), func(ctx context.Context, repos repository.TxRepos, doc *entity.Document) error {
		var err error
		records, err = uc.poster.Process(ctx, repos, doc, actor.ID, uc.now())
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).Int("movements", len(records)).Msg("documento contabilizado")
	return doc, records, nil
}

// Get documento por id.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := uc.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// List documentos por tipo y estado.
func (uc *UseCase) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, fmt.Errorf("tipo de documento %q: %w", f.Kind, domain.ErrInvalidInput)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("estado %q: %w", f.Status, domain.ErrInvalidInput)
	}
	return uc.documents.List(ctx, f)
}

// mutate carga el documento con bloqueo, aplica fn y reintenta ante conflictos.
func (uc *UseCase) mutate(ctx context.Context, id, action string, fn func(ctx context.Context, repos repository.TxRepos, doc *entity.Document) error) (*entity.Document, error) {
	var out *entity.Document
	err := ledger.RunWithRetry(ctx, uc.txRunner, uc.retry, func(ctx context.Context, repos repository.TxRepos) error {
		doc, err := repos.Documents.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("documento %s: %w", id, domain.ErrNotFound)
		}
		if err := fn(ctx, repos, doc); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		ev := uc.log.Warn()
		if !isExpected(err) {
			ev = uc.log.Error()
		}
		ev.Err(err).Str("document_id", id).Str("action", action).Msg("transición rechazada")
		return nil, err
	}
	return out, nil
}

func (uc *UseCase) fire(ctx context.Context, repos repository.TxRepos, doc *entity.Document, t workflow.Transition) error {
	t.At = uc.now()
	if err := workflow.Fire(doc, t); err != nil {
		return err
	}
	return repos.Documents.Update(ctx, doc)
}

func numberLines(lines []entity.DocumentLine) []entity.DocumentLine {
	out := make([]entity.DocumentLine, len(lines))
	for i, l := range lines {
		l.LineNo = i + 1
		out[i] = l
	}
	return out
}

func validateLines(doc *entity.Document) error {
	mapper, err := inventory.MapperFor(doc.Kind)
	if err != nil {
		return err
	}
	for i, l := range doc.Lines {
		if err := mapper.ValidateLine(l); err != nil {
			return &domain.LinePostingError{DocumentID: doc.ID, Line: i + 1, Err: err}
		}
	}
	return nil
}

// resolveReferences verifica que productos y bodegas de cada línea existan.
func resolveReferences(ctx context.Context, repos repository.TxRepos, doc *entity.Document) error {
	for i, l := range doc.Lines {
		p, err := repos.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return &domain.LinePostingError{DocumentID: doc.ID, Line: i + 1, Err: fmt.Errorf("producto %s: %w", l.ProductID, domain.ErrNotFound)}
		}
		for _, whID := range []string{l.WarehouseID, l.DestinationWarehouseID} {
			if whID == "" {
				continue
			}
			wh, err := repos.Warehouses.GetByID(ctx, whID)
			if err != nil {
				return err
			}
			if wh == nil {
				return &domain.LinePostingError{DocumentID: doc.ID, Line: i + 1, Err: fmt.Errorf("bodega %s: %w", whID, domain.ErrNotFound)}
			}
		}
	}
	return nil
}

func isExpected(err error) bool {
	for _, target := range []error{
		domain.ErrIllegalTransition, domain.ErrInvalidInput, domain.ErrInvalidQuantity,
		domain.ErrInsufficientStock, domain.ErrForbidden, domain.ErrNotFound,
		domain.ErrRejectionReasonRequired, domain.ErrConcurrencyConflict, domain.ErrBackdatedMovement,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
