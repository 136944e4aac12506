// Package poster contabiliza documentos aprobados en el libro de saldos.
package poster

import (
	"context"
	"sort"
	"time"

	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/inventory"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/internal/domain/workflow"
)

// Poster traduce las líneas de un documento aprobado en movimientos y lo marca procesado,
// todo dentro de la transacción del llamador.
type Poster struct {
	ledger   *ledger.Ledger
	observer ledger.StockObserver
}

// New construye el poster. observer puede ser nil.
func New(l *ledger.Ledger, observer ledger.StockObserver) *Poster {
	return &Poster{ledger: l, observer: observer}
}

// Process contabiliza doc (cargado con bloqueo por el llamador) y lo deja en processed.
// Ante cualquier fallo devuelve error y el llamador hace rollback: el documento sigue approved
// y no queda ningún movimiento. Los errores de línea vienen como domain.LinePostingError.
func (p *Poster) Process(ctx context.Context, repos repository.TxRepos, doc *entity.Document, actorID string, now time.Time) ([]entity.MovementRecord, error) {
	if !workflow.Can(doc.Status, workflow.EventProcess) {
		return nil, &domain.IllegalTransitionError{Status: doc.Status, Event: string(workflow.EventProcess)}
	}
	if actorID == "" {
		return nil, domain.ErrInvalidInput
	}
	postings, err := inventory.MapDocument(doc)
	if err != nil {
		return nil, err
	}

	keys := lockOrder(postings)
	for _, k := range keys {
		if _, err := repos.Movements.LockKey(ctx, k); err != nil {
			return nil, err
		}
	}
	for _, id := range costProducts(postings) {
		if _, err := repos.Products.GetForUpdate(ctx, id); err != nil {
			return nil, err
		}
	}

	src := entity.SourceRef{DocumentType: doc.Kind, DocumentID: doc.ID}
	records := make([]entity.MovementRecord, 0, len(postings))
	// vencimiento del lote que sale, por línea; el lote destino lo hereda si la línea no trae uno.
	outExpiry := make(map[int]*time.Time)
	for _, ps := range postings {
		if ps.Type == entity.MovementTypeTransferIn && ps.ExpirationDate == nil {
			ps.ExpirationDate = outExpiry[ps.Line]
		}
		rec, err := p.ledger.AppendInTx(ctx, repos, ledger.AppendInput{
			Key:            ps.Key,
			Type:           ps.Type,
			QuantityIn:     ps.QuantityIn,
			QuantityOut:    ps.QuantityOut,
			UnitCost:       ps.UnitCost,
			ExpirationDate: ps.ExpirationDate,
			Source:         src,
			MovementDate:   now,
			CreatedBy:      actorID,
		})
		if err != nil {
			return nil, &domain.LinePostingError{DocumentID: doc.ID, Line: ps.Line, Err: err}
		}
		if ps.Type == entity.MovementTypeTransferOut {
			outExpiry[ps.Line] = rec.ExpirationDate
		}
		records = append(records, *rec)
	}
	if len(records) != len(postings) {
		return nil, &domain.PartialPostingPreventedError{DocumentID: doc.ID, Expected: len(postings), Posted: len(records)}
	}

	if err := workflow.Fire(doc, workflow.Transition{Event: workflow.EventProcess, ActorID: actorID, At: now}); err != nil {
		return nil, err
	}
	doc.LinkedMovementIDs = make([]int64, len(records))
	for i, r := range records {
		doc.LinkedMovementIDs[i] = r.ID
	}
	if err := repos.Documents.Update(ctx, doc); err != nil {
		return nil, err
	}

	if p.observer != nil {
		if err := p.observer.Evaluate(ctx, repos, keys); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// lockOrder llaves distintas en orden total, para que dos documentos nunca se bloqueen en cruz.
func lockOrder(postings []inventory.Posting) []entity.StockKey {
	seen := make(map[entity.StockKey]bool, len(postings))
	keys := make([]entity.StockKey, 0, len(postings))
	for _, ps := range postings {
		if !seen[ps.Key] {
			seen[ps.Key] = true
			keys = append(keys, ps.Key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// costProducts productos cuyo costo promedio cambiará, ordenados.
func costProducts(postings []inventory.Posting) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, ps := range postings {
		if ps.Type.IsInbound() && ps.Type != entity.MovementTypeTransferIn && ps.UnitCost.IsPositive() && !seen[ps.Key.ProductID] {
			seen[ps.Key.ProductID] = true
			ids = append(ids, ps.Key.ProductID)
		}
	}
	sort.Strings(ids)
	return ids
}
