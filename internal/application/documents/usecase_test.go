package documents_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mariano55555/bodega-sub009/internal/application/alerts"
	"github.com/mariano55555/bodega-sub009/internal/application/documents"
	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/application/poster"
	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	clerk    = documents.Actor{ID: "u-bodega"}
	approver = documents.Actor{ID: "u-jefe", CanApprove: true}
	key      = entity.StockKey{ProductID: "prod-1", WarehouseID: "bod-1"}
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	store  *memory.Store
	ledger *ledger.Ledger
	uc     *documents.UseCase
	alerts *alerts.UseCase
}

func newFixture(t *testing.T, minimum int64) *fixture {
	t.Helper()
	store := memory.NewStore(2 * time.Second)
	repos := store.Repos()
	ctx := context.Background()
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "prod-1", Name: "Harina", MinimumStock: d(minimum)}))
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "prod-2", Name: "Aceite"}))
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "bod-1", Name: "Central", Active: true}))
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "bod-2", Name: "Norte", Active: true}))

	tx := memory.NewTxRunner(store)
	retry := ledger.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	ev := alerts.NewEvaluator(0, nil)
	l := ledger.New(tx, repos.Movements, ev, nil, ledger.Options{Retry: retry})
	return &fixture{
		store:  store,
		ledger: l,
		uc:     documents.NewUseCase(tx, repos.Documents, poster.New(l, ev), retry, nil),
		alerts: alerts.NewUseCase(tx, repos.Alerts, ev, retry, nil),
	}
}

func line(productID, warehouseID string, qty, cost int64) entity.DocumentLine {
	return entity.DocumentLine{ProductID: productID, WarehouseID: warehouseID, Quantity: d(qty), UnitCost: d(cost)}
}

// approved crea, envía y aprueba un documento.
func (f *fixture) approved(t *testing.T, kind entity.DocumentKind, lines ...entity.DocumentLine) *entity.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := f.uc.Create(ctx, clerk, documents.CreateInput{Kind: kind, Lines: lines})
	require.NoError(t, err)
	_, err = f.uc.Submit(ctx, clerk, doc.ID)
	require.NoError(t, err)
	doc, err = f.uc.Approve(ctx, approver, doc.ID, "ok")
	require.NoError(t, err)
	return doc
}

func (f *fixture) balance(t *testing.T, k entity.StockKey) decimal.Decimal {
	t.Helper()
	b, err := f.ledger.CurrentBalance(context.Background(), k)
	require.NoError(t, err)
	return b
}

func (f *fixture) movements(t *testing.T, doc *entity.Document) []entity.MovementRecord {
	t.Helper()
	rows, err := f.ledger.MovementsBySource(context.Background(), entity.SourceRef{DocumentType: doc.Kind, DocumentID: doc.ID})
	require.NoError(t, err)
	return rows
}

func (f *fixture) status(t *testing.T, id string) entity.DocumentStatus {
	t.Helper()
	doc, err := f.uc.Get(context.Background(), id)
	require.NoError(t, err)
	return doc.Status
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación y numeración
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_BorradorConNumero(t *testing.T) {
	f := newFixture(t, 0)
	doc, err := f.uc.Create(context.Background(), clerk, documents.CreateInput{
		Kind: entity.DocumentKindPurchase, Description: "Compra semanal",
		Lines: []entity.DocumentLine{line("prod-1", "bod-1", 5, 2)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, doc.Status)
	assert.Regexp(t, regexp.MustCompile(`^COM-\d{6}-00001$`), doc.Number)
	assert.Equal(t, 1, doc.Lines[0].LineNo)
	assert.Empty(t, doc.LinkedMovementIDs)

	second, err := f.uc.Create(context.Background(), clerk, documents.CreateInput{Kind: entity.DocumentKindPurchase})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^COM-\d{6}-00002$`), second.Number)

	adj, err := f.uc.Create(context.Background(), clerk, documents.CreateInput{Kind: entity.DocumentKindAdjustment})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^AJU-\d{6}-00001$`), adj.Number)
}

func TestCreate_Invalido(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.uc.Create(context.Background(), clerk, documents.CreateInput{Kind: "factura"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Create(context.Background(), documents.Actor{}, documents.CreateInput{Kind: entity.DocumentKindPurchase})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Create(context.Background(), clerk, documents.CreateInput{
		Kind:  entity.DocumentKindDispatch,
		Lines: []entity.DocumentLine{line("prod-1", "bod-1", 1, 0), line("prod-1", "bod-1", -3, 0)},
	})
	var lpe *domain.LinePostingError
	require.ErrorAs(t, err, &lpe)
	assert.Equal(t, 2, lpe.Line)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestFormatNumber(t *testing.T) {
	at := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "TRA-202607-00042", documents.FormatNumber(entity.DocumentKindTransfer, at, 42))
	assert.Equal(t, "DON-202607-00001", documents.FormatNumber(entity.DocumentKindDonation, at, 1))
	assert.Equal(t, "DES-202607-00001", documents.FormatNumber(entity.DocumentKindDispatch, at, 1))
}

// ──────────────────────────────────────────────────────────────────────────────
// Workflow
// ──────────────────────────────────────────────────────────────────────────────

func TestWorkflow_RechazoYReenvio(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc, err := f.uc.Create(ctx, clerk, documents.CreateInput{Kind: entity.DocumentKindPurchase, Lines: []entity.DocumentLine{line("prod-1", "bod-1", 5, 2)}})
	require.NoError(t, err)
	_, err = f.uc.Submit(ctx, clerk, doc.ID)
	require.NoError(t, err)

	_, err = f.uc.Reject(ctx, approver, doc.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrRejectionReasonRequired)
	assert.Equal(t, entity.DocumentStatusPending, f.status(t, doc.ID))

	rej, err := f.uc.Reject(ctx, approver, doc.ID, "cantidad errada")
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusRejected, rej.Status)
	assert.Equal(t, "cantidad errada", rej.RejectionReason)
	assert.Equal(t, approver.ID, rej.RejectedBy)

	upd, err := f.uc.UpdateLines(ctx, clerk, doc.ID, []entity.DocumentLine{line("prod-1", "bod-1", 6, 2)})
	require.NoError(t, err)
	assert.True(t, upd.Lines[0].Quantity.Equal(d(6)))

	re, err := f.uc.Submit(ctx, clerk, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusPending, re.Status)
	assert.Equal(t, "cantidad errada", re.RejectionReason, "la auditoría del rechazo se conserva")
}

func TestWorkflow_AprobarRequiereCapacidad(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc, err := f.uc.Create(ctx, clerk, documents.CreateInput{Kind: entity.DocumentKindPurchase, Lines: []entity.DocumentLine{line("prod-1", "bod-1", 5, 2)}})
	require.NoError(t, err)
	_, err = f.uc.Submit(ctx, clerk, doc.ID)
	require.NoError(t, err)

	_, err = f.uc.Approve(ctx, clerk, doc.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, entity.DocumentStatusPending, f.status(t, doc.ID))

	ok, err := f.uc.Approve(ctx, approver, doc.ID, "revisado")
	require.NoError(t, err)
	assert.Equal(t, "revisado", ok.ApprovalNotes)
	assert.NotNil(t, ok.ApprovedAt)
}

func TestWorkflow_EnvioValidaReferencias(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	empty, err := f.uc.Create(ctx, clerk, documents.CreateInput{Kind: entity.DocumentKindPurchase})
	require.NoError(t, err)
	_, err = f.uc.Submit(ctx, clerk, empty.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin líneas no se envía")
	assert.Equal(t, entity.DocumentStatusDraft, f.status(t, empty.ID))

	ghost, err := f.uc.Create(ctx, clerk, documents.CreateInput{Kind: entity.DocumentKindPurchase, Lines: []entity.DocumentLine{
		line("prod-1", "bod-1", 1, 1), line("prod-x", "bod-1", 1, 1),
	}})
	require.NoError(t, err)
	_, err = f.uc.Submit(ctx, clerk, ghost.ID)
	var lpe *domain.LinePostingError
	require.ErrorAs(t, err, &lpe)
	assert.Equal(t, 2, lpe.Line)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWorkflow_EdicionSoloEnBorradorORechazado(t *testing.T) {
	f := newFixture(t, 0)
	doc := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 5, 2))
	_, err := f.uc.UpdateLines(context.Background(), clerk, doc.ID, []entity.DocumentLine{line("prod-1", "bod-1", 1, 1)})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestWorkflow_Cancelacion(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 5, 2))
	c, err := f.uc.Cancel(ctx, clerk, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusCancelled, c.Status)

	_, _, err = f.uc.Process(ctx, approver, doc.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	done := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 5, 2))
	_, _, err = f.uc.Process(ctx, approver, done.ID)
	require.NoError(t, err)
	_, err = f.uc.Cancel(ctx, clerk, done.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition, "un documento procesado no se anula")
}

func TestWorkflow_DocumentoInexistente(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.uc.Submit(context.Background(), clerk, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.Get(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Contabilización (escenarios)
// ──────────────────────────────────────────────────────────────────────────────

// Escenario A: compra 100 @ 10, despacho 30; con mínimo 20 no hay low_stock.
func TestProcess_CompraYDespacho(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()

	buy := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 100, 10))
	processed, recs, err := f.uc.Process(ctx, approver, buy.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusProcessed, processed.Status)
	require.Len(t, recs, 1)
	assert.Equal(t, entity.MovementTypePurchase, recs[0].Type)
	assert.Equal(t, []int64{recs[0].ID}, processed.LinkedMovementIDs)
	assert.Equal(t, approver.ID, processed.ProcessedBy)
	assert.True(t, f.balance(t, key).Equal(d(100)))

	out := f.approved(t, entity.DocumentKindDispatch, line("prod-1", "bod-1", 30, 0))
	_, recs, err = f.uc.Process(ctx, approver, out.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeSale, recs[0].Type)
	assert.True(t, recs[0].UnitCost.Equal(d(10)), "salida valorizada al costo promedio")
	assert.Equal(t, entity.SourceRef{DocumentType: entity.DocumentKindDispatch, DocumentID: out.ID}, recs[0].Source)
	assert.True(t, f.balance(t, key).Equal(d(70)))

	open := false
	lows, err := f.alerts.List(ctx, repository.AlertFilter{IsResolved: &open, AlertType: entity.AlertTypeLowStock})
	require.NoError(t, err)
	assert.Empty(t, lows)
}

// Escenario A con mínimo 80: el despacho deja 70 y abre low_stock.
func TestProcess_DespachoAbreStockBajo(t *testing.T) {
	f := newFixture(t, 80)
	ctx := context.Background()
	buy := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 100, 10))
	_, _, err := f.uc.Process(ctx, approver, buy.ID)
	require.NoError(t, err)
	out := f.approved(t, entity.DocumentKindDispatch, line("prod-1", "bod-1", 30, 0))
	_, _, err = f.uc.Process(ctx, approver, out.ID)
	require.NoError(t, err)

	open := false
	lows, err := f.alerts.List(ctx, repository.AlertFilter{IsResolved: &open, AlertType: entity.AlertTypeLowStock})
	require.NoError(t, err)
	require.Len(t, lows, 1)
	assert.Equal(t, "prod-1", lows[0].ProductID)
}

// Escenario B: ajuste de -10 por daño.
func TestProcess_AjusteNegativo(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	buy := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 50, 4))
	_, _, err := f.uc.Process(ctx, approver, buy.ID)
	require.NoError(t, err)

	damage := line("prod-1", "bod-1", -10, 0)
	damage.Notes = "daño"
	adj := f.approved(t, entity.DocumentKindAdjustment, damage)
	_, recs, err := f.uc.Process(ctx, approver, adj.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, entity.MovementTypeAdjustmentOut, recs[0].Type)
	assert.True(t, recs[0].QuantityOut.Equal(d(10)))
	assert.True(t, recs[0].QuantityIn.IsZero())
	assert.True(t, f.balance(t, key).Equal(d(40)))
}

// Escenario C: process desde pending falla y no cambia el estado.
func TestProcess_DesdePendienteEsIlegal(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc, err := f.uc.Create(ctx, clerk, documents.CreateInput{Kind: entity.DocumentKindPurchase, Lines: []entity.DocumentLine{line("prod-1", "bod-1", 5, 1)}})
	require.NoError(t, err)
	_, err = f.uc.Submit(ctx, clerk, doc.ID)
	require.NoError(t, err)

	_, _, err = f.uc.Process(ctx, approver, doc.ID)
	var ite *domain.IllegalTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, entity.DocumentStatusPending, ite.Status)
	assert.Equal(t, "process", ite.Event)
	assert.Equal(t, entity.DocumentStatusPending, f.status(t, doc.ID))
	assert.Empty(t, f.movements(t, doc))
}

// Escenario D: dos despachos concurrentes de 60 contra 100.
func TestProcess_DespachosConcurrentes(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	buy := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 100, 1))
	_, _, err := f.uc.Process(ctx, approver, buy.ID)
	require.NoError(t, err)

	a := f.approved(t, entity.DocumentKindDispatch, line("prod-1", "bod-1", 60, 0))
	b := f.approved(t, entity.DocumentKindDispatch, line("prod-1", "bod-1", 60, 0))

	var mu sync.Mutex
	var errs []error
	var g errgroup.Group
	for _, id := range []string{a.ID, b.ID} {
		g.Go(func() error {
			_, _, err := f.uc.Process(ctx, approver, id)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.True(t, f.balance(t, key).Equal(d(40)))
	assert.ElementsMatch(t,
		[]entity.DocumentStatus{entity.DocumentStatusProcessed, entity.DocumentStatusApproved},
		[]entity.DocumentStatus{f.status(t, a.ID), f.status(t, b.ID)},
	)
}

func TestProcess_ExactamenteUnaVez(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 10, 1), line("prod-2", "bod-1", 4, 3))
	_, _, err := f.uc.Process(ctx, approver, doc.ID)
	require.NoError(t, err)
	require.Len(t, f.movements(t, doc), 2)

	for i := 0; i < 3; i++ {
		_, _, err = f.uc.Process(ctx, approver, doc.ID)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	}
	assert.Len(t, f.movements(t, doc), 2, "procesar de nuevo no crea movimientos")
	assert.True(t, f.balance(t, key).Equal(d(10)))
}

func TestProcess_LineaFallidaRevierteTodo(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	buy := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 20, 1))
	_, _, err := f.uc.Process(ctx, approver, buy.ID)
	require.NoError(t, err)

	doc := f.approved(t, entity.DocumentKindDispatch,
		line("prod-1", "bod-1", 5, 0),
		line("prod-1", "bod-1", 10, 0),
		line("prod-1", "bod-1", 50, 0),
	)
	_, _, err = f.uc.Process(ctx, approver, doc.ID)
	var lpe *domain.LinePostingError
	require.ErrorAs(t, err, &lpe)
	assert.Equal(t, 3, lpe.Line, "identifica la línea que falla")
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.True(t, ise.Available.Equal(d(5)))

	assert.Equal(t, entity.DocumentStatusApproved, f.status(t, doc.ID), "el documento sigue aprobado")
	assert.Empty(t, f.movements(t, doc), "ningún movimiento parcial")
	assert.True(t, f.balance(t, key).Equal(d(20)))
	got, _ := f.uc.Get(ctx, doc.ID)
	assert.Empty(t, got.LinkedMovementIDs)
	assert.Nil(t, got.ProcessedAt)
}

func TestProcess_Traslado(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	buy := f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 30, 2))
	_, _, err := f.uc.Process(ctx, approver, buy.ID)
	require.NoError(t, err)

	tl := line("prod-1", "bod-1", 12, 0)
	tl.DestinationWarehouseID = "bod-2"
	tr := f.approved(t, entity.DocumentKindTransfer, tl)
	_, recs, err := f.uc.Process(ctx, approver, tr.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, entity.MovementTypeTransferOut, recs[0].Type)
	assert.Equal(t, entity.MovementTypeTransferIn, recs[1].Type)
	assert.True(t, recs[1].UnitCost.Equal(d(2)))

	assert.True(t, f.balance(t, key).Equal(d(18)))
	assert.True(t, f.balance(t, entity.StockKey{ProductID: "prod-1", WarehouseID: "bod-2"}).Equal(d(12)))
}

// El lote destino conserva el vencimiento del lote origen aunque la línea no lo repita.
func TestProcess_TrasladoHeredaVencimientoDelLote(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	exp := time.Now().UTC().Add(5 * 24 * time.Hour).Truncate(time.Second)
	bl := line("prod-1", "bod-1", 10, 3)
	bl.LotNumber = "L1"
	bl.ExpirationDate = &exp
	buy := f.approved(t, entity.DocumentKindPurchase, bl)
	_, _, err := f.uc.Process(ctx, approver, buy.ID)
	require.NoError(t, err)

	tl := line("prod-1", "bod-1", 4, 0)
	tl.LotNumber = "L1"
	tl.DestinationWarehouseID = "bod-2"
	tr := f.approved(t, entity.DocumentKindTransfer, tl)
	_, recs, err := f.uc.Process(ctx, approver, tr.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.NotNil(t, recs[1].ExpirationDate)
	assert.True(t, recs[1].ExpirationDate.Equal(exp))

	states, total, err := f.ledger.Balances(ctx, "prod-1", "bod-2")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.True(t, total.Equal(d(4)))
	require.NotNil(t, states[0].ExpirationDate)
	assert.True(t, states[0].ExpirationDate.Equal(exp))

	open := false
	soon, err := f.alerts.List(ctx, repository.AlertFilter{IsResolved: &open, AlertType: entity.AlertTypeExpiringSoon, WarehouseID: "bod-2"})
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, "prod-1", soon[0].ProductID)
}

func TestProcess_DonacionYDevolucion(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	don := f.approved(t, entity.DocumentKindDonation, line("prod-2", "bod-2", 8, 0))
	_, recs, err := f.uc.Process(ctx, approver, don.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeDonation, recs[0].Type)

	ret := line("prod-2", "bod-2", 2, 0)
	ret.Reason = entity.LineReasonReturn
	exp := line("prod-2", "bod-2", -3, 0)
	exp.Reason = entity.LineReasonExpiry
	adj := f.approved(t, entity.DocumentKindAdjustment, ret, exp)
	_, recs, err = f.uc.Process(ctx, approver, adj.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, entity.MovementTypeReturn, recs[0].Type)
	assert.Equal(t, entity.MovementTypeExpiry, recs[1].Type)
	assert.True(t, f.balance(t, entity.StockKey{ProductID: "prod-2", WarehouseID: "bod-2"}).Equal(d(7)))
}

func TestList_Filtros(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	f.approved(t, entity.DocumentKindPurchase, line("prod-1", "bod-1", 1, 1))
	_, err := f.uc.Create(ctx, clerk, documents.CreateInput{Kind: entity.DocumentKindDonation})
	require.NoError(t, err)

	all, err := f.uc.List(ctx, repository.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	approvedOnly, err := f.uc.List(ctx, repository.DocumentFilter{Status: entity.DocumentStatusApproved})
	require.NoError(t, err)
	require.Len(t, approvedOnly, 1)
	assert.Equal(t, entity.DocumentKindPurchase, approvedOnly[0].Kind)

	_, err = f.uc.List(ctx, repository.DocumentFilter{Status: "raro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
