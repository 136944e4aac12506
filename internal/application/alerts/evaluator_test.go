package alerts_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariano55555/bodega-sub009/internal/application/alerts"
	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var key = entity.StockKey{ProductID: "prod-1", WarehouseID: "bod-1"}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	store     *memory.Store
	ledger    *ledger.Ledger
	evaluator *alerts.Evaluator
	uc        *alerts.UseCase
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(time.Second), now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	repos := f.store.Repos()
	ctx := context.Background()
	max := d(150)
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "prod-1", Name: "Leche", MinimumStock: d(20), MaximumStock: &max}))
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "bod-1", Name: "Central", Active: true}))

	tx := memory.NewTxRunner(f.store)
	f.evaluator = alerts.NewEvaluator(30*24*time.Hour, nil).WithClock(func() time.Time { return f.now })
	f.ledger = ledger.New(tx, repos.Movements, f.evaluator, nil, ledger.Options{})
	f.uc = alerts.NewUseCase(tx, repos.Alerts, f.evaluator, ledger.DefaultRetryPolicy, nil)
	return f
}

func (f *fixture) move(t *testing.T, k entity.StockKey, typ entity.MovementType, qty int64, exp *time.Time) {
	t.Helper()
	in := ledger.AppendInput{Key: k, Type: typ, ExpirationDate: exp, UnitCost: d(1)}
	if typ.IsInbound() {
		in.QuantityIn = d(qty)
	} else {
		in.QuantityOut = d(qty)
	}
	_, err := f.ledger.Append(context.Background(), in)
	require.NoError(t, err)
}

func (f *fixture) list(t *testing.T, resolved *bool, typ entity.AlertType) []*entity.InventoryAlert {
	t.Helper()
	out, err := f.uc.List(context.Background(), repository.AlertFilter{IsResolved: resolved, AlertType: typ, ProductID: "prod-1"})
	require.NoError(t, err)
	return out
}

func ptr(b bool) *bool { return &b }

// ──────────────────────────────────────────────────────────────────────────────
// Umbrales
// ──────────────────────────────────────────────────────────────────────────────

func TestEvaluate_StockBajoYRecuperacion(t *testing.T) {
	f := newFixture(t)
	f.move(t, key, entity.MovementTypePurchase, 100, nil)
	assert.Empty(t, f.list(t, ptr(false), ""), "100 >= mínimo 20: sin alertas")

	f.move(t, key, entity.MovementTypeSale, 90, nil)
	open := f.list(t, ptr(false), entity.AlertTypeLowStock)
	require.Len(t, open, 1)
	assert.Equal(t, entity.AlertPriorityMedium, open[0].Priority)
	assert.Contains(t, open[0].Message, "mínimo 20")

	f.move(t, key, entity.MovementTypePurchase, 50, nil)
	assert.Empty(t, f.list(t, ptr(false), entity.AlertTypeLowStock))
	resolved := f.list(t, ptr(true), entity.AlertTypeLowStock)
	require.Len(t, resolved, 1)
	assert.True(t, strings.HasPrefix(resolved[0].ResolutionNotes, "Auto-resuelto:"))
	assert.Equal(t, alerts.SystemActor, resolved[0].ResolvedBy)
	assert.NotNil(t, resolved[0].ResolvedAt)
}

func TestEvaluate_SinStockResuelveStockBajo(t *testing.T) {
	f := newFixture(t)
	f.move(t, key, entity.MovementTypePurchase, 30, nil)
	f.move(t, key, entity.MovementTypeSale, 15, nil)
	require.Len(t, f.list(t, ptr(false), entity.AlertTypeLowStock), 1)

	f.move(t, key, entity.MovementTypeSale, 15, nil)
	out := f.list(t, ptr(false), entity.AlertTypeOutOfStock)
	require.Len(t, out, 1)
	assert.Equal(t, entity.AlertPriorityHigh, out[0].Priority)
	assert.Empty(t, f.list(t, ptr(false), entity.AlertTypeLowStock), "out_of_stock resuelve low_stock")
}

func TestEvaluate_Sobrestock(t *testing.T) {
	f := newFixture(t)
	f.move(t, key, entity.MovementTypePurchase, 200, nil)
	over := f.list(t, ptr(false), entity.AlertTypeOverstock)
	require.Len(t, over, 1)
	assert.Equal(t, entity.AlertPriorityLow, over[0].Priority)

	f.move(t, key, entity.MovementTypeSale, 60, nil)
	assert.Empty(t, f.list(t, ptr(false), entity.AlertTypeOverstock))
}

func TestEvaluate_Idempotente(t *testing.T) {
	f := newFixture(t)
	f.move(t, key, entity.MovementTypePurchase, 10, nil)
	for i := 0; i < 3; i++ {
		_, err := f.uc.Reevaluate(context.Background(), "prod-1", "bod-1")
		require.NoError(t, err)
	}
	assert.Len(t, f.list(t, ptr(false), entity.AlertTypeLowStock), 1, "a lo sumo una alerta abierta por tipo")
	assert.Len(t, f.list(t, nil, ""), 1)
}

func TestEvaluate_VencimientoPorLote(t *testing.T) {
	f := newFixture(t)
	soon := f.now.Add(10 * 24 * time.Hour)
	far := f.now.Add(90 * 24 * time.Hour)
	f.move(t, entity.StockKey{ProductID: "prod-1", WarehouseID: "bod-1", LotNumber: "L-1"}, entity.MovementTypePurchase, 40, &soon)
	f.move(t, entity.StockKey{ProductID: "prod-1", WarehouseID: "bod-1", LotNumber: "L-2"}, entity.MovementTypePurchase, 40, &far)

	exp := f.list(t, ptr(false), entity.AlertTypeExpiringSoon)
	require.Len(t, exp, 1)
	assert.Contains(t, exp[0].Message, "L-1")
	assert.NotContains(t, exp[0].Message, "L-2")

	// el tiempo pasa: el lote vence
	f.now = soon.Add(time.Hour)
	_, err := f.uc.Reevaluate(context.Background(), "prod-1", "bod-1")
	require.NoError(t, err)
	expired := f.list(t, ptr(false), entity.AlertTypeExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, entity.AlertPriorityCritical, expired[0].Priority)
	assert.Empty(t, f.list(t, ptr(false), entity.AlertTypeExpiringSoon))

	// dar de baja el lote vencido resuelve la alerta
	f.move(t, entity.StockKey{ProductID: "prod-1", WarehouseID: "bod-1", LotNumber: "L-1"}, entity.MovementTypeExpiry, 40, nil)
	assert.Empty(t, f.list(t, ptr(false), entity.AlertTypeExpired))
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia entre lotes del mismo par
// ──────────────────────────────────────────────────────────────────────────────

type laneKey struct{}

// hookedMovements llama a onList después de cada lectura de saldos del par.
type hookedMovements struct {
	repository.MovementRepository
	onList func(ctx context.Context)
}

func (h hookedMovements) ListBalances(ctx context.Context, productID, warehouseID string) ([]entity.BalanceState, error) {
	states, err := h.MovementRepository.ListBalances(ctx, productID, warehouseID)
	if err == nil {
		h.onList(ctx)
	}
	return states, err
}

type hookedRunner struct {
	inner  *memory.TxRunner
	onList func(ctx context.Context)
}

func (r hookedRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	return r.inner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		repos.Movements = hookedMovements{MovementRepository: repos.Movements, onList: r.onList}
		return fn(ctx, repos)
	})
}

// Dos ventas a lotes distintos: la segunda evalúa con la primera ya confirmada.
func TestEvaluate_LotesConcurrentesVenSaldoConfirmado(t *testing.T) {
	f := newFixture(t)
	lotA := entity.StockKey{ProductID: "prod-1", WarehouseID: "bod-1", LotNumber: "A"}
	lotB := entity.StockKey{ProductID: "prod-1", WarehouseID: "bod-1", LotNumber: "B"}
	f.move(t, lotA, entity.MovementTypePurchase, 5, nil)
	f.move(t, lotB, entity.MovementTypePurchase, 5, nil)
	require.Len(t, f.list(t, ptr(false), entity.AlertTypeLowStock), 1)

	aRead, bRead := make(chan struct{}), make(chan struct{})
	var onceA, onceB sync.Once
	onList := func(ctx context.Context) {
		switch ctx.Value(laneKey{}) {
		case "A":
			onceA.Do(func() { close(aRead) })
			// la venta del lote B tiene esta ventana para leer saldos cruzados
			select {
			case <-bRead:
			case <-time.After(300 * time.Millisecond):
			}
		case "B":
			onceB.Do(func() { close(bRead) })
		}
	}
	l := ledger.New(hookedRunner{inner: memory.NewTxRunner(f.store), onList: onList}, f.store.Repos().Movements, f.evaluator, nil, ledger.Options{})

	sell := func(lane string, k entity.StockKey) error {
		ctx := context.WithValue(context.Background(), laneKey{}, lane)
		_, err := l.Append(ctx, ledger.AppendInput{Key: k, Type: entity.MovementTypeSale, QuantityOut: d(5)})
		return err
	}

	var wg sync.WaitGroup
	var errA, errB error
	wg.Add(1)
	go func() {
		defer wg.Done()
		errA = sell("A", lotA)
	}()
	<-aRead
	errB = sell("B", lotB)
	wg.Wait()
	require.NoError(t, errA)
	require.NoError(t, errB)

	_, total, err := f.ledger.Balances(context.Background(), "prod-1", "bod-1")
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.Len(t, f.list(t, ptr(false), entity.AlertTypeOutOfStock), 1, "el par quedó sin existencias")
	assert.Empty(t, f.list(t, ptr(false), entity.AlertTypeLowStock))
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolución manual
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_ManualNoSeReabreMientrasPersista(t *testing.T) {
	f := newFixture(t)
	f.move(t, key, entity.MovementTypePurchase, 10, nil)
	open := f.list(t, ptr(false), entity.AlertTypeLowStock)
	require.Len(t, open, 1)

	a, err := f.uc.Resolve(context.Background(), open[0].ID, "u-7", "pedido en camino")
	require.NoError(t, err)
	assert.True(t, a.IsResolved)
	assert.Equal(t, "Resuelto manualmente: pedido en camino", a.ResolutionNotes)
	assert.Equal(t, "u-7", a.ResolvedBy)

	// la condición persiste: no se reabre
	f.move(t, key, entity.MovementTypeSale, 2, nil)
	_, err = f.uc.Reevaluate(context.Background(), "prod-1", "bod-1")
	require.NoError(t, err)
	assert.Empty(t, f.list(t, ptr(false), entity.AlertTypeLowStock))

	// la condición desaparece y reaparece: nueva alerta
	f.move(t, key, entity.MovementTypePurchase, 50, nil)
	f.move(t, key, entity.MovementTypeSale, 50, nil)
	reopened := f.list(t, ptr(false), entity.AlertTypeLowStock)
	require.Len(t, reopened, 1)
	assert.NotEqual(t, open[0].ID, reopened[0].ID)
}

func TestResolve_Errores(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Resolve(context.Background(), "no-existe", "u-1", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.move(t, key, entity.MovementTypePurchase, 10, nil)
	open := f.list(t, ptr(false), entity.AlertTypeLowStock)
	require.Len(t, open, 1)
	_, err = f.uc.Resolve(context.Background(), open[0].ID, "", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Resolve(context.Background(), open[0].ID, "u-1", "x")
	require.NoError(t, err)
	_, err = f.uc.Resolve(context.Background(), open[0].ID, "u-1", "x")
	assert.ErrorIs(t, err, domain.ErrConflict, "no se resuelve dos veces")
}

func TestList_FiltroInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.List(context.Background(), repository.AlertFilter{AlertType: "raro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
