//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/mariano55555/bodega-sub009/internal/application/alerts"
	"github.com/mariano55555/bodega-sub009/internal/application/documents"
	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/application/poster"
	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/inventory"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/internal/infrastructure/postgres"
	"github.com/mariano55555/bodega-sub009/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Harness: PostgreSQL real en contenedor
// ──────────────────────────────────────────────────────────────────────────────

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

var key = entity.StockKey{ProductID: "prod-1", WarehouseID: "bod-1"}

type harness struct {
	pool   *pgxpool.Pool
	ledger *ledger.Ledger
	docs   *documents.UseCase
	alerts *alerts.UseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bodega_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "no se pudo iniciar el contenedor de PostgreSQL")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := postgres.NewMigrator(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 40})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repos := postgres.NewRepos(pool)
	now := time.Now()
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "prod-1", SKU: "SKU-1", Name: "Harina", MinimumStock: d(20), CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "bod-1", Name: "Central", Active: true, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "bod-2", Name: "Norte", Active: true, CreatedAt: now, UpdatedAt: now}))

	tx := postgres.NewTxRunner(pool, 2*time.Second)
	retry := ledger.RetryPolicy{MaxAttempts: 5, Backoff: 5 * time.Millisecond}
	ev := alerts.NewEvaluator(0, nil)
	l := ledger.New(tx, repos.Movements, ev, nil, ledger.Options{Retry: retry, PageSize: 3})
	return &harness{
		pool:   pool,
		ledger: l,
		docs:   documents.NewUseCase(tx, repos.Documents, poster.New(l, ev), retry, nil),
		alerts: alerts.NewUseCase(tx, repos.Alerts, ev, retry, nil),
	}
}

func (h *harness) append(t *testing.T, typ entity.MovementType, in, out int64) (*entity.MovementRecord, error) {
	t.Helper()
	return h.ledger.Append(context.Background(), ledger.AppendInput{
		Key: key, Type: typ, QuantityIn: d(in), QuantityOut: d(out), UnitCost: d(10), CreatedBy: "u1",
	})
}

func (h *harness) history(t *testing.T) []entity.MovementRecord {
	t.Helper()
	var rows []entity.MovementRecord
	for row, err := range h.ledger.History(context.Background(), key, ledger.DateRange{}) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return rows
}

// ──────────────────────────────────────────────────────────────────────────────
// Libro de movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_LibroYSalidasConcurrentes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.append(t, entity.MovementTypePurchase, 100, 0)
	require.NoError(t, err)

	var ok, insufficient atomic.Int64
	var g errgroup.Group
	for i := 0; i < 30; i++ {
		g.Go(func() error {
			_, err := h.ledger.Append(ctx, ledger.AppendInput{
				Key: key, Type: entity.MovementTypeSale, QuantityOut: d(7), CreatedBy: "u1",
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(14), ok.Load())
	assert.Equal(t, int64(16), insufficient.Load())

	bal, err := h.ledger.CurrentBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, bal.Equal(d(2)), "saldo final %s", bal)

	rows := h.history(t)
	require.Len(t, rows, 15, "el historial pagina por keyset sin perder filas")
	idx, err := inventory.VerifyChain(rows)
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestPostgres_MovimientosSonSoloInsercion(t *testing.T) {
	h := newHarness(t)
	rec, err := h.append(t, entity.MovementTypePurchase, 5, 0)
	require.NoError(t, err)

	_, err = h.pool.Exec(context.Background(), `UPDATE inventory_movements SET quantity_in = 50 WHERE id = $1`, rec.ID)
	require.Error(t, err, "el trigger debe impedir modificar movimientos")
	_, err = h.pool.Exec(context.Background(), `DELETE FROM inventory_movements WHERE id = $1`, rec.ID)
	require.Error(t, err)
}

func TestPostgres_SaldoNuncaNegativo(t *testing.T) {
	h := newHarness(t)
	_, err := h.append(t, entity.MovementTypeSale, 0, 1)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, h.history(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos y alertas
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_DocumentoProcesadoGeneraMovimientosYAlertas(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	clerk := documents.Actor{ID: "u-bodega"}
	boss := documents.Actor{ID: "u-jefe", CanApprove: true}

	doc, err := h.docs.Create(ctx, clerk, documents.CreateInput{
		Kind: entity.DocumentKindPurchase,
		Lines: []entity.DocumentLine{
			{ProductID: "prod-1", WarehouseID: "bod-1", Quantity: d(15), UnitCost: d(4)},
		},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^COM-\d{6}-00001$`, doc.Number)

	_, err = h.docs.Submit(ctx, clerk, doc.ID)
	require.NoError(t, err)
	_, err = h.docs.Approve(ctx, boss, doc.ID, "ok")
	require.NoError(t, err)
	doc, records, err := h.docs.Process(ctx, clerk, doc.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.DocumentStatusProcessed, doc.Status)
	assert.Equal(t, []int64{records[0].ID}, doc.LinkedMovementIDs)

	_, _, err = h.docs.Process(ctx, clerk, doc.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition, "un documento se contabiliza una sola vez")

	open := false
	list, err := h.alerts.List(ctx, repository.AlertFilter{IsResolved: &open})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.AlertTypeLowStock, list[0].AlertType, "15 < mínimo 20")

	resolved, err := h.alerts.Resolve(ctx, list[0].ID, "u-jefe", "revisado")
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)

	reloaded, err := h.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 1)
	assert.True(t, reloaded.Lines[0].Quantity.Equal(d(15)))
}

func TestPostgres_LineaFallidaRevierteTodo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	clerk := documents.Actor{ID: "u-bodega"}
	boss := documents.Actor{ID: "u-jefe", CanApprove: true}

	doc, err := h.docs.Create(ctx, clerk, documents.CreateInput{
		Kind: entity.DocumentKindDispatch,
		Lines: []entity.DocumentLine{
			{ProductID: "prod-1", WarehouseID: "bod-2", Quantity: d(1)},
		},
	})
	require.NoError(t, err)
	_, err = h.docs.Submit(ctx, clerk, doc.ID)
	require.NoError(t, err)
	_, err = h.docs.Approve(ctx, boss, doc.ID, "")
	require.NoError(t, err)

	_, _, err = h.docs.Process(ctx, clerk, doc.ID)
	var lineErr *domain.LinePostingError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Line)

	after, err := h.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusApproved, after.Status)
	assert.Empty(t, after.LinkedMovementIDs)
}
