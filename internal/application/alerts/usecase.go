package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

// UseCase consultas y resolución manual de alertas.
type UseCase struct {
	txRunner  ledger.TxRunner
	alerts    repository.AlertRepository
	evaluator *Evaluator
	retry     ledger.RetryPolicy
	log       *logger.Logger
}

// NewUseCase construye el caso de uso. alerts se usa para lecturas fuera de transacción.
func NewUseCase(txRunner ledger.TxRunner, alerts repository.AlertRepository, evaluator *Evaluator, retry ledger.RetryPolicy, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{txRunner: txRunner, alerts: alerts, evaluator: evaluator, retry: retry, log: log}
}

// List alertas filtradas por estado, tipo, prioridad, producto o bodega.
func (uc *UseCase) List(ctx context.Context, f repository.AlertFilter) ([]*entity.InventoryAlert, error) {
	if f.AlertType != "" && !f.AlertType.Valid() {
		return nil, fmt.Errorf("tipo de alerta %q: %w", f.AlertType, domain.ErrInvalidInput)
	}
	return uc.alerts.List(ctx, f)
}

// Get alerta por id.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.InventoryAlert, error) {
	a, err := uc.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// Resolve resolución manual. Mientras la condición persista el evaluador no reabre el tipo.
func (uc *UseCase) Resolve(ctx context.Context, id, actorID, notes string) (*entity.InventoryAlert, error) {
	if actorID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.InventoryAlert
	err := ledger.RunWithRetry(ctx, uc.txRunner, uc.retry, func(ctx context.Context, repos repository.TxRepos) error {
		a, err := repos.Alerts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.ErrNotFound
		}
		if a.IsResolved {
			return fmt.Errorf("alerta %s ya resuelta: %w", id, domain.ErrConflict)
		}
		now := time.Now().UTC()
		a.IsResolved = true
		a.ResolvedAt = &now
		a.ResolvedBy = actorID
		a.ResolutionNotes = entity.ManualResolvedPrefix + ": " + strings.TrimSpace(notes)
		a.SuppressReopen = true
		if err := repos.Alerts.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("alert_id", id).Str("actor", actorID).Msg("alerta resuelta manualmente")
	return out, nil
}

// Reevaluate fuerza la evaluación de (producto, bodega) y devuelve sus alertas abiertas.
// Útil para el paso del tiempo sobre lotes con vencimiento, que no genera movimientos.
func (uc *UseCase) Reevaluate(ctx context.Context, productID, warehouseID string) ([]*entity.InventoryAlert, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	err := ledger.RunWithRetry(ctx, uc.txRunner, uc.retry, func(ctx context.Context, repos repository.TxRepos) error {
		p, err := repos.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
		}
		return uc.evaluator.Evaluate(ctx, repos, []entity.StockKey{{ProductID: productID, WarehouseID: warehouseID}})
	})
	if err != nil {
		return nil, err
	}
	open := false
	return uc.alerts.List(ctx, repository.AlertFilter{IsResolved: &open, ProductID: productID, WarehouseID: warehouseID})
}
