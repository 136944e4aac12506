// Package alerts mantiene las alertas de stock consistentes con el saldo tras cada contabilización.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

// DefaultExpiryWindow ventana de "próximo a vencer".
const DefaultExpiryWindow = 30 * 24 * time.Hour

// SystemActor actor de las resoluciones automáticas.
const SystemActor = "system"

var priorities = map[entity.AlertType]entity.AlertPriority{
	entity.AlertTypeExpired:      entity.AlertPriorityCritical,
	entity.AlertTypeOutOfStock:   entity.AlertPriorityHigh,
	entity.AlertTypeLowStock:     entity.AlertPriorityMedium,
	entity.AlertTypeExpiringSoon: entity.AlertPriorityMedium,
	entity.AlertTypeOverstock:    entity.AlertPriorityLow,
}

// PriorityOf prioridad fija de cada tipo de alerta.
func PriorityOf(t entity.AlertType) entity.AlertPriority { return priorities[t] }

// Evaluator evalúa umbrales por (producto, bodega) y abre o resuelve alertas de forma idempotente.
// Solo lee movimientos y saldos; nunca los modifica.
type Evaluator struct {
	window time.Duration
	now    func() time.Time
	log    *logger.Logger
}

// NewEvaluator construye el evaluador. window <= 0 usa DefaultExpiryWindow.
func NewEvaluator(window time.Duration, log *logger.Logger) *Evaluator {
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{window: window, now: func() time.Time { return time.Now().UTC() }, log: log}
}

// WithClock reemplaza el reloj (tests).
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

type pair struct{ productID, warehouseID string }

// condition resultado de evaluar un tipo de alerta.
type condition struct {
	alertType entity.AlertType
	active    bool
	message   string
	cleared   string // motivo de la auto-resolución
}

// Evaluate reevalúa solo los pares (producto, bodega) tocados por keys, en orden estable.
func (e *Evaluator) Evaluate(ctx context.Context, repos repository.TxRepos, keys []entity.StockKey) error {
	seen := make(map[pair]bool, len(keys))
	pairs := make([]pair, 0, len(keys))
	for _, k := range keys {
		p := pair{k.ProductID, k.WarehouseID}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].productID != pairs[j].productID {
			return pairs[i].productID < pairs[j].productID
		}
		return pairs[i].warehouseID < pairs[j].warehouseID
	})
	for _, p := range pairs {
		if err := e.evaluatePair(ctx, repos, p); err != nil {
			return fmt.Errorf("alertas %s@%s: %w", p.productID, p.warehouseID, err)
		}
	}
	return nil
}

func (e *Evaluator) evaluatePair(ctx context.Context, repos repository.TxRepos, p pair) error {
	product, err := repos.Products.GetByID(ctx, p.productID)
	if err != nil {
		return err
	}
	if product == nil {
		return nil
	}
	// Dos appends a lotes distintos del mismo par no deben decidir sobre saldos cruzados.
	if err := repos.Movements.LockPair(ctx, p.productID, p.warehouseID); err != nil {
		return err
	}
	lots, err := repos.Movements.ListBalances(ctx, p.productID, p.warehouseID)
	if err != nil {
		return err
	}
	for _, c := range e.conditions(product, lots) {
		if err := e.apply(ctx, repos, p, c); err != nil {
			return err
		}
	}
	return nil
}

// conditions el orden importa solo para la lectura de logs.
func (e *Evaluator) conditions(product *entity.Product, lots []entity.BalanceState) []condition {
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.Balance)
	}
	now := e.now()
	var expired, expiring []string
	for _, l := range lots {
		if !l.Balance.IsPositive() || l.ExpirationDate == nil {
			continue
		}
		label := lotLabel(l)
		switch {
		case l.ExpirationDate.Before(now):
			expired = append(expired, label)
		case !l.ExpirationDate.After(now.Add(e.window)):
			expiring = append(expiring, label)
		}
	}

	minimum := product.MinimumStock
	conds := []condition{
		{
			alertType: entity.AlertTypeOutOfStock,
			active:    !total.IsPositive(),
			message:   fmt.Sprintf("Sin stock de %s", productLabel(product)),
			cleared:   fmt.Sprintf("stock repuesto (%s)", total),
		},
		{
			alertType: entity.AlertTypeLowStock,
			active:    total.IsPositive() && minimum.IsPositive() && total.LessThan(minimum),
			message:   fmt.Sprintf("Stock bajo de %s: %s (mínimo %s)", productLabel(product), total, minimum),
			cleared:   fmt.Sprintf("stock %s fuera del rango bajo (mínimo %s)", total, minimum),
		},
	}
	over := condition{alertType: entity.AlertTypeOverstock, cleared: fmt.Sprintf("stock %s dentro del máximo", total)}
	if product.MaximumStock != nil {
		over.active = total.GreaterThan(*product.MaximumStock)
		over.message = fmt.Sprintf("Sobrestock de %s: %s (máximo %s)", productLabel(product), total, *product.MaximumStock)
	}
	conds = append(conds, over,
		condition{
			alertType: entity.AlertTypeExpired,
			active:    len(expired) > 0,
			message:   fmt.Sprintf("Lotes vencidos de %s: %s", productLabel(product), strings.Join(expired, ", ")),
			cleared:   "sin lotes vencidos con existencias",
		},
		condition{
			alertType: entity.AlertTypeExpiringSoon,
			active:    len(expiring) > 0,
			message:   fmt.Sprintf("Lotes de %s por vencer en %d días: %s", productLabel(product), int(e.window.Hours()/24), strings.Join(expiring, ", ")),
			cleared:   "sin lotes próximos a vencer con existencias",
		},
	)
	return conds
}

func (e *Evaluator) apply(ctx context.Context, repos repository.TxRepos, p pair, c condition) error {
	open, err := repos.Alerts.FindOpen(ctx, p.productID, p.warehouseID, c.alertType)
	if err != nil {
		return err
	}
	now := e.now()

	if c.active {
		if open != nil {
			if open.Message == c.message {
				return nil
			}
			open.Message = c.message
			return repos.Alerts.Update(ctx, open)
		}
		latest, err := repos.Alerts.FindLatest(ctx, p.productID, p.warehouseID, c.alertType)
		if err != nil {
			return err
		}
		if latest != nil && latest.SuppressReopen {
			return nil
		}
		a := &entity.InventoryAlert{
			ProductID:   p.productID,
			WarehouseID: p.warehouseID,
			AlertType:   c.alertType,
			Priority:    PriorityOf(c.alertType),
			Message:     c.message,
			CreatedAt:   now,
		}
		created, err := repos.Alerts.Create(ctx, a)
		if err != nil {
			return err
		}
		if created {
			e.log.Info().Str("alert_id", a.ID).Str("product_id", p.productID).Str("warehouse_id", p.warehouseID).
				Str("type", string(c.alertType)).Str("priority", string(a.Priority)).Msg("alerta abierta")
		}
		return nil
	}

	if open != nil {
		open.IsResolved = true
		open.ResolvedAt = &now
		open.ResolvedBy = SystemActor
		open.ResolutionNotes = entity.AutoResolvedPrefix + ": " + c.cleared
		if err := repos.Alerts.Update(ctx, open); err != nil {
			return err
		}
		e.log.Info().Str("alert_id", open.ID).Str("type", string(c.alertType)).Msg("alerta auto-resuelta")
		return nil
	}
	latest, err := repos.Alerts.FindLatest(ctx, p.productID, p.warehouseID, c.alertType)
	if err != nil {
		return err
	}
	if latest != nil && latest.SuppressReopen {
		latest.SuppressReopen = false
		return repos.Alerts.Update(ctx, latest)
	}
	return nil
}

func productLabel(p *entity.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func lotLabel(l entity.BalanceState) string {
	lot := l.Key.LotNumber
	if lot == "" {
		lot = "sin lote"
	}
	return fmt.Sprintf("%s (%s, %s u)", lot, l.ExpirationDate.Format("2006-01-02"), l.Balance)
}
