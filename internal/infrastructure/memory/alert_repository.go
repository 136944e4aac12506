package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

type alertRepo struct{ t *tx }

var _ repository.AlertRepository = alertRepo{}

func alertLockName(productID, warehouseID string, t entity.AlertType) string {
	return fmt.Sprintf("alert|%s|%s|%s", productID, warehouseID, t)
}

func sameAlertSlot(a *entity.InventoryAlert, productID, warehouseID string, t entity.AlertType) bool {
	return a.ProductID == productID && a.WarehouseID == warehouseID && a.AlertType == t
}

// all alertas comprometidas y pendientes en orden de creación.
func (r alertRepo) all() []*entity.InventoryAlert {
	r.t.s.mu.Lock()
	out := make([]*entity.InventoryAlert, 0, len(r.t.s.alertOrder)+len(r.t.newAlerts))
	for _, id := range r.t.s.alertOrder {
		if a, ok := r.t.alerts[id]; ok {
			c := *a
			out = append(out, &c)
			continue
		}
		c := *r.t.s.alerts[id]
		out = append(out, &c)
	}
	r.t.s.mu.Unlock()
	for _, id := range r.t.newAlerts {
		c := *r.t.alerts[id]
		out = append(out, &c)
	}
	return out
}

func (r alertRepo) FindOpen(ctx context.Context, productID, warehouseID string, t entity.AlertType) (*entity.InventoryAlert, error) {
	if err := r.t.lock(ctx, alertLockName(productID, warehouseID, t)); err != nil {
		return nil, err
	}
	for _, a := range r.all() {
		if !a.IsResolved && sameAlertSlot(a, productID, warehouseID, t) {
			return a, nil
		}
	}
	return nil, nil
}

func (r alertRepo) FindLatest(ctx context.Context, productID, warehouseID string, t entity.AlertType) (*entity.InventoryAlert, error) {
	if err := r.t.lock(ctx, alertLockName(productID, warehouseID, t)); err != nil {
		return nil, err
	}
	all := r.all()
	for i := len(all) - 1; i >= 0; i-- {
		if sameAlertSlot(all[i], productID, warehouseID, t) {
			return all[i], nil
		}
	}
	return nil, nil
}

func (r alertRepo) Create(ctx context.Context, a *entity.InventoryAlert) (bool, error) {
	open, err := r.FindOpen(ctx, a.ProductID, a.WarehouseID, a.AlertType)
	if err != nil {
		return false, err
	}
	if open != nil {
		return false, nil
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	c := *a
	r.t.alerts[a.ID] = &c
	r.t.newAlerts = append(r.t.newAlerts, a.ID)
	return true, r.t.flush()
}

func (r alertRepo) Update(ctx context.Context, a *entity.InventoryAlert) error {
	if cur, _ := r.GetByID(ctx, a.ID); cur == nil {
		return fmt.Errorf("alerta %s: %w", a.ID, domain.ErrNotFound)
	}
	a.UpdatedAt = time.Now().UTC()
	c := *a
	r.t.alerts[a.ID] = &c
	return r.t.flush()
}

func (r alertRepo) GetByID(ctx context.Context, id string) (*entity.InventoryAlert, error) {
	if a, ok := r.t.alerts[id]; ok {
		c := *a
		return &c, nil
	}
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	a, ok := r.t.s.alerts[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r alertRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryAlert, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil || a == nil {
		return a, err
	}
	if err := r.t.lock(ctx, alertLockName(a.ProductID, a.WarehouseID, a.AlertType)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r alertRepo) List(ctx context.Context, f repository.AlertFilter) ([]*entity.InventoryAlert, error) {
	var out []*entity.InventoryAlert
	for _, a := range r.all() {
		if f.IsResolved != nil && a.IsResolved != *f.IsResolved {
			continue
		}
		if f.AlertType != "" && a.AlertType != f.AlertType {
			continue
		}
		if f.Priority != "" && a.Priority != f.Priority {
			continue
		}
		if f.ProductID != "" && a.ProductID != f.ProductID {
			continue
		}
		if f.WarehouseID != "" && a.WarehouseID != f.WarehouseID {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Offset, f.Limit), nil
}
