package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

type productRepo struct{ t *tx }

var _ repository.ProductRepository = productRepo{}

func (r productRepo) get(id string) (entity.Product, bool) {
	if p, ok := r.t.products[id]; ok {
		return p, true
	}
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	p, ok := r.t.s.products[id]
	return p, ok
}

func (r productRepo) Create(ctx context.Context, p *entity.Product) error {
	if _, ok := r.get(p.ID); ok {
		return fmt.Errorf("producto %s: %w", p.ID, domain.ErrDuplicate)
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.t.products[p.ID] = *p
	return r.t.flush()
}

func (r productRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if err := r.t.lock(ctx, "product|"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r productRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	p, ok := r.get(productID)
	if !ok {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	p.Cost = cost
	p.UpdatedAt = time.Now().UTC()
	r.t.products[productID] = p
	return r.t.flush()
}

func (r productRepo) UpdateThresholds(ctx context.Context, productID string, minStock decimal.Decimal, maxStock *decimal.Decimal) error {
	p, ok := r.get(productID)
	if !ok {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	p.MinimumStock = minStock
	p.MaximumStock = nil
	if maxStock != nil {
		m := *maxStock
		p.MaximumStock = &m
	}
	p.UpdatedAt = time.Now().UTC()
	r.t.products[productID] = p
	return r.t.flush()
}

type warehouseRepo struct{ t *tx }

var _ repository.WarehouseRepository = warehouseRepo{}

func (r warehouseRepo) get(id string) (entity.Warehouse, bool) {
	if w, ok := r.t.warehouses[id]; ok {
		return w, true
	}
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	w, ok := r.t.s.warehouses[id]
	return w, ok
}

func (r warehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	if _, ok := r.get(w.ID); ok {
		return fmt.Errorf("bodega %s: %w", w.ID, domain.ErrDuplicate)
	}
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	r.t.warehouses[w.ID] = *w
	return r.t.flush()
}

func (r warehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return &w, nil
}
