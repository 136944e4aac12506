package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

type movementRepo struct{ t *tx }

var _ repository.MovementRepository = movementRepo{}

func keyLockName(k entity.StockKey) string {
	return fmt.Sprintf("key|%s|%s|%s", k.ProductID, k.WarehouseID, k.LotNumber)
}

func (r movementRepo) LockKey(ctx context.Context, key entity.StockKey) (*entity.BalanceState, error) {
	if err := r.t.lock(ctx, keyLockName(key)); err != nil {
		return nil, err
	}
	st, ok := r.state(key)
	if !ok {
		st = entity.BalanceState{Key: key}
	}
	return &st, nil
}

func (r movementRepo) state(key entity.StockKey) (entity.BalanceState, bool) {
	if st, ok := r.t.balances[key]; ok {
		return st, true
	}
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	st, ok := r.t.s.balances[key]
	return st, ok
}

func (r movementRepo) Insert(ctx context.Context, m *entity.MovementRecord) error {
	key := m.Key()
	if !r.t.holds(keyLockName(key)) {
		return fmt.Errorf("insert sin bloqueo de la llave %s: %w", key, domain.ErrConflict)
	}
	now := time.Now().UTC()
	r.t.s.mu.Lock()
	r.t.s.lastMovementID++
	m.ID = r.t.s.lastMovementID
	r.t.s.mu.Unlock()
	m.CreatedAt = now

	r.t.movements = append(r.t.movements, *m)
	r.t.balances[key] = entity.BalanceState{
		Key:              key,
		Balance:          m.BalanceQuantity,
		LastMovementID:   m.ID,
		LastMovementDate: m.MovementDate,
		ExpirationDate:   m.ExpirationDate,
		UpdatedAt:        now,
	}
	return r.t.flush()
}

func (r movementRepo) GetBalance(ctx context.Context, key entity.StockKey) (*entity.BalanceState, error) {
	st, ok := r.state(key)
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r movementRepo) LockPair(ctx context.Context, productID, warehouseID string) error {
	return r.t.lock(ctx, "pair|"+productID+"|"+warehouseID)
}

func (r movementRepo) ProductOnHand(ctx context.Context, productID string) (decimal.Decimal, error) {
	merged := make(map[entity.StockKey]decimal.Decimal)
	r.t.s.mu.Lock()
	for k, st := range r.t.s.balances {
		if k.ProductID == productID {
			merged[k] = st.Balance
		}
	}
	r.t.s.mu.Unlock()
	for k, st := range r.t.balances {
		if k.ProductID == productID {
			merged[k] = st.Balance
		}
	}
	total := decimal.Zero
	for _, b := range merged {
		total = total.Add(b)
	}
	return total, nil
}

func (r movementRepo) ListBalances(ctx context.Context, productID, warehouseID string) ([]entity.BalanceState, error) {
	merged := make(map[entity.StockKey]entity.BalanceState)
	r.t.s.mu.Lock()
	for k, st := range r.t.s.balances {
		if k.ProductID == productID && k.WarehouseID == warehouseID {
			merged[k] = st
		}
	}
	r.t.s.mu.Unlock()
	for k, st := range r.t.balances {
		if k.ProductID == productID && k.WarehouseID == warehouseID {
			merged[k] = st
		}
	}
	out := make([]entity.BalanceState, 0, len(merged))
	for _, st := range merged {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.LotNumber < out[j].Key.LotNumber })
	return out, nil
}

// rows historia comprometida más pendiente de la llave, ordenada por (fecha, id).
func (r movementRepo) rows(key entity.StockKey) []entity.MovementRecord {
	r.t.s.mu.Lock()
	out := append([]entity.MovementRecord(nil), r.t.s.movements[key]...)
	r.t.s.mu.Unlock()
	for _, m := range r.t.movements {
		if m.Key() == key {
			out = append(out, m)
		}
	}
	sortHistory(out)
	return out
}

func sortHistory(rows []entity.MovementRecord) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].MovementDate.Equal(rows[j].MovementDate) {
			return rows[i].MovementDate.Before(rows[j].MovementDate)
		}
		return rows[i].ID < rows[j].ID
	})
}

func (r movementRepo) ListHistory(ctx context.Context, q repository.HistoryQuery) ([]entity.MovementRecord, error) {
	var out []entity.MovementRecord
	for _, m := range r.rows(q.Key) {
		if q.From != nil && m.MovementDate.Before(*q.From) {
			continue
		}
		if q.To != nil && m.MovementDate.After(*q.To) {
			continue
		}
		if !q.AfterDate.IsZero() || q.AfterID != 0 {
			if m.MovementDate.Before(q.AfterDate) || (m.MovementDate.Equal(q.AfterDate) && m.ID <= q.AfterID) {
				continue
			}
		}
		out = append(out, m)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (r movementRepo) ListBySource(ctx context.Context, src entity.SourceRef) ([]entity.MovementRecord, error) {
	var out []entity.MovementRecord
	r.t.s.mu.Lock()
	for _, rows := range r.t.s.movements {
		for _, m := range rows {
			if m.Source == src {
				out = append(out, m)
			}
		}
	}
	r.t.s.mu.Unlock()
	for _, m := range r.t.movements {
		if m.Source == src {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
