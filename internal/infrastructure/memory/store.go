// Package memory implementa todos los puertos de repositorio en memoria, con transacciones:
// bloqueos por llave con timeout y escrituras diferidas que se aplican al hacer commit.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

// DefaultLockTimeout espera máxima por un bloqueo antes de devolver ConcurrencyConflictError.
const DefaultLockTimeout = 2 * time.Second

// Store estado comprometido. Todas las lecturas y el commit pasan por mu.
type Store struct {
	mu          sync.Mutex
	locks       *lockTable
	lockTimeout time.Duration

	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse
	movements  map[entity.StockKey][]entity.MovementRecord
	balances   map[entity.StockKey]entity.BalanceState
	documents  map[string]*entity.Document
	sequences  map[string]int64
	alerts     map[string]*entity.InventoryAlert
	alertOrder []string

	lastMovementID int64
}

// NewStore crea un store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
		products:    make(map[string]entity.Product),
		warehouses:  make(map[string]entity.Warehouse),
		movements:   make(map[entity.StockKey][]entity.MovementRecord),
		balances:    make(map[entity.StockKey]entity.BalanceState),
		documents:   make(map[string]*entity.Document),
		sequences:   make(map[string]int64),
		alerts:      make(map[string]*entity.InventoryAlert),
	}
}

// Repos repositorios fuera de transacción: las lecturas ven el estado comprometido y
// cada escritura se compromete de inmediato.
func (s *Store) Repos() repository.TxRepos {
	return newTx(s, true).repos()
}

// TxRunner ejecuta funciones transaccionales sobre el store.
type TxRunner struct {
	store *Store
}

// NewTxRunner crea un TxRunner sobre store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repositorios ligados a una transacción nueva.
// Commit si fn termina sin error; si no, se descartan las escrituras. Los bloqueos se liberan siempre.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) (err error) {
	t := newTx(r.store, false)
	defer t.release()
	if err := fn(ctx, t.repos()); err != nil {
		return err
	}
	return t.commit()
}

// tx escrituras pendientes y bloqueos de una transacción.
type tx struct {
	s    *Store
	auto bool
	held []string
	mine map[string]bool

	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse
	movements  []entity.MovementRecord
	balances   map[entity.StockKey]entity.BalanceState
	documents  map[string]*entity.Document
	newDocs    map[string]bool
	alerts     map[string]*entity.InventoryAlert
	newAlerts  []string
}

func newTx(s *Store, auto bool) *tx {
	return &tx{
		s:          s,
		auto:       auto,
		mine:       make(map[string]bool),
		products:   make(map[string]entity.Product),
		warehouses: make(map[string]entity.Warehouse),
		balances:   make(map[entity.StockKey]entity.BalanceState),
		documents:  make(map[string]*entity.Document),
		newDocs:    make(map[string]bool),
		alerts:     make(map[string]*entity.InventoryAlert),
	}
}

func (t *tx) repos() repository.TxRepos {
	return repository.TxRepos{
		Movements:  movementRepo{t},
		Documents:  documentRepo{t},
		Alerts:     alertRepo{t},
		Products:   productRepo{t},
		Warehouses: warehouseRepo{t},
	}
}

// lock toma el bloqueo name hasta el fin de la transacción. Es reentrante.
func (t *tx) lock(ctx context.Context, name string) error {
	if t.auto || t.mine[name] {
		return nil
	}
	if err := t.s.locks.acquire(ctx, name, t.s.lockTimeout); err != nil {
		return err
	}
	t.mine[name] = true
	t.held = append(t.held, name)
	return nil
}

func (t *tx) holds(name string) bool { return t.auto || t.mine[name] }

func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
	t.mine = map[string]bool{}
}

// flush aplica el estado diferido si la transacción es de autocommit.
func (t *tx) flush() error {
	if !t.auto {
		return nil
	}
	err := t.commit()
	t.reset()
	return err
}

func (t *tx) reset() {
	fresh := newTx(t.s, t.auto)
	fresh.held, fresh.mine = t.held, t.mine
	*t = *fresh
}

func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range t.alerts {
		if a.IsResolved {
			continue
		}
		for id, other := range s.alerts {
			if id != a.ID && !other.IsResolved && sameAlertSlot(other, a.ProductID, a.WarehouseID, a.AlertType) {
				return &domain.ConcurrencyConflictError{Resource: "alerta " + alertLockName(a.ProductID, a.WarehouseID, a.AlertType)}
			}
		}
	}
	for id := range t.newDocs {
		d := t.documents[id]
		if _, ok := s.documents[id]; ok {
			return fmt.Errorf("documento %s: %w", id, domain.ErrDuplicate)
		}
		for _, other := range s.documents {
			if other.Number == d.Number {
				return fmt.Errorf("número %s: %w", d.Number, domain.ErrDuplicate)
			}
		}
	}

	for id, p := range t.products {
		s.products[id] = p
	}
	for id, w := range t.warehouses {
		s.warehouses[id] = w
	}
	for _, m := range t.movements {
		s.movements[m.Key()] = append(s.movements[m.Key()], m)
	}
	for k, b := range t.balances {
		s.balances[k] = b
	}
	for id, d := range t.documents {
		s.documents[id] = d.Clone()
	}
	for _, id := range t.newAlerts {
		s.alertOrder = append(s.alertOrder, id)
	}
	for id, a := range t.alerts {
		c := *a
		s.alerts[id] = &c
	}
	return nil
}

// lockTable un canal de capacidad 1 por nombre de bloqueo.
type lockTable struct {
	mu    sync.Mutex
	chans map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{chans: make(map[string]chan struct{})}
}

func (l *lockTable) get(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.chans[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.chans[name] = ch
	}
	return ch
}

func (l *lockTable) acquire(ctx context.Context, name string, timeout time.Duration) error {
	ch := l.get(name)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return &domain.ConcurrencyConflictError{Resource: name, Err: fmt.Errorf("timeout de bloqueo tras %s", timeout)}
	case <-ctx.Done():
		return &domain.ConcurrencyConflictError{Resource: name, Err: ctx.Err()}
	}
}

func (l *lockTable) release(name string) {
	<-l.get(name)
}
