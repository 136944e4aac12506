// Package ledger implementa el libro de saldos: único camino de escritura de movimientos de inventario.
package ledger

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/inventory"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

const defaultPageSize = 200

// MaxClockSkew tolerancia para fechas de movimiento futuras. Más allá, el movimiento
// bloquearía cualquier contabilización posterior de la llave hasta que el reloj lo alcance.
const MaxClockSkew = 5 * time.Minute

// Options configuración del libro.
type Options struct {
	Retry    RetryPolicy
	PageSize int // filas por página al recorrer la historia
}

// Ledger registra movimientos con saldo corrido y responde consultas de saldo y kardex.
type Ledger struct {
	txRunner  TxRunner
	movements repository.MovementRepository
	observer  StockObserver
	log       *logger.Logger
	opts      Options
}

// New construye el libro. movements se usa solo para lecturas fuera de transacción.
// observer puede ser nil.
func New(txRunner TxRunner, movements repository.MovementRepository, observer StockObserver, log *logger.Logger, opts Options) *Ledger {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{txRunner: txRunner, movements: movements, observer: observer, log: log, opts: opts}
}

// AppendInput datos de un movimiento. MovementDate vacío toma la hora actual.
type AppendInput struct {
	Key            entity.StockKey
	Type           entity.MovementType
	QuantityIn     decimal.Decimal
	QuantityOut    decimal.Decimal
	UnitCost       decimal.Decimal
	ExpirationDate *time.Time
	Source         entity.SourceRef
	MovementDate   time.Time
	CreatedBy      string
}

// DateRange rango inclusivo de fechas de movimiento; extremos nil no acotan.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// RetryPolicy política de reintento configurada.
func (l *Ledger) RetryPolicy() RetryPolicy { return l.opts.Retry }

// Append registra un movimiento en su propia transacción, evalúa alertas de la llave y
// reintenta ante conflictos de concurrencia.
func (l *Ledger) Append(ctx context.Context, in AppendInput) (*entity.MovementRecord, error) {
	if err := validateInput(in, time.Now().UTC()); err != nil {
		return nil, err
	}
	var rec *entity.MovementRecord
	err := RunWithRetry(ctx, l.txRunner, l.opts.Retry, func(ctx context.Context, repos repository.TxRepos) error {
		var err error
		rec, err = l.AppendInTx(ctx, repos, in)
		if err != nil {
			return err
		}
		if l.observer != nil {
			return l.observer.Evaluate(ctx, repos, []entity.StockKey{in.Key})
		}
		return nil
	})
	if err != nil {
		l.log.Warn().Err(err).Str("key", in.Key.String()).Str("type", string(in.Type)).Msg("movimiento rechazado")
		return nil, err
	}
	l.log.Info().
		Int64("movement_id", rec.ID).
		Str("key", rec.Key().String()).
		Str("type", string(rec.Type)).
		Str("balance", rec.BalanceQuantity.String()).
		Msg("movimiento registrado")
	return rec, nil
}

// AppendInTx registra un movimiento usando los repositorios de una transacción abierta.
// Bloquea la llave hasta el fin de esa transacción: lectura del último saldo, cálculo e inserción
// ocurren bajo el mismo bloqueo. Las entradas con costo actualizan el costo promedio del producto.
func (l *Ledger) AppendInTx(ctx context.Context, repos repository.TxRepos, in AppendInput) (*entity.MovementRecord, error) {
	if err := validateInput(in, time.Now().UTC()); err != nil {
		return nil, err
	}
	wh, err := repos.Warehouses.GetByID(ctx, in.Key.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, fmt.Errorf("bodega %s: %w", in.Key.WarehouseID, domain.ErrNotFound)
	}

	state, err := repos.Movements.LockKey(ctx, in.Key)
	if err != nil {
		return nil, err
	}

	var product *entity.Product
	if updatesCost(in) {
		product, err = repos.Products.GetForUpdate(ctx, in.Key.ProductID)
	} else {
		product, err = repos.Products.GetByID(ctx, in.Key.ProductID)
	}
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", in.Key.ProductID, domain.ErrNotFound)
	}

	date := in.MovementDate
	if date.IsZero() {
		date = time.Now().UTC()
	}
	if state.HasMovements() && date.Before(state.LastMovementDate) {
		return nil, fmt.Errorf("%s en %s, último %s: %w",
			in.Key, date.Format(time.RFC3339), state.LastMovementDate.Format(time.RFC3339), domain.ErrBackdatedMovement)
	}

	balance, err := inventory.NextBalance(in.Key, state.Balance, in.QuantityIn, in.QuantityOut)
	if err != nil {
		return nil, err
	}

	unitCost := in.UnitCost
	if unitCost.IsZero() && !updatesCostType(in.Type) {
		unitCost = product.Cost
	}
	expiration := in.ExpirationDate
	if expiration == nil {
		expiration = state.ExpirationDate
	}

	rec := &entity.MovementRecord{
		ProductID:       in.Key.ProductID,
		WarehouseID:     in.Key.WarehouseID,
		LotNumber:       in.Key.LotNumber,
		ExpirationDate:  expiration,
		Type:            in.Type,
		QuantityIn:      in.QuantityIn,
		QuantityOut:     in.QuantityOut,
		UnitCost:        unitCost,
		BalanceQuantity: balance,
		Source:          in.Source,
		MovementDate:    date,
		CreatedBy:       in.CreatedBy,
	}
	// Existencias previas del producto en todas sus llaves, leídas bajo el bloqueo del producto.
	var onHand decimal.Decimal
	if updatesCost(in) {
		if onHand, err = repos.Movements.ProductOnHand(ctx, product.ID); err != nil {
			return nil, err
		}
	}

	if err := repos.Movements.Insert(ctx, rec); err != nil {
		return nil, err
	}

	if updatesCost(in) {
		newCost := inventory.WeightedAverageCost(onHand, product.Cost, in.QuantityIn, in.UnitCost)
		if err := repos.Products.UpdateCost(ctx, product.ID, newCost); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// CurrentBalance saldo de la fila más reciente de la llave, o cero si no tiene movimientos.
func (l *Ledger) CurrentBalance(ctx context.Context, key entity.StockKey) (decimal.Decimal, error) {
	st, err := l.movements.GetBalance(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if st == nil {
		return decimal.Zero, nil
	}
	return st.Balance, nil
}

// Balances saldos por lote de (producto, bodega) y su total.
func (l *Ledger) Balances(ctx context.Context, productID, warehouseID string) ([]entity.BalanceState, decimal.Decimal, error) {
	states, err := l.movements.ListBalances(ctx, productID, warehouseID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	total := decimal.Zero
	for _, s := range states {
		total = total.Add(s.Balance)
	}
	return states, total, nil
}

// History recorre la historia de la llave en orden (movementDate, id) ascendente.
// La secuencia es perezosa (pagina por cursor) y se puede recorrer de nuevo desde el inicio.
// Un error de lectura se entrega como último elemento.
func (l *Ledger) History(ctx context.Context, key entity.StockKey, r DateRange) iter.Seq2[entity.MovementRecord, error] {
	return func(yield func(entity.MovementRecord, error) bool) {
		q := repository.HistoryQuery{Key: key, From: r.From, To: r.To, Limit: l.opts.PageSize}
		for {
			rows, err := l.movements.ListHistory(ctx, q)
			if err != nil {
				yield(entity.MovementRecord{}, err)
				return
			}
			for _, row := range rows {
				if !yield(row, nil) {
					return
				}
			}
			if len(rows) < q.Limit {
				return
			}
			last := rows[len(rows)-1]
			q.AfterDate, q.AfterID = last.MovementDate, last.ID
		}
	}
}

// MovementsBySource movimientos creados por un documento.
func (l *Ledger) MovementsBySource(ctx context.Context, src entity.SourceRef) ([]entity.MovementRecord, error) {
	return l.movements.ListBySource(ctx, src)
}

func validateInput(in AppendInput, now time.Time) error {
	if in.Key.ProductID == "" || in.Key.WarehouseID == "" {
		return fmt.Errorf("producto y bodega son obligatorios: %w", domain.ErrInvalidInput)
	}
	if in.MovementDate.After(now.Add(MaxClockSkew)) {
		return fmt.Errorf("fecha de movimiento %s en el futuro: %w", in.MovementDate.Format(time.RFC3339), domain.ErrInvalidInput)
	}
	if in.UnitCost.IsNegative() {
		return fmt.Errorf("costo unitario negativo: %w", domain.ErrInvalidInput)
	}
	return inventory.ValidateQuantities(in.Type, in.QuantityIn, in.QuantityOut)
}

// updatesCostType tipos de entrada que valorizan inventario nuevo.
// transfer_in solo mueve existencias ya valorizadas.
func updatesCostType(t entity.MovementType) bool {
	return t.IsInbound() && t != entity.MovementTypeTransferIn
}

func updatesCost(in AppendInput) bool {
	return updatesCostType(in.Type) && in.UnitCost.IsPositive()
}
