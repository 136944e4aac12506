package ledger

import (
	"context"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace rollback; si no, commit. Los conflictos de bloqueo se devuelven
// como domain.ConcurrencyConflictError.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error
}

// StockObserver reacciona a movimientos contabilizados dentro de la misma transacción.
type StockObserver interface {
	Evaluate(ctx context.Context, repos repository.TxRepos, keys []entity.StockKey) error
}
