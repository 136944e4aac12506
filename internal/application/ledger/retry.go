package ledger

import (
	"context"
	"time"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

// RetryPolicy reintentos ante conflictos de concurrencia.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy valores por defecto de LEDGER_MAX_RETRIES.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 20 * time.Millisecond}

// RunWithRetry ejecuta fn en una transacción y la repite mientras falle con un error reintentable,
// hasta MaxAttempts intentos con espera lineal. Agotados los intentos devuelve el último conflicto.
func RunWithRetry(ctx context.Context, tx TxRunner, policy RetryPolicy, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = tx.Run(ctx, fn)
		if err == nil || !domain.IsRetryable(err) || i == attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(policy.Backoff * time.Duration(i)):
		}
	}
	return err
}
