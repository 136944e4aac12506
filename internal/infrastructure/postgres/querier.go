package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

// Querier lo común entre *pgxpool.Pool y pgx.Tx; los repositorios funcionan sobre cualquiera.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// NewRepos repositorios ligados a q (pool para lecturas, tx dentro de TxRunner).
func NewRepos(q Querier) repository.TxRepos {
	return repository.TxRepos{
		Movements:  NewMovementRepository(q),
		Documents:  NewDocumentRepository(q),
		Alerts:     NewAlertRepository(q),
		Products:   NewProductRepository(q),
		Warehouses: NewWarehouseRepository(q),
	}
}
