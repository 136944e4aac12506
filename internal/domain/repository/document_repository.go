package repository

import (
	"context"

	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
)

// DocumentFilter filtros de listado de documentos.
type DocumentFilter struct {
	Kind   entity.DocumentKind
	Status entity.DocumentStatus
	Limit  int
	Offset int
}

// DocumentRepository define el puerto de persistencia para documentos de inventario y sus líneas.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// GetForUpdate bloquea el documento (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Document, error)
	// Update persiste cabecera, auditoría, líneas y movimientos vinculados.
	Update(ctx context.Context, doc *entity.Document) error
	List(ctx context.Context, f DocumentFilter) ([]*entity.Document, error)
	// NextNumber siguiente consecutivo del tipo dentro del periodo (YYYYMM).
	NextNumber(ctx context.Context, kind entity.DocumentKind, period string) (int64, error)
}
