package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mariano55555/bodega-sub009/internal/application/dto"
	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

// DefaultUnitMeasure unidad asignada cuando el alta no la indica.
const DefaultUnitMeasure = "unidad"

// ProductUseCase alta y umbrales de productos. Cost solo cambia vía movimientos de entrada.
type ProductUseCase struct {
	txRunner ledger.TxRunner
	products repository.ProductRepository
	retry    ledger.RetryPolicy
	log      *logger.Logger
}

// NewProductUseCase construye el caso de uso. products se usa para lecturas fuera de transacción.
func NewProductUseCase(txRunner ledger.TxRunner, products repository.ProductRepository, retry ledger.RetryPolicy, log *logger.Logger) *ProductUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{txRunner: txRunner, products: products, retry: retry, log: log}
}

// Create registra un producto nuevo. Si no trae id se genera uno.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := validateThresholds(in.MinimumStock, in.MaximumStock); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}
	unit := strings.TrimSpace(in.UnitMeasure)
	if unit == "" {
		unit = DefaultUnitMeasure
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:           id,
		SKU:          strings.TrimSpace(in.SKU),
		Name:         strings.TrimSpace(in.Name),
		UnitMeasure:  unit,
		Cost:         decimal.Zero,
		MinimumStock: in.MinimumStock,
		MaximumStock: in.MaximumStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := ledger.RunWithRetry(ctx, uc.txRunner, uc.retry, func(ctx context.Context, repos repository.TxRepos) error {
		return repos.Products.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", product.ID).Str("sku", product.SKU).Msg("producto creado")
	return dto.ProductFromEntity(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return dto.ProductFromEntity(product), nil
}

// UpdateThresholds reemplaza mínimo y máximo bajo el bloqueo del producto.
// Las alertas abiertas no se recalculan aquí; se reevalúan con el próximo movimiento
// o con POST /api/alerts/evaluate.
func (uc *ProductUseCase) UpdateThresholds(ctx context.Context, id string, in dto.UpdateThresholdsRequest) (*dto.ProductResponse, error) {
	if err := validateThresholds(in.MinimumStock, in.MaximumStock); err != nil {
		return nil, err
	}
	var out *entity.Product
	err := ledger.RunWithRetry(ctx, uc.txRunner, uc.retry, func(ctx context.Context, repos repository.TxRepos) error {
		product, err := repos.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
		}
		if err := repos.Products.UpdateThresholds(ctx, id, in.MinimumStock, in.MaximumStock); err != nil {
			return err
		}
		product.MinimumStock = in.MinimumStock
		product.MaximumStock = in.MaximumStock
		product.UpdatedAt = time.Now().UTC()
		out = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("product_id", id).
		Str("minimum_stock", in.MinimumStock.String()).
		Msg("umbrales actualizados")
	return dto.ProductFromEntity(out), nil
}

func validateThresholds(minStock decimal.Decimal, maxStock *decimal.Decimal) error {
	if minStock.IsNegative() {
		return fmt.Errorf("minimum_stock negativo: %w", domain.ErrInvalidInput)
	}
	if maxStock == nil {
		return nil
	}
	if !maxStock.IsPositive() {
		return fmt.Errorf("maximum_stock debe ser mayor que cero: %w", domain.ErrInvalidInput)
	}
	if maxStock.LessThan(minStock) {
		return fmt.Errorf("maximum_stock %s menor que minimum_stock %s: %w", maxStock.String(), minStock.String(), domain.ErrInvalidInput)
	}
	return nil
}
