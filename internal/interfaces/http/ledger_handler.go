package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mariano55555/bodega-sub009/internal/application/dto"
	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

const (
	defaultKardexLimit = 500
	maxKardexLimit     = 5000
)

// LedgerHandler consultas de saldo y kardex, y movimientos directos.
type LedgerHandler struct {
	ledger *ledger.Ledger
	log    *logger.Logger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(l *ledger.Ledger, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: l, log: log}
}

// Balance godoc
// @Summary      Saldo de un producto en una bodega
// @Description  Total y desglose por lote. Con lot_number devuelve solo ese lote.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        lot_number    query  string  false  "Lote"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/balance [get]
func (h *LedgerHandler) Balance(c *fiber.Ctx) error {
	productID, warehouseID := c.Query("product_id"), c.Query("warehouse_id")
	if productID == "" || warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id son requeridos"})
	}
	states, total, err := h.ledger.Balances(c.Context(), productID, warehouseID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if lot := c.Query("lot_number"); lot != "" {
		filtered := make([]entity.BalanceState, 0, 1)
		for _, s := range states {
			if s.Key.LotNumber == lot {
				filtered = append(filtered, s)
			}
		}
		states = filtered
		total, err = h.ledger.CurrentBalance(c.Context(), entity.StockKey{ProductID: productID, WarehouseID: warehouseID, LotNumber: lot})
		if err != nil {
			return respondError(c, h.log, err)
		}
	}
	return c.JSON(dto.BalanceFromStates(productID, warehouseID, total, states))
}

// Kardex godoc
// @Summary      Kardex de una llave de stock
// @Description  Movimientos en orden cronológico con saldo corrido. from/to en RFC3339.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        lot_number    query  string  false  "Lote"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Param        limit         query  int     false  "Máximo de filas"  default(500)
// @Success      200  {object}  dto.KardexResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/kardex [get]
func (h *LedgerHandler) Kardex(c *fiber.Ctx) error {
	key := entity.StockKey{ProductID: c.Query("product_id"), WarehouseID: c.Query("warehouse_id"), LotNumber: c.Query("lot_number")}
	if key.ProductID == "" || key.WarehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id son requeridos"})
	}
	var r ledger.DateRange
	var err error
	if r.From, err = queryTime(c, "from"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC3339"})
	}
	if r.To, err = queryTime(c, "to"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC3339"})
	}
	limit := c.QueryInt("limit", defaultKardexLimit)
	if limit <= 0 {
		limit = defaultKardexLimit
	}
	if limit > maxKardexLimit {
		limit = maxKardexLimit
	}

	out := dto.KardexResponse{ProductID: key.ProductID, WarehouseID: key.WarehouseID, LotNumber: key.LotNumber, Items: []dto.MovementResponse{}}
	for m, err := range h.ledger.History(c.Context(), key, r) {
		if err != nil {
			return respondError(c, h.log, err)
		}
		if len(out.Items) == limit {
			out.Truncated = true
			break
		}
		out.Items = append(out.Items, dto.MovementFromEntity(m))
	}
	return c.JSON(out)
}

// Append godoc
// @Summary      Registrar movimiento directo
// @Description  Escribe una fila en el libro sin documento origen. Reservado a roles aprobadores.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AppendMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [post]
func (h *LedgerHandler) Append(c *fiber.Ctx) error {
	var in dto.AppendMovementRequest
	if !bindJSON(c, &in) {
		return nil
	}
	input := ledger.AppendInput{
		Key:            entity.StockKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID, LotNumber: in.LotNumber},
		Type:           entity.MovementType(in.Type),
		QuantityIn:     in.QuantityIn,
		QuantityOut:    in.QuantityOut,
		UnitCost:       in.UnitCost,
		ExpirationDate: in.ExpirationDate,
		CreatedBy:      GetUserID(c),
	}
	if in.MovementDate != nil {
		input.MovementDate = *in.MovementDate
	}
	rec, err := h.ledger.Append(c.Context(), input)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(*rec))
}

func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
