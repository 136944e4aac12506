package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mariano55555/bodega-sub009/internal/application/alerts"
	"github.com/mariano55555/bodega-sub009/internal/application/dto"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

// AlertHandler consulta, resolución y reevaluación de alertas de stock.
type AlertHandler struct {
	uc  *alerts.UseCase
	log *logger.Logger
}

// NewAlertHandler construye el handler.
func NewAlertHandler(uc *alerts.UseCase, log *logger.Logger) *AlertHandler {
	return &AlertHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar alertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        is_resolved   query  bool    false  "Estado"
// @Param        alert_type    query  string  false  "low_stock | out_of_stock | overstock | expiring_soon | expired"
// @Param        priority      query  string  false  "low | medium | high | critical"
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AlertListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	in := dto.AlertListRequest{
		Limit:       c.QueryInt("limit", 20),
		Offset:      c.QueryInt("offset", 0),
		AlertType:   c.Query("alert_type"),
		Priority:    c.Query("priority"),
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
	}
	if v := c.Query("is_resolved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "is_resolved debe ser true o false"})
		}
		in.IsResolved = &b
	}
	if !validStruct(c, &in) {
		return nil
	}
	if in.Limit == 0 {
		in.Limit = 20
	}
	list, err := h.uc.List(c.Context(), repository.AlertFilter{
		IsResolved:  in.IsResolved,
		AlertType:   entity.AlertType(in.AlertType),
		Priority:    entity.AlertPriority(in.Priority),
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.AlertListResponse{
		Items: dto.AlertsFromEntities(list),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	})
}

// Resolve godoc
// @Summary      Resolver alerta manualmente
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "ID de la alerta"
// @Param        body  body  dto.ResolveAlertRequest  false  "Notas"
// @Success      200   {object}  dto.AlertResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	var in dto.ResolveAlertRequest
	if len(c.Body()) > 0 && !bindJSON(c, &in) {
		return nil
	}
	a, err := h.uc.Resolve(c.Context(), c.Params("id"), GetUserID(c), in.Notes)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.AlertFromEntity(a))
}

// Evaluate godoc
// @Summary      Reevaluar alertas de un producto en una bodega
// @Description  Aplica las reglas de stock y vencimiento; devuelve las alertas abiertas.
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EvaluateAlertsRequest  true  "Producto y bodega"
// @Success      200   {array}   dto.AlertResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/alerts/evaluate [post]
func (h *AlertHandler) Evaluate(c *fiber.Ctx) error {
	var in dto.EvaluateAlertsRequest
	if !bindJSON(c, &in) {
		return nil
	}
	list, err := h.uc.Reevaluate(c.Context(), in.ProductID, in.WarehouseID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.AlertsFromEntities(list))
}
