package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mariano55555/bodega-sub009/internal/application/documents"
	"github.com/mariano55555/bodega-sub009/internal/application/dto"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

// DocumentHandler workflow de documentos de inventario.
type DocumentHandler struct {
	uc         *documents.UseCase
	canApprove func(role string) bool
	log        *logger.Logger
}

// NewDocumentHandler construye el handler. canApprove decide la capacidad de aprobación por rol.
func NewDocumentHandler(uc *documents.UseCase, canApprove func(role string) bool, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, canApprove: canApprove, log: log}
}

func (h *DocumentHandler) actor(c *fiber.Ctx) documents.Actor {
	return documents.Actor{ID: GetUserID(c), CanApprove: h.canApprove(GetRole(c))}
}

// Create godoc
// @Summary      Crear documento en borrador
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "Tipo y líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if !bindJSON(c, &in) {
		return nil
	}
	doc, err := h.uc.Create(c.Context(), h.actor(c), documents.CreateInput{
		Kind:        entity.DocumentKind(in.Kind),
		Description: in.Description,
		Lines:       dto.LinesToEntity(in.Lines),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentFromEntity(doc))
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        kind    query  string  false  "purchase | adjustment | transfer | dispatch | donation"
// @Param        status  query  string  false  "draft | pending | approved | rejected | processed | cancelled"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	in := dto.DocumentListRequest{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
		Kind:   c.Query("kind"),
		Status: c.Query("status"),
	}
	if !validStruct(c, &in) {
		return nil
	}
	if in.Limit == 0 {
		in.Limit = 20
	}
	list, err := h.uc.List(c.Context(), repository.DocumentFilter{
		Kind:   entity.DocumentKind(in.Kind),
		Status: entity.DocumentStatus(in.Status),
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	items := make([]dto.DocumentResponse, 0, len(list))
	for _, d := range list {
		items = append(items, dto.DocumentFromEntity(d))
	}
	return c.JSON(dto.DocumentListResponse{Items: items, Page: dto.PageResponse{Limit: in.Limit, Offset: in.Offset}})
}

// GetByID godoc
// @Summary      Obtener documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.DocumentFromEntity(doc))
}

// UpdateLines godoc
// @Summary      Reemplazar líneas (solo borrador o rechazado)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del documento"
// @Param        body  body  dto.UpdateLinesRequest  true  "Líneas"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/lines [put]
func (h *DocumentHandler) UpdateLines(c *fiber.Ctx) error {
	var in dto.UpdateLinesRequest
	if !bindJSON(c, &in) {
		return nil
	}
	doc, err := h.uc.UpdateLines(c.Context(), h.actor(c), c.Params("id"), dto.LinesToEntity(in.Lines))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.DocumentFromEntity(doc))
}

// Submit godoc
// @Summary      Enviar a aprobación
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/submit [post]
func (h *DocumentHandler) Submit(c *fiber.Ctx) error {
	return h.transition(c, func(a documents.Actor, id string) (*entity.Document, error) {
		return h.uc.Submit(c.Context(), a, id)
	})
}

// Approve godoc
// @Summary      Aprobar documento pendiente
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "ID del documento"
// @Param        body  body  dto.ApproveDocumentRequest  false  "Notas"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/approve [post]
func (h *DocumentHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveDocumentRequest
	if len(c.Body()) > 0 && !bindJSON(c, &in) {
		return nil
	}
	return h.transition(c, func(a documents.Actor, id string) (*entity.Document, error) {
		return h.uc.Approve(c.Context(), a, id, in.Notes)
	})
}

// Reject godoc
// @Summary      Rechazar documento pendiente
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del documento"
// @Param        body  body  dto.RejectDocumentRequest  true  "Motivo"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/reject [post]
func (h *DocumentHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectDocumentRequest
	if !bindJSON(c, &in) {
		return nil
	}
	return h.transition(c, func(a documents.Actor, id string) (*entity.Document, error) {
		return h.uc.Reject(c.Context(), a, id, in.Reason)
	})
}

// Cancel godoc
// @Summary      Anular documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, func(a documents.Actor, id string) (*entity.Document, error) {
		return h.uc.Cancel(c.Context(), a, id)
	})
}

// Process godoc
// @Summary      Contabilizar documento aprobado
// @Description  Genera los movimientos de todas las líneas en una sola transacción.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.ProcessDocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/process [post]
func (h *DocumentHandler) Process(c *fiber.Ctx) error {
	doc, records, err := h.uc.Process(c.Context(), h.actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ProcessDocumentResponse{
		Document:  dto.DocumentFromEntity(doc),
		Movements: dto.MovementsFromEntities(records),
	})
}

func (h *DocumentHandler) transition(c *fiber.Ctx, fn func(a documents.Actor, id string) (*entity.Document, error)) error {
	doc, err := fn(h.actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.DocumentFromEntity(doc))
}
