package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mariano55555/bodega-sub009/internal/application/alerts"
	"github.com/mariano55555/bodega-sub009/internal/application/documents"
	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/application/usecase"
	"github.com/mariano55555/bodega-sub009/pkg/jwt"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger        *ledger.Ledger
	DocumentsUC   *documents.UseCase
	AlertsUC      *alerts.UseCase
	ProductUC     *usecase.ProductUseCase
	WarehouseUC   *usecase.WarehouseUseCase
	JWTSecret     string
	JWTIssuer     string // vacío: no se valida el emisor
	ApproverRoles []string
	CanApprove    func(role string) bool // nil: rol incluido en ApproverRoles
	Logger        *logger.Logger
	ServiceName   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	canApprove := deps.CanApprove
	if canApprove == nil {
		canApprove = func(role string) bool {
			for _, r := range deps.ApproverRoles {
				if strings.EqualFold(r, role) {
					return true
				}
			}
			return false
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	var authOpts []jwt.Option
	if deps.JWTIssuer != "" {
		authOpts = append(authOpts, jwt.WithIssuer(deps.JWTIssuer))
	}
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, authOpts...))

	// Catálogo: lectura para todos, escritura para roles aprobadores
	if deps.ProductUC != nil {
		productHandler := NewProductHandler(deps.ProductUC, log)
		products := protected.Group("/products")
		products.Post("/", RequireRole(deps.ApproverRoles...), productHandler.Create)
		products.Get("/:id", productHandler.GetByID)
		products.Put("/:id/thresholds", RequireRole(deps.ApproverRoles...), productHandler.UpdateThresholds)
	}
	if deps.WarehouseUC != nil {
		warehouseHandler := NewWarehouseHandler(deps.WarehouseUC, log)
		warehouses := protected.Group("/warehouses")
		warehouses.Post("/", RequireRole(deps.ApproverRoles...), warehouseHandler.Create)
		warehouses.Get("/:id", warehouseHandler.GetByID)
	}

	// Libro de movimientos
	ledgerHandler := NewLedgerHandler(deps.Ledger, log)
	ledgerGroup := protected.Group("/ledger")
	ledgerGroup.Get("/balance", ledgerHandler.Balance)
	ledgerGroup.Get("/kardex", ledgerHandler.Kardex)
	ledgerGroup.Post("/movements", RequireRole(deps.ApproverRoles...), ledgerHandler.Append)

	// Documentos
	docHandler := NewDocumentHandler(deps.DocumentsUC, canApprove, log)
	docs := protected.Group("/documents")
	docs.Post("/", docHandler.Create)
	docs.Get("/", docHandler.List)
	docs.Get("/:id", docHandler.GetByID)
	docs.Put("/:id/lines", docHandler.UpdateLines)
	docs.Post("/:id/submit", docHandler.Submit)
	docs.Post("/:id/approve", docHandler.Approve)
	docs.Post("/:id/reject", docHandler.Reject)
	docs.Post("/:id/process", docHandler.Process)
	docs.Post("/:id/cancel", docHandler.Cancel)

	// Alertas
	alertHandler := NewAlertHandler(deps.AlertsUC, log)
	alertGroup := protected.Group("/alerts")
	alertGroup.Get("/", alertHandler.List)
	alertGroup.Post("/evaluate", alertHandler.Evaluate)
	alertGroup.Post("/:id/resolve", alertHandler.Resolve)
}
