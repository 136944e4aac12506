package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mariano55555/bodega-sub009/internal/application/alerts"
	"github.com/mariano55555/bodega-sub009/internal/application/documents"
	"github.com/mariano55555/bodega-sub009/internal/application/ledger"
	"github.com/mariano55555/bodega-sub009/internal/application/poster"
	"github.com/mariano55555/bodega-sub009/internal/application/usecase"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/internal/infrastructure/catalog"
	"github.com/mariano55555/bodega-sub009/internal/infrastructure/memory"
	"github.com/mariano55555/bodega-sub009/internal/infrastructure/postgres"
	httpRouter "github.com/mariano55555/bodega-sub009/internal/interfaces/http"
	"github.com/mariano55555/bodega-sub009/pkg/config"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	txRunner, repos, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	retry := ledger.RetryPolicy{MaxAttempts: cfg.Ledger.MaxRetries, Backoff: 20 * time.Millisecond}
	evaluator := alerts.NewEvaluator(cfg.Alerts.ExpiryWindow(), log.Component("alerts"))
	ledgerSvc := ledger.New(txRunner, repos.Movements, evaluator, log.Component("ledger"), ledger.Options{
		Retry:    retry,
		PageSize: cfg.Ledger.HistoryPageSize,
	})
	documentsUC := documents.NewUseCase(txRunner, repos.Documents, poster.New(ledgerSvc, evaluator), retry, log.Component("documents"))
	productUC := usecase.NewProductUseCase(txRunner, repos.Products, retry, log.Component("catalog"))
	warehouseUC := usecase.NewWarehouseUseCase(txRunner, repos.Warehouses)
	alertsUC := alerts.NewUseCase(txRunner, repos.Alerts, evaluator, retry, log.Component("alerts"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Bodega API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("sin especificación swagger, /docs deshabilitado")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:        ledgerSvc,
		DocumentsUC:   documentsUC,
		AlertsUC:      alertsUC,
		ProductUC:     productUC,
		WarehouseUC:   warehouseUC,
		JWTSecret:     cfg.JWT.Secret,
		JWTIssuer:     cfg.JWT.Issuer,
		ApproverRoles: cfg.Auth.ApproverRoles,
		CanApprove:    cfg.Auth.CanApprove,
		Logger:        log.Component("http"),
		ServiceName:   cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStore abre el store configurado y devuelve el runner transaccional, los repositorios
// de lectura y la función de cierre.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (ledger.TxRunner, repository.TxRepos, func()) {
	if cfg.Storage.Driver == "memory" {
		store := memory.NewStore(cfg.Ledger.LockTimeout())
		if cfg.Storage.SeedFile != "" {
			seedMemory(ctx, store.Repos(), cfg.Storage, log)
		}
		log.Warn().Msg("store en memoria: los datos se pierden al detener el proceso")
		return memory.NewTxRunner(store), store.Repos(), func() {}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout()), postgres.NewRepos(pool), pool.Close
}

func seedMemory(ctx context.Context, repos repository.TxRepos, cfg config.StorageConfig, log *logger.Logger) {
	f, err := os.Open(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("abrir catálogo")
	}
	defer f.Close()
	c, err := catalog.Parse(f, cfg.SeedCharset)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("leer catálogo")
	}
	res, err := catalog.Load(ctx, repos, c)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}
	log.Info().
		Int("products", res.ProductsCreated).
		Int("warehouses", res.WarehousesCreated).
		Msg("catálogo cargado")
}
