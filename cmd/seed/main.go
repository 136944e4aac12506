// seed carga productos y bodegas en PostgreSQL desde un catálogo CSV exportado de otro sistema.
//
// Uso: go run ./cmd/seed [ruta/catalogo.csv] [charset]
// Por defecto busca catalogo.csv en el directorio actual; charset puede ser latin1 o windows-1252.
// Los registros que ya existen no se modifican.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
	"github.com/mariano55555/bodega-sub009/internal/infrastructure/catalog"
	"github.com/mariano55555/bodega-sub009/internal/infrastructure/postgres"
	"github.com/mariano55555/bodega-sub009/pkg/config"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

func main() {
	path := "catalogo.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	charset := ""
	if len(os.Args) > 2 {
		charset = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("abrir catálogo")
	}
	defer f.Close()

	c, err := catalog.Parse(f, charset)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("leer catálogo")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	var res catalog.Result
	err = postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout()).Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		res, err = catalog.Load(ctx, repos, c)
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}
	log.Info().
		Int("products", res.ProductsCreated).
		Int("warehouses", res.WarehousesCreated).
		Int("skipped", res.Skipped).
		Msg("catálogo cargado")
}
