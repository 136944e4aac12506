// migrate aplica o revierte el esquema de PostgreSQL.
//
// Uso: go run ./cmd/migrate [up|down]   (por defecto up)
package main

import (
	"os"

	"github.com/mariano55555/bodega-sub009/internal/infrastructure/postgres"
	"github.com/mariano55555/bodega-sub009/pkg/config"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar migraciones")
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar migraciones")
		}
	}()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		log.Error().Str("direction", direction).Msg("dirección desconocida, use up o down")
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("direction", direction).Msg("migración fallida")
		os.Exit(1)
	}
}
