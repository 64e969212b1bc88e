// Package bootstrap builds the pieces shared by the API server and posctl.
package bootstrap

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/fixdesk-api/internal/application/service"
	"github.com/sangkips/fixdesk-api/internal/config"
	"github.com/sangkips/fixdesk-api/internal/infrastructure/database"
	"github.com/sangkips/fixdesk-api/internal/infrastructure/repository"
	"gorm.io/gorm"
)

// SetupLogger configures the global zerolog logger: console output in
// development, JSON otherwise.
func SetupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if !cfg.App.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	log.Logger = log.With().Str("service", cfg.App.Name).Logger()
}

// OpenDatabase connects to Postgres and migrates the schema when enabled.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// NewStore binds every POS repository to db.
func NewStore(db *gorm.DB) service.Store {
	return service.Store{
		Tx:        repository.NewTransactor(db),
		Sessions:  repository.NewSessionRepository(db),
		Receipts:  repository.NewReceiptRepository(db),
		Reports:   repository.NewDailyReportRepository(db),
		Stock:     repository.NewStockRepository(db),
		Catalog:   repository.NewCatalogRepository(db),
		Locations: repository.NewLocationRepository(db),
		Audit:     repository.NewAuditRepository(db),
	}
}
