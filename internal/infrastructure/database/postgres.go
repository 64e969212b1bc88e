package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sangkips/fixdesk-api/internal/config"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info().Str("host", cfg.Host).Str("db", cfg.Name).Msg("connected to PostgreSQL")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Info().Msg("running database migrations")

	err := db.AutoMigrate(
		// Shop setup
		&entity.Location{},

		// Catalog read by the POS
		&entity.PhoneListing{},
		&entity.SparePart{},
		&entity.GoodsItem{},
		&entity.ServiceCatalogEntry{},
		&entity.ServiceTicket{},

		// Register and receipts
		&entity.CashRegisterSession{},
		&entity.Receipt{},
		&entity.ReceiptItem{},
		&entity.ReceiptCounter{},
		&entity.DailyReport{},

		// System entities
		&entity.AuditEntry{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("database migrations completed")
	return nil
}
