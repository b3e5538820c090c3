package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/types"
	"github.com/duinokary/supplychain-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "supplychain_db", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	if err := gormDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Product{},
		&types.Order{},
		&types.OrderHistory{},
		&types.Asset{},
		&types.MeterReading{},
		&types.LedgerJob{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	for _, fk := range cascadeForeignKeys {
		stmt := fmt.Sprintf(`
			ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q;
			ALTER TABLE %q ADD CONSTRAINT %q
			FOREIGN KEY (%q) REFERENCES %q("id") ON DELETE CASCADE;
		`, fk.table, fk.name, fk.table, fk.name, fk.column, fk.references)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("Failed to add %s: %w", fk.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// Deleting a user removes everything it owns, on both sides of an order;
// deleting an order removes its audit trail and any queued ledger jobs.
var cascadeForeignKeys = []struct {
	table      string
	name       string
	column     string
	references string
}{
	{"user_token", "fk_user_token_user_id", "user_id", "users"},
	{"products", "fk_products_manufacturer_id", "manufacturer_id", "users"},
	{"orders", "fk_orders_product_id", "product_id", "products"},
	{"orders", "fk_orders_user_id", "user_id", "users"},
	{"orders", "fk_orders_current_owner_id", "current_owner_id", "users"},
	{"order_history", "fk_order_history_order_id", "order_id", "orders"},
	{"assets", "fk_assets_owner_id", "owner_id", "users"},
	{"meter_readings", "fk_meter_readings_asset_id", "asset_id", "assets"},
	{"ledger_jobs", "fk_ledger_jobs_order_id", "order_id", "orders"},
}
