// Package database opens the Postgres pool used by the service and provides
// a model-driven schema bootstrap for SQLite-backed tests and local runs.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dreamstate-ticketing/internal/config"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Connect opens Postgres, retrying while the database comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	dsn := cfg.PostgresDSN()
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}

	var sqldb *sql.DB
	var err error
	for i := 0; i < retries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, retries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.PingContext(ctx)
			if err == nil {
				break
			}
			sqldb.Close()
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < retries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres after %d attempts: %w", retries, err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLite opens a single-connection SQLite database. An empty dsn gives a
// private in-memory database.
func OpenSQLite(dsn string) (*bun.DB, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps every query on the same in-memory database and
	// serializes writers the way row locks do on Postgres.
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

var schemaModels = []interface{}{
	(*models.Faction)(nil),
	(*models.TicketType)(nil),
	(*models.Order)(nil),
	(*models.Ticket)(nil),
	(*models.TicketCounter)(nil),
	(*models.FactionScoreEvent)(nil),
}

// schemaIndexes mirror the indexes from the SQL migrations that bun tags cannot express.
var schemaIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_ticket_orders_in_person_email ON ticket_orders (customer_email) WHERE status = 'PAID_IN_PERSON'`,
}

// CreateSchema creates every table from the bun models. Postgres deployments use migrations instead.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range schemaModels {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	for _, stmt := range schemaIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Seed inserts the faction roster and the counter row when they are missing.
func Seed(ctx context.Context, db bun.IDB) error {
	count, err := db.NewSelect().Model((*models.Faction)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count factions: %w", err)
	}
	if count == 0 {
		factions := models.DefaultFactions()
		if _, err := db.NewInsert().Model(&factions).Exec(ctx); err != nil {
			return fmt.Errorf("seed factions: %w", err)
		}
	}

	counter := &models.TicketCounter{ID: 1, CurrentValue: 0}
	if _, err := db.NewInsert().Model(counter).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("seed ticket counter: %w", err)
	}
	return nil
}

// Bootstrap is CreateSchema followed by Seed.
func Bootstrap(ctx context.Context, db bun.IDB) error {
	if err := CreateSchema(ctx, db); err != nil {
		return err
	}
	return Seed(ctx, db)
}
