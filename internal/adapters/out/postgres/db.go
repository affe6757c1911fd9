package postgres

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsDir embed.FS

// Open connects GORM to dsn and checks the connection. SQL logging is off;
// slow statements are reported through logger instead.
func Open(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = registerSlowQueryLog(db, logger.Named("postgres"), 500*time.Millisecond); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to register query callbacks: %w", err)
	}
	return db, nil
}

// RunMigrations applies every embedded migration that is not applied yet.
func RunMigrations(dsn string) error {
	d, err := iofs.New(migrationsDir, "migrations")
	if err != nil {
		return fmt.Errorf("failed to return an iofs driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dsn)
	if err != nil {
		return fmt.Errorf("failed to get a new migrate instance: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations to the DB: %w", err)
	}
	return nil
}

const startedAtKey = "orderqueue:started_at"

func registerSlowQueryLog(db *gorm.DB, logger *zap.Logger, threshold time.Duration) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startedAtKey, time.Now())
	}
	after := func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(startedAtKey)
		if !ok {
			return
		}
		started, ok := v.(time.Time)
		if !ok {
			return
		}
		if elapsed := time.Since(started); elapsed >= threshold {
			logger.Warn("slow query",
				zap.Duration("elapsed", elapsed),
				zap.String("sql", tx.Statement.SQL.String()),
				zap.Int64("rows", tx.Statement.RowsAffected),
			)
		}
	}

	cb := db.Callback()
	return errors.Join(
		cb.Query().Before("gorm:query").Register("orderqueue:before_query", before),
		cb.Query().After("gorm:query").Register("orderqueue:after_query", after),
		cb.Update().Before("gorm:update").Register("orderqueue:before_update", before),
		cb.Update().After("gorm:update").Register("orderqueue:after_update", after),
		cb.Create().Before("gorm:create").Register("orderqueue:before_create", before),
		cb.Create().After("gorm:create").Register("orderqueue:after_create", after),
		cb.Raw().Before("gorm:raw").Register("orderqueue:before_raw", before),
		cb.Raw().After("gorm:raw").Register("orderqueue:after_raw", after),
		cb.Row().Before("gorm:row").Register("orderqueue:before_row", before),
		cb.Row().After("gorm:row").Register("orderqueue:after_row", after),
	)
}
