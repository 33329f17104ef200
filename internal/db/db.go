package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/config"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
	pingTimeout     = 5 * time.Second
)

// InitDB opens the process wide connection pool or exits.
func InitDB(cfg *config.Config) *sql.DB {
	return mustOpen(cfg, "postgres")
}

func mustOpen(cfg *config.Config, driverName string) *sql.DB {
	log := logger.L().With(zap.String("db_host", cfg.DBHost), zap.String("db_name", cfg.DBName))

	db, err := open(cfg, driverName)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("database connection established")
	return db
}

// NewDatabase opens a traced Postgres pool and checks it is reachable.
func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	return open(cfg, "postgres")
}

func open(cfg *config.Config, driverName string) (*sql.DB, error) {
	db, err := otelsql.Open(driverName, buildDSN(cfg),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func buildDSN(cfg *config.Config) string {
	if cfg.DBURL != "" {
		return cfg.DBURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)
}
