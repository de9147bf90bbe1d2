package resultstore

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Logger defines the interface for logging operations within the resultstore
// package.

//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=resultstore
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Store archives test results in Postgres via GORM. One Store serves one
// fuzzing run; every record it writes carries the run identifier so
// interleaved runs stay separable.
type Store struct {
	db    *gorm.DB
	runID string
	log   Logger
}

// NewStore connects to Postgres and migrates the results table. Unlike the
// database adapters under test, the store dials eagerly: a run that cannot
// archive its results should fail before any test executes.
func NewStore(cfg Config, runID string, log Logger) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("resultstore: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resultstore: database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(1 * time.Minute)

	if err := db.AutoMigrate(&TestRecord{}); err != nil {
		return nil, fmt.Errorf("resultstore: migrate: %w", err)
	}

	log.Info("connected to result store", nil, map[string]interface{}{
		"host":     cfg.Host,
		"database": cfg.Database,
		"run_id":   runID,
	})

	return &Store{db: db, runID: runID, log: log}, nil
}

// Close releases the underlying connection pool. Safe to call on a store
// that already closed.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("resultstore: database instance: %w", err)
	}
	return sqlDB.Close()
}
