package repository

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-regularization/internal/config"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-regularization/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-regularization/internal/repository/sqlite"
)

// Store bundles the repositories of one backend with its transactor.
type Store struct {
	Transactor     database.Transactor
	Regularization regularization.RegularizationRepository
	Attendance     attendance.AttendanceRepository
	Audit          audit.AuditRepository

	migrate func(ctx context.Context) error
	close   func()
}

// Open connects to the backend named by cfg.Database.Driver.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Store{
			Transactor:     postgresql.NewTransactor(db),
			Regularization: postgresql.NewRegularizationRepository(db),
			Attendance:     postgresql.NewAttendanceRepository(db),
			Audit:          postgresql.NewAuditRepository(db),
			migrate:        func(ctx context.Context) error { return postgresql.Migrate(ctx, db) },
			close:          db.Close,
		}, nil

	case "sqlite":
		db, err := database.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Store{
			Transactor:     sqlite.NewTransactor(db),
			Regularization: sqlite.NewRegularizationRepository(db),
			Attendance:     sqlite.NewAttendanceRepository(db),
			Audit:          sqlite.NewAuditRepository(db),
			migrate:        func(ctx context.Context) error { return sqlite.Migrate(ctx, db) },
			close:          func() { db.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

func (s *Store) Close() {
	s.close()
}
