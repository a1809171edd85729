package database

import (
	"embed"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationManager handles database migrations
type MigrationManager struct {
	db      *gorm.DB
	migrate *migrate.Migrate
	dbType  string
	logger  *slog.Logger
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, dbType string) (*MigrationManager, error) {
	// Get underlying SQL DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Create source driver from embedded files
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	// Create database driver based on type
	var dbDriver database.Driver
	switch dbType {
	case "sqlite", "sqlite3", "":
		dbDriver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	case "postgres", "postgresql":
		dbDriver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	case "mysql":
		dbDriver, err = mysql.WithInstance(sqlDB, &mysql.Config{})
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	// Create migrate instance
	m, err := migrate.NewWithInstance("iofs", sourceDriver, dbType, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &MigrationManager{
		db:      db,
		migrate: m,
		dbType:  dbType,
		logger:  slog.Default(),
	}, nil
}

// Up runs all pending migrations
func (m *MigrationManager) Up() error {
	m.logger.Info("Applying pending migrations")

	err := m.migrate.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		m.logger.Info("Schema already up to date")
	} else {
		m.logger.Info("Migrations applied")
	}

	return nil
}

// Down rolls back migrations
func (m *MigrationManager) Down(steps int) error {
	m.logger.Info("Rolling back migrations", "steps", steps)

	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0")
	}

	err := m.migrate.Steps(-steps)
	if err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	m.logger.Info("Rollback completed successfully")
	return nil
}

// Version returns the current migration version
func (m *MigrationManager) Version() (uint, bool, error) {
	return m.migrate.Version()
}

// Close closes the migration manager
func (m *MigrationManager) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}

// RunMigrations is a convenience function to run migrations
func RunMigrations(db *gorm.DB, dbType string) error {
	manager, err := NewMigrationManager(db, dbType)
	if err != nil {
		return fmt.Errorf("failed to create migration manager: %w", err)
	}

	if err := manager.Up(); err != nil {
		manager.Close()
		return err
	}

	// Close migration manager but keep database connection open
	manager.Close()
	return nil
}
