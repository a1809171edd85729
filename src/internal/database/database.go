package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/casapps/casnotes/src/internal/database/models"
)

// Initialize initializes the database connection
func Initialize(cfg *viper.Viper) (*gorm.DB, error) {
	var dialector gorm.Dialector

	// Configure database based on type
	dbType := cfg.GetString("database.type")
	switch dbType {
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.GetString("database.host"),
			cfg.GetInt("database.port"),
			cfg.GetString("database.user"),
			cfg.GetString("database.password"),
			cfg.GetString("database.name"))
		dialector = postgres.Open(dsn)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.GetString("database.user"),
			cfg.GetString("database.password"),
			cfg.GetString("database.host"),
			cfg.GetInt("database.port"),
			cfg.GetString("database.name"))
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.GetString("database.path"))
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	// Configure logger - use Silent for production, Info for debug
	logLevel := logger.Silent
	if cfg.GetBool("debug") {
		logLevel = logger.Info
	}

	// Open database connection
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	maxOpen := cfg.GetInt("database.max_open_conns")
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.GetInt("database.max_idle_conns")
	if maxIdle <= 0 {
		maxIdle = maxOpen / 2
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.GetInt("database.conn_max_lifetime")) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// MigrateDB runs schema migrations and seeds default data
func MigrateDB(db *gorm.DB, dbType string) error {
	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Constraint migrations the ORM does not express
	if err := RunMigrations(db, dbType); err != nil {
		return fmt.Errorf("failed to run constraint migrations: %w", err)
	}

	if err := InitializeDefaultData(db); err != nil {
		return fmt.Errorf("failed to initialize default data: %w", err)
	}

	return nil
}

// MigrateTestDB runs database migrations suitable for testing
// (AutoMigrate only; skips the SQL constraint migrations)
func MigrateTestDB(db *gorm.DB) error {
	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		return fmt.Errorf("failed to run test migrations: %w", err)
	}
	return InitializeDefaultData(db)
}

// InitializeDefaultData creates the default categories every install starts with
func InitializeDefaultData(db *gorm.DB) error {
	categories := []models.Category{
		{Name: "general", Description: "Uncategorized content", Status: models.LabelApproved},
		{Name: "research", Description: "Research documents and findings", Status: models.LabelApproved},
	}

	for _, cat := range categories {
		// Use FirstOrCreate to avoid duplicates
		var existing models.Category
		if err := db.Where("name = ?", cat.Name).FirstOrCreate(&existing, &cat).Error; err != nil {
			return fmt.Errorf("failed to create default category %s: %w", cat.Name, err)
		}
	}

	return nil
}
