package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casapps/casnotes/src/internal/config"
	"github.com/casapps/casnotes/src/internal/database"
)

func migrateCmd() *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			db, err := database.Initialize(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return fmt.Errorf("failed to get database instance: %w", err)
			}
			defer sqlDB.Close()

			dbType := cfg.GetString("database.type")

			if down > 0 {
				manager, err := database.NewMigrationManager(db, dbType)
				if err != nil {
					return fmt.Errorf("failed to create migration manager: %w", err)
				}
				defer manager.Close()
				return manager.Down(down)
			}

			return database.MigrateDB(db, dbType)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "Roll back the given number of migrations")
	return cmd
}
