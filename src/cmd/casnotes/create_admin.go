package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/casapps/casnotes/src/internal/config"
	"github.com/casapps/casnotes/src/internal/database"
	"github.com/casapps/casnotes/src/internal/database/models"
	"github.com/casapps/casnotes/src/internal/email"
	"github.com/casapps/casnotes/src/internal/services"
)

func createAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account interactively",
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

			if err := database.MigrateDB(db, cfg.GetString("database.type")); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			reader := bufio.NewReader(os.Stdin)

			fmt.Print("Username: ")
			username, err := reader.ReadString('\n')
			if err != nil {
				return err
			}

			fmt.Print("Email: ")
			address, err := reader.ReadString('\n')
			if err != nil {
				return err
			}

			fmt.Print("Password: ")
			password, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			fmt.Print("Confirm password: ")
			confirm, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if string(password) != string(confirm) {
				return fmt.Errorf("passwords do not match")
			}

			users := services.NewUserService(db, cfg, email.NewService(cfg))
			user, err := users.Register(services.RegisterInput{
				Username: strings.TrimSpace(username),
				Email:    strings.TrimSpace(address),
				Password: string(password),
				Role:     models.RoleAdmin,
			})
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}

			// Admins are always active even with signup moderation on
			if user.Status != models.UserActive {
				if _, err := users.UpdateStatus(user.ID, models.UserActive); err != nil {
					return fmt.Errorf("failed to activate admin: %w", err)
				}
			}

			fmt.Printf("Admin account %q created\n", user.Username)
			return nil
		},
	}
}
