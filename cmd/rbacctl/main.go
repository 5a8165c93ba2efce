package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/config"
	"github.com/Kyz7/rbac-console/internal/database"
	"github.com/Kyz7/rbac-console/internal/role"
	"github.com/Kyz7/rbac-console/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()

	var migrationsDir string

	root := &cobra.Command{
		Use:           "rbacctl",
		Short:         "Maintenance commands for the RBAC console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and apply SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db, log); err != nil {
				return err
			}
			return database.RunMigrations(db, migrationsDir, log)
		},
	}
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "./migrations", "Directory holding *.sql migrations")

	migrateStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "List applied SQL migrations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			applied, err := database.GetAppliedMigrations(db)
			if err != nil {
				return err
			}
			for _, m := range applied {
				fmt.Printf("%s\t%s\n", m.AppliedAt.Format(time.RFC3339), m.Version)
			}
			return nil
		},
	}
	migrateCmd.AddCommand(migrateStatusCmd)

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the console capabilities and default roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			return role.SeedDefaults(cmd.Context(), db, log)
		},
	}

	var userID uint
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.ValidateJWTSecret(); err != nil {
				return err
			}
			utils.LoadJWTSecret()

			token, err := utils.GenerateJWT(userID)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().UintVar(&userID, "user", 0, "User id")
	_ = tokenCmd.MarkFlagRequired("user")

	capsCmd := &cobra.Command{
		Use:   "capabilities",
		Short: "List the capabilities a user holds directly or through roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			return printCapabilities(cmd.Context(), db, log, userID)
		},
	}
	capsCmd.Flags().UintVar(&userID, "user", 0, "User id")
	_ = capsCmd.MarkFlagRequired("user")

	root.AddCommand(migrateCmd, seedCmd, tokenCmd, capsCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func printCapabilities(ctx context.Context, db *gorm.DB, log *logrus.Logger, userID uint) error {
	gate := access.NewPermissionGate(db, time.Minute, log)

	granted, err := gate.Capabilities(ctx, userID)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(granted))
	for name := range granted {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
