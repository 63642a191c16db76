package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"github.com/wibowo/umkm-backoffice/internal/config"
)

const migrationVersionFormat = "20060102150405"

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "apply or roll back schema migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			m, err := migrate.New("file://"+cfg.Database.MigrationDir, cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("init migrations: %w", err)
			}
			defer m.Close()

			switch args[0] {
			case "up":
				err = m.Up()
			case "down":
				err = m.Down()
			default:
				return fmt.Errorf("direction must be 'up' or 'down', got %q", args[0])
			}

			if err != nil && err != migrate.ErrNoChange {
				return fmt.Errorf("run migrations %s: %w", args[0], err)
			}

			log.Printf("Migrations %s complete", args[0])
			return nil
		},
	}
}

func migrateCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-create [name]",
		Short: "create a pair of empty migration files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			version := time.Now().Format(migrationVersionFormat)
			up := fmt.Sprintf("%s/%s_%s.up.sql", cfg.Database.MigrationDir, version, args[0])
			down := fmt.Sprintf("%s/%s_%s.down.sql", cfg.Database.MigrationDir, version, args[0])

			if err := os.WriteFile(up, []byte{}, 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(down, []byte{}, 0o644); err != nil {
				return err
			}

			fmt.Println("Created SQL up script:", up)
			fmt.Println("Created SQL down script:", down)
			return nil
		},
	}
}
