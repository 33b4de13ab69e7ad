// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"inkwell/internal/config"
	"inkwell/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply, inspect and roll back the Inkwell schema",
		SilenceUsage: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending SQL migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, _ *config.Config, db *gorm.DB, _ []string) error {
				if err := database.RunMigrations(ctx, db); err != nil {
					return fmt.Errorf("sql migrations failed: %w", err)
				}
				log.Println("sql migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "auto",
			Short: "Run GORM AutoMigrate against the models",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, cfg *config.Config, db *gorm.DB, _ []string) error {
				cfg.DBSchemaMode = database.SchemaModeAuto
				if err := database.ApplySchema(ctx, db, cfg); err != nil {
					return fmt.Errorf("auto schema apply failed: %w", err)
				}
				log.Println("automigrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, cfg *config.Config, db *gorm.DB, _ []string) error {
				status, err := database.GetSchemaStatus(ctx, db, cfg)
				if err != nil {
					return fmt.Errorf("schema status failed: %w", err)
				}
				log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d",
					status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
					len(status.AppliedVersions), len(status.PendingMigrations))
				for _, m := range status.PendingMigrations {
					log.Printf("pending: %06d_%s", m.Version, m.Name)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down <version>",
			Short: "Roll back one applied migration",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(ctx context.Context, _ *config.Config, db *gorm.DB, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				if err := database.RollbackMigration(ctx, db, version); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				log.Printf("rolled back migration %d", version)
				return nil
			}),
		},
	)
	return root
}

type dbCommand func(ctx context.Context, cfg *config.Config, db *gorm.DB, args []string) error

// withDB loads configuration and connects without applying the schema.
func withDB(run dbCommand) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer func() { _ = database.Close() }()
		return run(cmd.Context(), cfg, db, args)
	}
}
