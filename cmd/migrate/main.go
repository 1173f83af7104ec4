package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/presenca/internal/database"
)

const databaseName = "presenca"

var (
	databaseURL string
	downSteps   int
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Presenca database schema",
	Long: `Apply or roll back the embedded SQL migrations.

Examples:
  migrate up
  migrate down
  migrate version
  migrate force 1 --database-url postgres://localhost/presenca`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *database.Migrator, _ []string) error {
		log.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Println("Migrations completed successfully")
		return nil
	}),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long:  "Roll back the last --steps migrations, or every migration with --steps 0.",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *database.Migrator, _ []string) error {
		if downSteps < 0 {
			return fmt.Errorf("steps must not be negative")
		}
		if downSteps == 0 {
			log.Println("Rolling back all migrations...")
			if err := m.Down(); err != nil {
				return fmt.Errorf("migration down failed: %w", err)
			}
		} else {
			log.Printf("Rolling back %d migration(s)...\n", downSteps)
			if err := m.Steps(-downSteps); err != nil {
				return fmt.Errorf("migration down failed: %w", err)
			}
		}
		log.Println("Migrations rolled back successfully")
		return nil
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *database.Migrator, _ []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		if dirty {
			log.Printf("Current version: %d (DIRTY - migration incomplete)\n", version)
		} else {
			log.Printf("Current version: %d\n", version)
		}
		return nil
	}),
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Mark a schema version as applied without running it",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(m *database.Migrator, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		log.Printf("Forcing migration to version %d...\n", version)
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}
		log.Println("Migration version forced successfully")
		return nil
	}),
}

func init() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string (default $DATABASE_URL)")
	downCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to roll back (0 rolls back all)")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd, forceCmd)
}

// withMigrator opens the database for the duration of one subcommand.
func withMigrator(fn func(m *database.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			return fmt.Errorf("database url is required (--database-url or DATABASE_URL)")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		db, err := database.OpenSQL(ctx, databaseURL)
		if err != nil {
			return err
		}
		log.Println("Connected to database")

		migrator, err := database.NewMigrator(db, databaseName)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to create migrator: %w", err)
		}
		migrator.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		// Closing the migrator closes db
		defer func() { _ = migrator.Close() }()

		return fn(migrator, args)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
