package cli

import (
	"digitronix/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand(app *App) *cobra.Command {
	var dir string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.PersistentFlags().StringVar(&dir, "dir", app.Config.Database.MigrationsDir, "Directory holding the SQL migrations")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDatabase(func(db database.Service) error {
				return database.RunMigrations(db.DB(), dir, app.Logger)
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDatabase(func(db database.Service) error {
				return database.MigrationStatus(db.DB(), dir, app.Out)
			})
		},
	}

	migrateCmd.AddCommand(upCmd, statusCmd)
	return migrateCmd
}
