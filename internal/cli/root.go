package cli

import (
	"fmt"
	"io"
	"os"

	"digitronix/internal/config"
	"digitronix/internal/database"
	"digitronix/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App carries what every command needs.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Connect func(cfg config.DatabaseConfig) (database.Service, error)
	Out     io.Writer
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.Out, format, args...)
}

// NewRootCommand builds the storectl command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "storectl",
		Short: "Digitronix store maintenance tool",
		Long: `storectl runs operator tasks against the store database: schema
migrations, administrator accounts and bulk fixes to stored data.

It reads the same environment and .env file as the API server.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCommand(app),
		newCreateAdminCommand(app),
		newRewriteImageURLsCommand(app),
	)
	return root
}

// Execute runs the root command
func Execute() {
	cfg := config.Load()
	app := &App{
		Config:  cfg,
		Logger:  logger.Must(cfg.Server.Env),
		Connect: database.New,
		Out:     os.Stdout,
	}
	defer app.Logger.Sync()

	if err := NewRootCommand(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withDatabase connects, runs fn and closes the pool.
func (a *App) withDatabase(fn func(db database.Service) error) error {
	db, err := a.Connect(a.Config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(db)
}
