package cli

import (
	"fmt"

	"digitronix/internal/auth"
	"digitronix/internal/database"
	"digitronix/internal/repository"
	"digitronix/internal/service"

	"github.com/spf13/cobra"
)

func newCreateAdminCommand(app *App) *cobra.Command {
	var in service.RegisterInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Creates a user with admin rights. Public registration never grants
admin rights, so this is the only way to bootstrap an administrator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDatabase(func(db database.Service) error {
				tokens := auth.NewTokenManager(app.Config.JWT.Secret, app.Config.JWT.Expiry)
				users := service.NewUserService(repository.NewUserRepository(db.DB()), tokens, nil)

				user, err := users.CreateAdmin(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("failed to create admin: %w", err)
				}

				app.printf("Created admin %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number, unique across users")
	cmd.Flags().StringVar(&in.Country, "country", "", "Country")
	cmd.Flags().StringVar(&in.City, "city", "", "City")
	for _, name := range []string{"name", "email", "password", "phone"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
