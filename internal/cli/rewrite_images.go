package cli

import (
	"fmt"
	"strings"

	"digitronix/internal/database"
	"digitronix/internal/repository"

	"github.com/spf13/cobra"
)

func newRewriteImageURLsCommand(app *App) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "rewrite-image-urls",
		Short: "Point legacy product image URLs at a new base URL",
		Long: `Product images uploaded before a deployment move keep the host they
were stored with. This rewrites plain-http and localhost image URLs onto
--base-url, keeping the /public/uploads/... path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
				return fmt.Errorf("--base-url must be an absolute http(s) URL, got %q", baseURL)
			}

			return app.withDatabase(func(db database.Service) error {
				changed, err := repository.NewProductRepository(db.DB()).RewriteImageBaseURL(cmd.Context(), baseURL)
				if err != nil {
					return err
				}
				app.printf("Rewrote %d product image URLs\n", changed)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", app.Config.Storage.PublicBaseURL, "Public base URL of the API")
	return cmd
}
