package cli

import (
	"fmt"

	"github.com/funnelalchemy/prospect-scorer/internal/inference/gemini"
	"github.com/funnelalchemy/prospect-scorer/internal/server"
	"github.com/funnelalchemy/prospect-scorer/internal/util"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scoring HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		ctx, stop := signalContext()
		defer stop()

		client, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("gemini client: %s", util.RedactSecrets(err.Error()))
		}

		return server.New(cfg, client, log).Run(ctx)
	},
}
