package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/funnelalchemy/prospect-scorer/internal/fileio"
	"github.com/funnelalchemy/prospect-scorer/internal/inference/gemini"
	"github.com/funnelalchemy/prospect-scorer/internal/util"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/engine"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/limits"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	settingsPath  string
	prospectsPath string
	outputPath    string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a local prospects file once and write results as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		if settingsPath == "" || prospectsPath == "" {
			return fmt.Errorf("score requires --settings and --prospects")
		}

		ctx, stop := signalContext()
		defer stop()

		settings, err := readSettings(settingsPath)
		if err != nil {
			return err
		}
		prospects, err := readProspects(prospectsPath)
		if err != nil {
			return err
		}

		client, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("gemini client: %s", util.RedactSecrets(err.Error()))
		}

		sc := cfg.Scoring
		orch := engine.New(
			client,
			limits.NewRateLimiter(sc.RequestsPerMinute, time.Minute),
			limits.NewConcurrencyGate(sc.MaxConcurrent),
			engine.Options{
				ChunkSize:      sc.ChunkSize,
				RequestTimeout: sc.RequestTimeout,
				Retry: engine.RetryPolicy{
					MaxRetries:        sc.MaxRetries,
					BackoffInitial:    sc.BackoffInitial,
					BackoffMax:        sc.BackoffMax,
					BackoffJitterFrac: sc.BackoffJitterFrac,
				},
			},
			log,
		)

		results, metrics, err := orch.Score(ctx, settings, prospects)
		if err != nil {
			return err
		}

		out := os.Stdout
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = f.Close()
			}()
			out = f
		}
		if err := fileio.WriteResultsJSON(out, results); err != nil {
			return err
		}

		log.Info("one-shot scoring complete",
			zap.Int("count", metrics.Count),
			zap.Int("ok", metrics.OK),
			zap.Float64("ok_share", metrics.OKShare),
			zap.Int("retries", metrics.Retries),
			zap.Duration("latency", metrics.Latency),
		)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&settingsPath, "settings", "", "ICP criteria YAML file")
	scoreCmd.Flags().StringVar(&prospectsPath, "prospects", "", "prospects file (.json array or .csv with an id column)")
	scoreCmd.Flags().StringVar(&outputPath, "output", "", "output JSON file (default stdout)")
}

func readSettings(path string) (core.Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return fileio.ReadSettingsYAML(f)
}

func readProspects(path string) ([]core.Prospect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return fileio.ReadProspectsCSV(f)
	}
	return fileio.ReadProspectsJSON(f)
}
