package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/mcpo-tools/mcpoctl/internal/config"
	"github.com/mcpo-tools/mcpoctl/internal/docker"
	"github.com/mcpo-tools/mcpoctl/internal/health"
	"github.com/mcpo-tools/mcpoctl/internal/logging"
)

// Sentinel errors that map to exit code 1 without a log entry. The command
// has already printed its report by the time these are returned.
var (
	ErrChecksFailed     = errors.New("health checks failed")
	ErrValidationFailed = errors.New("configuration validation failed")
)

var (
	configPath string
	logger     zerolog.Logger
)

func newRootCmd(i *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "mcpoctl",
		Short: "Operations toolkit for MCPO gateway deployments",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			// Source order determines precedence. The last source loaded will
			// override any previous values.
			var sources []*config.Source
			if configPath != "" {
				sources = append(sources, config.NewJsonFileSource(configPath))
			}
			sources = append(sources,
				config.NewEnvVarSource(),
				config.NewPFlagSource(cmd.Flags()),
			)

			cfg, err := config.LoadSources(sources...)
			if err != nil {
				return fmt.Errorf("failed to load configs: %w", err)
			}

			config.Provide(i, cfg)
			logging.Provide(i)
			docker.Provide(i)
			health.Provide(i)

			logger, err = do.Invoke[zerolog.Logger](i)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			return nil
		},
	}
}

func Execute() {
	i := do.New()
	rootCmd := newRootCmd(i)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config.json file for this tool.")
	rootCmd.PersistentFlags().StringP("logging.level", "l", "", "The logging level, e.g. 'debug', 'info', 'error', etc.")
	rootCmd.PersistentFlags().BoolP("logging.pretty", "p", false, "Use pretty logging instead of JSON logging.")

	rootCmd.AddCommand(
		newCheckCommand(i),
		newConvertCommand(i),
		newValidateCommand(i),
		newVersionCommand(i),
	)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrChecksFailed) || errors.Is(err, ErrValidationFailed) {
			os.Exit(1)
		}
		if logger.GetLevel() == zerolog.NoLevel {
			// NoLevel indicates that the logger is uninitialized. In this case
			// we'll use our fallback logger.
			logging.Fatal(err, "command failed")
		} else {
			logger.Fatal().
				Err(err).
				Msg("command failed")
		}
	}
}
