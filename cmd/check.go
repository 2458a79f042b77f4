package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/mcpo-tools/mcpoctl/internal/health"
)

func newCheckCommand(i *do.Injector) *cobra.Command {
	var (
		formatName string
		outputPath string
		exitCode   bool
		continuous int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run health checks against an MCPO deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			format, err := health.ParseFormat(formatName)
			if err != nil {
				return err
			}

			checker, err := do.Invoke[*health.Checker](i)
			if err != nil {
				return fmt.Errorf("failed to initialize health checker: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runOnce := func() (*health.Report, error) {
				report := checker.Run(ctx)
				out, err := health.FormatReport(report, format)
				if err != nil {
					return nil, err
				}
				return report, writeOutput(outputPath, out)
			}

			if continuous <= 0 {
				report, err := runOnce()
				if err != nil {
					return err
				}
				if exitCode && report.OverallStatus == health.StatusFail {
					return ErrChecksFailed
				}
				return nil
			}

			for {
				if _, err := runOnce(); err != nil {
					return err
				}
				if format == health.FormatHuman {
					separator := strings.Repeat("=", 50)
					fmt.Printf("\n%s\nNext check in %d seconds...\n%s\n\n", separator, continuous, separator)
				}
				select {
				case <-ctx.Done():
					fmt.Println("\nHealth check monitoring stopped.")
					return nil
				case <-time.After(time.Duration(continuous) * time.Second):
				}
			}
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", string(health.FormatHuman), "Output format: human, json, or prometheus.")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout.")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with code 1 when the overall status is fail.")
	cmd.Flags().IntVar(&continuous, "continuous", 0, "Run continuously with the given interval in seconds.")

	return cmd
}

func writeOutput(path, content string) error {
	if path == "" {
		fmt.Println(content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
