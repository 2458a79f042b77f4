package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/mcpo-tools/mcpoctl/internal/validate"
)

func newValidateCommand(i *do.Injector) *cobra.Command {
	var (
		envPath   string
		checkAll  bool
		configDir string
	)

	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate MCPO configuration files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			var opts validate.Options

			var reports []*validate.FileReport
			switch {
			case checkAll:
				var err error
				reports, err = validate.Directory(configDir, opts)
				if err != nil {
					return err
				}
			case len(args) == 1:
				reports = append(reports, validate.File(args[0], opts))
			default:
				return cmd.Help()
			}

			allValid := true
			for _, report := range reports {
				fmt.Printf("🔍 Validating: %s\n", report.Path)
				fmt.Println(strings.Repeat("-", 50))
				fmt.Println(report.Render())
				fmt.Println()
				if !report.Valid() {
					allValid = false
				}
			}

			if envPath != "" {
				fmt.Printf("🔍 Validating environment file: %s\n", envPath)
				fmt.Println(strings.Repeat("-", 50))
				envReport := validate.EnvFile(envPath, validate.Options{})
				if len(envReport.Findings) > 0 {
					fmt.Println("⚠️  ENVIRONMENT FILE ISSUES:")
					for _, f := range envReport.Findings {
						fmt.Printf("   • %s\n", f.Message)
					}
				} else {
					fmt.Println("✅ Environment file is valid!")
				}
				fmt.Println()
			}

			if allValid {
				fmt.Println("✅ All configurations are valid!")
				return nil
			}
			fmt.Println("❌ Some configurations have errors")
			return ErrValidationFailed
		},
	}

	cmd.Flags().StringVar(&envPath, "env", "", "Environment file to validate.")
	cmd.Flags().BoolVar(&checkAll, "check-all", false, "Check all config files in the config directory.")
	cmd.Flags().StringVar(&configDir, "dir", "config", "Directory scanned by --check-all.")

	return cmd
}
