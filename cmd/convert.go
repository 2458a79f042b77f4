package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/mcpo-tools/mcpoctl/internal/convert"
)

func newConvertCommand(i *do.Injector) *cobra.Command {
	var (
		inputPath        string
		readmePath       string
		useStdin         bool
		outputPath       string
		baseURL          string
		instructionsOnly bool
		configOnly       bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert standard MCP configurations to MCPO format",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			var (
				out   *convert.Output
				notes []convert.Note
				err   error
			)
			switch {
			case inputPath != "":
				raw, readErr := os.ReadFile(inputPath)
				if readErr != nil {
					return fmt.Errorf("failed to read input file: %w", readErr)
				}
				out, notes, err = convert.Convert(raw)
			case readmePath != "":
				raw, readErr := os.ReadFile(readmePath)
				if readErr != nil {
					return fmt.Errorf("failed to read README file: %w", readErr)
				}
				out, notes, err = convert.FromReadme(raw)
			case useStdin:
				fmt.Println("Paste your MCP configuration JSON (Press Ctrl+D when done):")
				raw, readErr := io.ReadAll(cmd.InOrStdin())
				if readErr != nil {
					return fmt.Errorf("failed to read stdin: %w", readErr)
				}
				out, notes, err = convert.Convert(raw)
			}
			if err != nil {
				return err
			}

			var rendered string
			switch {
			case configOnly:
				raw, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal configuration: %w", err)
				}
				rendered = string(raw)
			case instructionsOnly:
				rendered = convert.GenerateInstructions(out, baseURL, notes)
			default:
				raw, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal configuration: %w", err)
				}
				rendered = fmt.Sprintf("MCPO Configuration:\n%s\n\n%s", raw, convert.GenerateInstructions(out, baseURL, notes))
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(rendered), 0o644); err != nil {
					return fmt.Errorf("failed to write output file: %w", err)
				}
				fmt.Printf("✅ Output written to %s\n", outputPath)
				return nil
			}
			fmt.Println(rendered)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Input MCP configuration file.")
	cmd.Flags().StringVar(&readmePath, "readme", "", "README file containing an MCP configuration block.")
	cmd.Flags().BoolVar(&useStdin, "stdin", false, "Read the configuration JSON from stdin.")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout).")
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8000", "Base URL of the MCPO instance.")
	cmd.Flags().BoolVar(&instructionsOnly, "instructions", false, "Output only the setup instructions.")
	cmd.Flags().BoolVar(&configOnly, "config-only", false, "Output only the MCPO config JSON.")

	cmd.MarkFlagsMutuallyExclusive("input", "readme", "stdin")
	cmd.MarkFlagsOneRequired("input", "readme", "stdin")
	cmd.MarkFlagsMutuallyExclusive("instructions", "config-only")

	return cmd
}
