package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rehearse/internal/analysis"
	"rehearse/internal/route"
)

func newAnalyzeCommand(app *App) *cobra.Command {
	var (
		asJSON  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <route.json>",
		Short: "List the decision points of a route",
		Long: `Analyze a routing result and list the junctions selected for rehearsal.
Use "-" to read the routing result from stdin.

Example:
  rehearse analyze route.json
  rehearse analyze route.json --json | jq '.points[].instruction'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.analyzeFile(cmd, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			app.Printer.PrintReport(report)
			if verbose && len(report.Points) > 0 {
				app.Printer.PrintDiagnostics(report.Points, nil, nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-point diagnostics")
	return cmd
}

// analyzeFile reads a routing result from path, or stdin for "-", and
// analyzes its primary route. A malformed document exits with code 2.
func (app *App) analyzeFile(cmd *cobra.Command, path string) (analysis.Report, error) {
	var (
		result *route.Result
		err    error
	)
	if path == "-" {
		result, err = route.Read(cmd.InOrStdin())
	} else {
		result, err = route.ReadFromFile(path)
	}
	if err != nil {
		return analysis.Report{}, app.fail(2, err)
	}

	analyzer, err := app.newAnalyzer()
	if err != nil {
		return analysis.Report{}, app.fail(1, err)
	}
	return analyzer.Analyze(result), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
