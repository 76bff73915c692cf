package cli

import (
	"github.com/spf13/cobra"

	"rehearse/internal/scoring"
)

func newPatternsCommand(app *App) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Print the active instruction pattern table",
		Long: `Print the instruction pattern table as YAML. Save the output as
patterns.yaml and translate it to rehearse routes in another language.

Example:
  rehearse patterns > patterns.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = app.Config.Scoring.PatternsPath
			}
			ps, err := scoring.LoadPatterns(scoring.ResolvePatternsPath(path))
			if err != nil {
				return app.fail(1, err)
			}
			if _, err := ps.Compile(); err != nil {
				return app.fail(1, err)
			}

			data, err := ps.Marshal()
			if err != nil {
				return app.fail(1, err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "pattern table to load instead of the configured one")
	return cmd
}
