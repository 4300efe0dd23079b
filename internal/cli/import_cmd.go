package cli

import (
	"fmt"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create a project from a YAML or JSON plan",
		Long: `Create a project from a YAML or JSON plan.

Dependencies that name unknown tasks are dropped with a warning. Malformed
entries such as "a:XX:0" are normalized to FS with lag 0 unless --strict is
set. A plan containing a dependency cycle is rejected and nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Imports.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatImportResult(res))
			return nil
		},
	}

	// Read through configuration (import.strict_dependencies) when services
	// are wired from flags.
	cmd.Flags().Bool("strict", false, "Reject malformed dependency entries instead of normalizing them")

	return cmd
}
