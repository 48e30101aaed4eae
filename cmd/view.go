package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/unitmut/internal/domain"
	m "gooze.dev/pkg/unitmut/internal/model"
)

var viewMutantFlag string
var viewCoverageDBFlag string

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View a previously generated mutation report",
		Long: `View the mutation report saved in the reports directory.

With --mutant, only the verdict of the mutant whose ID starts with the given
prefix is shown, with its killing units taken from the coverage database.`,
		Args: cobra.ExactArgs(0),
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlagToConfig(cmd.Flags().Lookup(coverageDBFlagName), coverageDBConfigKey)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.View(cmd.Context(), domain.ViewArgs{
				Reports:    m.Path(viper.GetString(outputFlagName)),
				MutantID:   viewMutantFlag,
				CoverageDB: viper.GetString(coverageDBConfigKey),
			})
		},
	}

	cmd.Flags().StringVar(&viewMutantFlag, viewMutantFlagName, "", "show a single mutant by ID prefix")
	cmd.Flags().StringVar(&viewCoverageDBFlag, coverageDBFlagName, viper.GetString(coverageDBConfigKey), "SQLite coverage database to read killing units from")

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
