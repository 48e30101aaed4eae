package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/unitmut/internal/domain"
)

var listOperatorsFlag []string

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [sources...]",
		Short: "List the mutants of the given sources",
		Long:  listLongDescription,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlagToConfig(cmd.Flags().Lookup(runOperatorsFlagName), runOperatorsConfigKey)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.List(cmd.Context(), domain.ListArgs{
				Paths:     parsePaths(args),
				Exclude:   viper.GetStringSlice(excludeConfigKey),
				Operators: viper.GetStringSlice(runOperatorsConfigKey),
			})
		},
	}

	cmd.Flags().StringSliceVar(&listOperatorsFlag, runOperatorsFlagName, nil, "mutation operators to apply (default: all)")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
