package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/unitmut/internal/domain"
	m "gooze.dev/pkg/unitmut/internal/model"
)

var unitsFrameworkFlag string

// unitsCmd represents the units command.
var unitsCmd = newUnitsCmd()

func newUnitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units [tests...]",
		Short: "List the atomic test units of the given test files",
		Long:  unitsLongDescription,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlagToConfig(cmd.Flags().Lookup(runFrameworkFlagName), runFrameworkConfigKey)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			tests := parsePaths(args)
			if len(tests) == 0 {
				tests = []m.Path{"./..."}
			}

			return workflow.Units(cmd.Context(), domain.UnitsArgs{
				Tests:     tests,
				Exclude:   viper.GetStringSlice(excludeConfigKey),
				Framework: m.Framework(viper.GetString(runFrameworkConfigKey)),
			})
		},
	}

	cmd.Flags().StringVar(&unitsFrameworkFlag, runFrameworkFlagName, viper.GetString(runFrameworkConfigKey), "test framework: go or jasmine")

	return cmd
}

func init() {
	rootCmd.AddCommand(unitsCmd)
}
