package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/unitmut/internal/domain"
	m "gooze.dev/pkg/unitmut/internal/model"
)

var runParallelFlag uint
var runShardFlag string
var runTestsFlag []string
var runTimeoutFlag string
var runIndividualTestsFlag bool
var runFrameworkFlag string
var runCommandFlag string
var runOperatorsFlag []string
var runCoverageDBFlag string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [sources...]",
		Short: "Run mutation testing",
		Long:  runLongDescription,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindRunFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := runnerConfigFromViper()
			if err != nil {
				return err
			}

			shardIndex, totalShards := parseShardFlag(viper.GetString(runShardConfigKey))

			return workflow.Run(cmd.Context(), domain.RunArgs{
				Paths:           parsePaths(args),
				Tests:           parsePaths(runTestsFlag),
				Exclude:         viper.GetStringSlice(excludeConfigKey),
				Reports:         m.Path(viper.GetString(outputFlagName)),
				Threads:         viper.GetUint(runParallelConfigKey),
				ShardIndex:      uint(shardIndex),
				TotalShardCount: uint(totalShards),
				Operators:       viper.GetStringSlice(runOperatorsConfigKey),
				Runner:          runner,
				CoverageDB:      viper.GetString(coverageDBConfigKey),
				SpillDir:        viper.GetString(runSpillDirConfigKey),
			})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().UintVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetUint(runParallelConfigKey), "number of parallel workers (0 uses every CPU)")
	cmd.Flags().StringVarP(&runShardFlag, runShardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")
	cmd.Flags().StringArrayVarP(&runTestsFlag, runTestsFlagName, "t", nil, "test files or directories (required for non-Go frameworks)")
	cmd.Flags().StringVar(&runTimeoutFlag, runTimeoutFlagName, viper.GetString(runTimeoutConfigKey), "timeout for one test invocation (0 disables)")
	cmd.Flags().BoolVar(&runIndividualTestsFlag, runIndividualFlag, viper.GetBool(runIndividualConfigKey), "run every test unit on its own")
	cmd.Flags().StringVar(&runFrameworkFlag, runFrameworkFlagName, viper.GetString(runFrameworkConfigKey), "test framework: go or jasmine")
	cmd.Flags().StringVar(&runCommandFlag, runCommandFlagName, "", "test command for non-Go frameworks (e.g. \"npx jasmine\")")
	cmd.Flags().StringSliceVar(&runOperatorsFlag, runOperatorsFlagName, nil, "mutation operators to apply (default: all)")
	cmd.Flags().StringVar(&runCoverageDBFlag, coverageDBFlagName, viper.GetString(coverageDBConfigKey), "SQLite database recording which units kill which mutants (empty disables)")
}

// bindRunFlags binds the run flags right before execution, since list, units
// and view bind some of the same keys to their own flags.
func bindRunFlags(cmd *cobra.Command) {
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(runShardFlagName), runShardConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(runTimeoutFlagName), runTimeoutConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(runIndividualFlag), runIndividualConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(runFrameworkFlagName), runFrameworkConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(runCommandFlagName), runCommandConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(runOperatorsFlagName), runOperatorsConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(coverageDBFlagName), coverageDBConfigKey)
}

func parseShardFlag(shard string) (int, int) {
	if shard == "" {
		return 0, 1
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 1
	}

	return index, total
}
