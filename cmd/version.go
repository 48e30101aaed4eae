package cmd

import (
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"gooze.dev/pkg/unitmut/internal/domain"
	m "gooze.dev/pkg/unitmut/internal/model"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version, the Go version and the built-in operators and test frameworks.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, goVersion := "unknown", runtime.Version()
			if info, ok := debug.ReadBuildInfo(); ok {
				if info.Main.Version != "" {
					version = info.Main.Version
				}

				goVersion = info.GoVersion
			}

			registry, err := domain.DefaultRegistry()
			if err != nil {
				return err
			}

			cmd.Println("unitmut version\t", version)
			cmd.Println("go version\t", goVersion)
			cmd.Println("operators\t", strings.Join(registry.Names(), ", "))
			cmd.Println("frameworks\t", strings.Join([]string{string(m.FrameworkGo), string(m.FrameworkJasmine)}, ", "))

			return nil
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
