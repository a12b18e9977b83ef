package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of escred",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("escred %s\n", version)
		if commit != "none" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Printf("  go:     %s\n", info.GoVersion)
		}
	},
}
