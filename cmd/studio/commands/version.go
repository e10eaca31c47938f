package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/canvasml/studio/cmd/studio/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(build.String())
		if IsVerbose() {
			fmt.Printf("  go: %s\n", runtime.Version())
			if dir, err := sessionDir(); err == nil {
				fmt.Printf("  sessions: %s\n", dir)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
