package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canvasml/studio/pkg/streamparse"
)

var (
	promptWire      string
	promptName      string
	promptFramework string
	promptID        string
	promptTitle     string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print wire-format instructions for a generator",
	Long: `Prompt prints the instructions handed to an upstream model so its output
follows one of the wire formats this tool parses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch promptWire {
		case "marker":
			fmt.Print(streamparse.MarkerInstructions(promptName, promptFramework))
		case "artifact":
			fmt.Print(streamparse.ArtifactInstructions(promptID, promptTitle))
		default:
			return fmt.Errorf("unknown wire format %q (marker, artifact)", promptWire)
		}
		return nil
	},
}

func init() {
	promptCmd.Flags().StringVar(&promptWire, "wire", "marker", "wire format (marker, artifact)")
	promptCmd.Flags().StringVar(&promptName, "name", "", "project name placeholder")
	promptCmd.Flags().StringVar(&promptFramework, "framework", "", "framework placeholder")
	promptCmd.Flags().StringVar(&promptID, "id", "", "artifact id placeholder")
	promptCmd.Flags().StringVar(&promptTitle, "title", "", "artifact title placeholder")
	rootCmd.AddCommand(promptCmd)
}
