package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canvasml/studio/pkg/cli"
	"github.com/canvasml/studio/pkg/preview"
)

var (
	previewFile   string
	previewEngine string
	previewOut    string
)

var previewCmd = &cobra.Command{
	Use:   "preview [file|-]",
	Short: "Parse a stream and render a preview",
	Long: `Preview parses the stream, resolves a rendering adapter for the target
file (or the project), and writes the resulting markup.

Adapter resolution: --engine wins, then the --file target's adapter, then
the default bundler engine.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewFile, "file", "", "project path to focus the preview on")
	previewCmd.Flags().StringVar(&previewEngine, "engine", "", "force a specific adapter")
	previewCmd.Flags().StringVar(&previewOut, "out", "", "write markup to a file instead of stdout")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	p, err := parseStream(args, 4096)
	if err != nil {
		return err
	}

	opts := &preview.Options{Engine: previewEngine, ActiveFile: previewFile}
	if info := p.Project(); info != nil {
		opts.Name = info.Name
		opts.Framework = info.Framework
	}
	opts.EntryPoint = p.EntryPoint()
	opts.Dependencies = p.Dependencies()
	opts.DevDependencies = p.DevDependencies()

	res := preview.Default().Preview(cmd.Context(), p.FS(), opts)
	cli.PrintVerbose(IsVerbose(), "engine=%s duration=%s", res.Engine, res.Duration)
	if !res.Success {
		for _, w := range res.Warnings {
			cli.PrintWarning("%s", w)
		}
		return fmt.Errorf("preview failed (%s): %s", res.Engine, joinErrors(res.Errors))
	}

	if previewOut != "" {
		if err := os.WriteFile(previewOut, []byte(res.Markup), 0o644); err != nil {
			return err
		}
		cli.PrintSuccess("preview written to %s", previewOut)
		return nil
	}
	fmt.Print(res.Markup)
	return nil
}

func joinErrors(msgs []string) string {
	switch len(msgs) {
	case 0:
		return "unknown error"
	case 1:
		return msgs[0]
	}
	out := msgs[0]
	for _, m := range msgs[1:] {
		out += "; " + m
	}
	return out
}
