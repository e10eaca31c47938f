package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canvasml/studio/pkg/cli"
	"github.com/canvasml/studio/pkg/streamparse"
)

var (
	parseChunkSize int
	parseSave      bool
	parseEvents    bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse a generation stream and show the reconstructed project",
	Long: `Parse reads a captured generation stream (or stdin), reconstructs the
project, and prints a summary with the file tree.

The wire format (marker or artifact) is auto-detected. Malformed fragments
are skipped; anomalies are listed at the end.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().IntVar(&parseChunkSize, "chunk-size", 4096, "read chunk size in bytes")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "persist the session to the local store")
	parseCmd.Flags().BoolVar(&parseEvents, "events", false, "print lifecycle events as they occur")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	r, err := openStream(args)
	if err != nil {
		return err
	}
	defer r.Close()

	p := streamparse.New()
	if parseEvents {
		p.OnEvent(func(e streamparse.Event) {
			switch e.Type {
			case streamparse.EventFileContent:
				// Too chatty for the terminal.
			case streamparse.EventFileStart, streamparse.EventFileEnd:
				fmt.Printf("%-13s %s\n", e.Type, e.Path)
			case streamparse.EventDependency:
				fmt.Printf("%-13s %s@%s\n", e.Type, e.Dependency.Name, e.Dependency.Version)
			default:
				fmt.Printf("%-13s\n", e.Type)
			}
		})
	}
	if err := feed(p, r, parseChunkSize); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}

	printParseSummary(p)

	if parseSave {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		s := buildSession(p)
		if err := store.Put(context.Background(), s); err != nil {
			return err
		}
		cli.PrintSuccess("session saved: %s", s.ID)
	}
	return nil
}

func printParseSummary(p *streamparse.Parser) {
	styles := cli.NewStyles(cli.DefaultTheme)

	name, framework := "(unnamed)", "-"
	if info := p.Project(); info != nil {
		if info.Name != "" {
			name = info.Name
		}
		if info.Framework != "" {
			framework = info.Framework
		}
	}
	pairs := [][2]string{
		{"format", p.Format().String()},
		{"framework", framework},
		{"files", fmt.Sprintf("%d", len(p.CompletedFiles()))},
		{"size", fmt.Sprintf("%d bytes", p.FS().TotalSize())},
		{"dependencies", fmt.Sprintf("%d (+%d dev)", len(p.Dependencies()), len(p.DevDependencies()))},
	}
	if ep := p.EntryPoint(); ep != "" {
		pairs = append(pairs, [2]string{"entry", ep})
	}
	fmt.Println(styles.Summary(name, pairs))
	fmt.Println(styles.FileTree(p.FS().Tree()))

	if !p.Done() {
		cli.PrintWarning("stream ended before the project was closed")
	}
	for _, pe := range p.Errors() {
		cli.PrintWarning("%s", pe.Message)
	}
}
