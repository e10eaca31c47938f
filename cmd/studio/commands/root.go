package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/canvasml/studio/pkg/cli"
	"github.com/canvasml/studio/pkg/sessionstore"
	"github.com/canvasml/studio/pkg/streamparse"
)

var (
	// Global flags
	verbose      bool
	outputFormat string
	dataDir      string
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Reconstruct multi-file projects from LLM generation streams",
	Long: `studio - parse token streams from an LLM into a virtual project,
preview it, and export it.

A generation stream describes a multi-file project inline in the model's
output, in one of two wire formats: a bracket-marker protocol or a tag-based
artifact protocol. The parser auto-detects the format, reconstructs files
incrementally, and tolerates malformed fragments.

Examples:
  # Parse a captured stream and show the project tree
  studio parse capture.txt

  # Pipe a stream and render the markdown preview
  cat capture.txt | studio preview - --file /README.md

  # Export the reconstructed project to a directory
  studio parse capture.txt --save
  studio export capture.txt --dir ./out

  # Live preview while a stream is being produced
  studio serve --addr :8787`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format (yaml, json)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "session database directory (default: OS config dir)")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

func outputOptions() cli.OutputOptions {
	return cli.OutputOptions{Format: cli.OutputFormat(outputFormat)}
}

// sessionDir resolves the session database directory.
func sessionDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, "studio", "sessions"), nil
}

// openStore opens the badger-backed session store.
func openStore() (sessionstore.Store, error) {
	dir, err := sessionDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return sessionstore.NewBadger(sessionstore.BadgerOptions{Dir: dir})
}

// openStream opens the stream source: a file path, or stdin for "-" or no
// argument.
func openStream(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(args[0])
}

// feed pumps the reader into the parser in fixed-size chunks.
func feed(p *streamparse.Parser, r io.Reader, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			p.ProcessChunk(string(buf[:n]))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// parseStream runs a full parse over the given source.
func parseStream(args []string, chunkSize int) (*streamparse.Parser, error) {
	r, err := openStream(args)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := streamparse.New()
	if err := feed(p, r, chunkSize); err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}
	return p, nil
}

// buildSession assembles a persistable session from a finished parse.
func buildSession(p *streamparse.Parser) *sessionstore.Session {
	s := &sessionstore.Session{
		EntryPoint:      p.EntryPoint(),
		Dependencies:    p.Dependencies(),
		DevDependencies: p.DevDependencies(),
		Files:           p.FS().Files(),
	}
	if info := p.Project(); info != nil {
		s.Name = info.Name
		s.Framework = info.Framework
		s.Description = info.Description
		if s.Name == "" {
			s.Name = info.ID
		}
	}
	return s
}
