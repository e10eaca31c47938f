package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canvasml/studio/pkg/cli"
	"github.com/canvasml/studio/pkg/exportstore"
	"github.com/canvasml/studio/pkg/vfs"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		styles := cli.NewStyles(cli.DefaultTheme)
		n := 0
		for s, err := range store.List(cmd.Context()) {
			if err != nil {
				return err
			}
			n++
			name := s.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%s  %s %s\n",
				s.ID,
				name,
				styles.Dim.Render(fmt.Sprintf("(%d files, %s)",
					len(s.Files), s.UpdatedAt.Format("2006-01-02 15:04"))))
		}
		if n == 0 {
			fmt.Println("no sessions stored")
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		s, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return cli.Output(s, outputOptions())
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("session deleted: %s", args[0])
		return nil
	},
}

var sessionExportDir string

var sessionExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a stored session to a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		s, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		sink, err := exportstore.NewLocal(sessionExportDir)
		if err != nil {
			return err
		}
		n, err := exportstore.Export(cmd.Context(), sink, vfs.NewFromFiles(s.Files), &exportstore.Manifest{
			Name:            s.Name,
			Framework:       s.Framework,
			EntryPoint:      s.EntryPoint,
			Dependencies:    s.Dependencies,
			DevDependencies: s.DevDependencies,
		})
		if err != nil {
			return err
		}
		cli.PrintSuccess("exported %d files to %s", n, sessionExportDir)
		return nil
	},
}

func init() {
	sessionExportCmd.Flags().StringVar(&sessionExportDir, "dir", ".", "destination directory")
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionDeleteCmd, sessionExportCmd)
	rootCmd.AddCommand(sessionCmd)
}
