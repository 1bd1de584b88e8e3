package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/snapstack/pkg/model"
	"github.com/matzehuels/snapstack/pkg/store"
)

// workspaceOpts holds the persistent flags shared by the workspace
// subcommands.
type workspaceOpts struct {
	storeDir string // file store directory
	mongoURI string // MongoDB connection string; overrides the file store
}

func (c *CLI) workspaceCommand() *cobra.Command {
	opts := &workspaceOpts{}

	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage stored workspaces",
		Long: `List, save, show, and delete stored workspace documents.

Documents live in a local directory by default; pass --mongo to keep
them in MongoDB instead. The serve command reads the same store, so a
saved workspace is immediately available over the API.`,
	}

	cmd.PersistentFlags().StringVar(&opts.storeDir, "store-dir", "", "workspace store directory")
	cmd.PersistentFlags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for the workspace store")

	cmd.AddCommand(c.workspaceListCommand(opts))
	cmd.AddCommand(c.workspaceSaveCommand(opts))
	cmd.AddCommand(c.workspaceShowCommand(opts))
	cmd.AddCommand(c.workspaceDeleteCommand(opts))

	return cmd
}

// openStore opens the workspace document store: MongoDB when a URI is
// given, the local file store otherwise.
func openStore(ctx context.Context, opts *workspaceOpts) (store.Store, error) {
	if opts.mongoURI != "" {
		return store.NewMongoStore(ctx, store.MongoConfig{URI: opts.mongoURI})
	}
	return store.NewFileStore(opts.storeDir)
}

// =============================================================================
// Subcommands
// =============================================================================

func (c *CLI) workspaceListCommand(opts *workspaceOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx, opts)
			if err != nil {
				return fmt.Errorf("open workspace store: %w", err)
			}
			defer st.Close()

			docs, err := st.List(ctx)
			if err != nil {
				return fmt.Errorf("list workspaces: %w", err)
			}
			if len(docs) == 0 {
				printInfo("No stored workspaces")
				printNextStep("Save one with", "snapstack workspace save <file>")
				return nil
			}

			fmt.Println(renderWorkspaceTable(docs))
			return nil
		},
	}
}

func (c *CLI) workspaceSaveCommand(opts *workspaceOpts) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save [workspace.json]",
		Short: "Validate a workspace file and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			logger := loggerFromContext(ctx)
			logger.Infof("Parsing %s", path)

			prog := newProgress(logger)
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read workspace file: %w", err)
			}
			ws, err := model.UnmarshalWorkspace(data)
			if err != nil {
				return fmt.Errorf("parse workspace file: %w", err)
			}

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			st, err := openStore(ctx, opts)
			if err != nil {
				return fmt.Errorf("open workspace store: %w", err)
			}
			defer st.Close()

			doc := store.NewDocument(name, data)
			if err := st.Set(ctx, doc); err != nil {
				return fmt.Errorf("store workspace: %w", err)
			}
			prog.done(fmt.Sprintf("Stored %d blocks under %q", ws.BlockCount(), name))

			printSuccess("Saved workspace %q", name)
			printKeyValue("ID", doc.ID)
			printKeyValue("Blocks", fmt.Sprintf("%d", ws.BlockCount()))
			printNextStep("List stored workspaces with", "snapstack workspace list")
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "document name (default: file name)")
	return cmd
}

func (c *CLI) workspaceShowCommand(opts *workspaceOpts) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print a stored workspace document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx, opts)
			if err != nil {
				return fmt.Errorf("open workspace store: %w", err)
			}
			defer st.Close()

			doc, err := st.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load workspace %q: %w", args[0], err)
			}
			if doc == nil {
				return fmt.Errorf("workspace %q: %w", args[0], store.ErrNotFound)
			}

			w, err := openOutput(output)
			if err != nil {
				return err
			}
			defer w.Close()

			if _, err := w.Write(doc.Data); err != nil {
				return fmt.Errorf("write workspace: %w", err)
			}
			if len(doc.Data) > 0 && doc.Data[len(doc.Data)-1] != '\n' {
				fmt.Fprintln(w)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) workspaceDeleteCommand(opts *workspaceOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx, opts)
			if err != nil {
				return fmt.Errorf("open workspace store: %w", err)
			}
			defer st.Close()

			if err := st.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("delete workspace %q: %w", args[0], err)
			}
			printSuccess("Deleted workspace %s", args[0])
			return nil
		},
	}
}

// =============================================================================
// Rendering
// =============================================================================

// renderWorkspaceTable renders stored documents as a table, newest first.
func renderWorkspaceTable(docs []*store.Document) string {
	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		blocks := "-"
		if ws, err := model.UnmarshalWorkspace(doc.Data); err == nil {
			blocks = fmt.Sprintf("%d", ws.BlockCount())
		}
		rows = append(rows, []string{
			doc.ID,
			doc.Name,
			blocks,
			formatBytes(int64(len(doc.Data))),
			formatRelativeTime(doc.UpdatedAt),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Blocks", "Size", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 3 || col == 4 {
				return base.Foreground(colorDim)
			}
			return base
		})

	return t.Render()
}

// formatRelativeTime renders a timestamp relative to now, falling back to
// a date for anything older than a week.
func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
