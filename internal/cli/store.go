package cli

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nunet/pkg/io"
	"github.com/matzehuels/nunet/pkg/storage"
)

// storeCommand groups the commands that share designs through the
// configured storage backend.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Share designs through the configured storage backend",
	}

	cmd.AddCommand(c.storePushCommand())
	cmd.AddCommand(c.storePullCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) storePushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the design file, replacing any stored copy with the same id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, d, err := c.loadDesign(ctx)
			if err != nil {
				return err
			}
			st, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			snap = io.FromStore(d.Store(), snap.ID, snap.Name)
			if err := st.Put(ctx, snap); err != nil {
				return err
			}
			printSuccess("Pushed %s", StyleValue.Render(snap.Name))
			printDetail("ID: %s", snap.ID)
			printStats(len(snap.Neurons), len(snap.Synapses), false)
			return nil
		},
	}
}

func (c *CLI) storePullCommand() *cobra.Command {
	var (
		out   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "pull <name|id>",
		Short: "Download a stored design",
		Long: `Pull writes a stored design to a local file. Designs are looked up by id or
by name; a name shared by several designs must be given as an id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := storage.Resolve(ctx, st, args[0])
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = c.designPath
			}
			if _, err := snap.Restore(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := io.Write(snap, &buf, io.FormatForPath(path)); err != nil {
				return err
			}
			if err := writeNew(path, buf.Bytes(), force); err != nil {
				return err
			}
			printSuccess("Pulled %s", StyleValue.Render(snap.Name))
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: the --design file)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored designs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No stored designs")
				return nil
			}
			fmt.Fprintln(output, renderEntryTable(entries))
			return nil
		},
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name|id>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored design",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := storage.Resolve(ctx, st, args[0])
			if err != nil {
				return err
			}
			if err := st.Delete(ctx, snap.ID); err != nil {
				return err
			}
			printSuccess("Deleted %s", StyleValue.Render(snap.Name))
			printDetail("ID: %s", snap.ID)
			return nil
		},
	}
}

func renderEntryTable(entries []storage.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.Name,
			e.ID.String(),
			strconv.Itoa(e.Neurons),
			strconv.Itoa(e.Synapses),
			e.UpdatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "ID", "Neurons", "Synapses", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}
