package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvila/tablero/internal/export"
	"github.com/hvila/tablero/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the bitácora as CSV",
	Long: `Export the full status history (bitácora) as CSV, newest first.

Examples:
  tablero export
  tablero export -o bitacora.csv`,
	RunE: runExport,
}

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	events, err := client.StatusEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch status events: %w", err)
	}
	// Deleted items keep their history; fetch the trash too so their
	// folios still resolve in the export.
	items, err := client.WorkItems(ctx, store.Filter{})
	if err != nil {
		return fmt.Errorf("failed to fetch work items: %w", err)
	}
	trash, err := client.WorkItems(ctx, store.Filter{Deleted: true})
	if err != nil {
		return fmt.Errorf("failed to fetch trash: %w", err)
	}
	users, err := client.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch users: %w", err)
	}

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer func() {
			_ = f.Close()
		}()
		out = f
	}

	if err := export.Bitacora(out, events, append(items, trash...), users); err != nil {
		return fmt.Errorf("failed to write bitácora: %w", err)
	}

	if exportOutput != "" {
		fmt.Printf("✅ Wrote %d events to %s\n", len(events), exportOutput)
	}
	return nil
}
