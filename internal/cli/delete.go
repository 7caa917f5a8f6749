package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvila/tablero/internal/store"
)

var rmCmd = &cobra.Command{
	Use:     "rm [folio|id]",
	Aliases: []string{"delete"},
	Short:   "Move a work item to the trash",
	Long: `Soft-delete a work item. The item disappears from the board but
its history stays; restore it with 'tablero restore'.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

var restoreCmd = &cobra.Command{
	Use:   "restore [folio|id]",
	Short: "Restore a work item from the trash",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "List deleted work items",
	RunE:  runTrash,
}

func runRm(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items, err := fetchBoard(ctx, client, store.Filter{})
	if err != nil {
		return fmt.Errorf("failed to fetch work items: %w", err)
	}

	item, err := resolveItem(items, args[0])
	if err != nil {
		return err
	}

	if err := client.SoftDelete(ctx, item.ID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", item.FolioLabel(), err)
	}

	fmt.Printf("🗑️  Moved %s to the trash. Undo with: tablero restore %s\n",
		item.FolioLabel(), item.FolioLabel())
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items, err := fetchBoard(ctx, client, store.Filter{Deleted: true})
	if err != nil {
		return fmt.Errorf("failed to fetch trash: %w", err)
	}

	item, err := resolveItem(items, args[0])
	if err != nil {
		return err
	}

	if err := client.Restore(ctx, item.ID); err != nil {
		return fmt.Errorf("failed to restore %s: %w", item.FolioLabel(), err)
	}

	fmt.Printf("✅ Restored %s\n", item.FolioLabel())
	return nil
}

func runTrash(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items, err := fetchBoard(ctx, client, store.Filter{Deleted: true})
	if err != nil {
		return fmt.Errorf("failed to fetch trash: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("Trash is empty.")
		return nil
	}

	printItems("Trash", items)
	return nil
}
