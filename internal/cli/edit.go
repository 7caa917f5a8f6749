package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvila/tablero/internal/store"
)

var editCmd = &cobra.Command{
	Use:   "edit [folio|id]",
	Short: "Edit a work item's fields",
	Long: `Update one or more fields of a work item. Only the flags you pass
are changed.

Examples:
  tablero edit VID-0042 --priority 1
  tablero edit VID-0042 --advisor 1a2b3c4d --board "Agosto"`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editClient    string
	editProduct   string
	editType      string
	editPriority  int
	editAdvisor   string
	editVideoType string
	editBoard     string
)

func init() {
	editCmd.Flags().StringVarP(&editClient, "client", "c", "", "Client name")
	editCmd.Flags().StringVar(&editProduct, "product", "", "Product or campaign")
	editCmd.Flags().StringVarP(&editType, "type", "t", "", "Request type")
	editCmd.Flags().IntVarP(&editPriority, "priority", "p", 0, "Priority (1=urgent, 4=low)")
	editCmd.Flags().StringVarP(&editAdvisor, "advisor", "a", "", "Assigned advisor user id")
	editCmd.Flags().StringVar(&editVideoType, "video-type", "", "Video type")
	editCmd.Flags().StringVar(&editBoard, "board", "", "Board name")
}

func runEdit(cmd *cobra.Command, args []string) error {
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

	var patch store.WorkItemPatch
	changed := false
	if cmd.Flags().Changed("client") {
		patch.Client = &editClient
		changed = true
	}
	if cmd.Flags().Changed("product") {
		patch.Product = &editProduct
		changed = true
	}
	if cmd.Flags().Changed("type") {
		patch.RequestType = &editType
		changed = true
	}
	if cmd.Flags().Changed("priority") {
		patch.Priority = &editPriority
		changed = true
	}
	if cmd.Flags().Changed("advisor") {
		patch.AdvisorID = &editAdvisor
		changed = true
	}
	if cmd.Flags().Changed("video-type") {
		patch.VideoType = &editVideoType
		changed = true
	}
	if cmd.Flags().Changed("board") {
		patch.Board = &editBoard
		changed = true
	}
	if !changed {
		fmt.Println("Nothing to change. Pass at least one field flag.")
		return nil
	}

	if err := client.UpdateWorkItem(ctx, item.ID, patch); err != nil {
		return fmt.Errorf("failed to update %s: %w", item.FolioLabel(), err)
	}

	fmt.Printf("✅ Updated %s\n", item.FolioLabel())
	return nil
}
