package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvila/tablero/internal/export"
	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/notify"
	"github.com/hvila/tablero/internal/store"
)

var moveCmd = &cobra.Command{
	Use:   "move [folio|id] [status]",
	Short: "Move a work item to a new status",
	Long: `Append a status transition to a work item.

Statuses: pending, in_production, correction, ready, delivered

Examples:
  tablero move VID-0042 in_production
  tablero move VID-0042 correction --note "logo is outdated"`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

var moveNote string

func init() {
	moveCmd.Flags().StringVarP(&moveNote, "note", "n", "", "Note attached to the transition")
}

func runMove(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	newStatus := model.Status(args[1])
	if !model.ValidStatus(newStatus) {
		return fmt.Errorf("unknown status %q", args[1])
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
	if item.Status == newStatus {
		fmt.Printf("%s is already %s.\n", item.FolioLabel(), export.StatusLabel(newStatus))
		return nil
	}

	if err := client.AppendStatusEvent(ctx, item.ID, newStatus, moveNote); err != nil {
		return fmt.Errorf("failed to move %s: %w", item.FolioLabel(), err)
	}

	if message, ok := notify.TransitionMessage(newStatus, item.FolioLabel()); ok {
		if cfg.NotifyAdvisor && item.AdvisorID != "" {
			if err := client.EnqueueNotification(ctx, item.AdvisorID, item.ID, message); err != nil {
				logger.Warn("Failed to enqueue advisor notification",
					logger.F("item", item.ID), logger.F("error", err))
			}
		}
		notify.NewWebhook(cfg.WebhookURL).Notify(ctx, item.ID, newStatus, message)
	}

	fmt.Printf("✅ %s: %s → %s\n", item.FolioLabel(),
		export.StatusLabel(item.Status), export.StatusLabel(newStatus))
	return nil
}
