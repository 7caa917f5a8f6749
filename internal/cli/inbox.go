package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Show your notifications",
	Long: `Show the notifications queued for your account: items of yours
that were delivered or sent back for correction.`,
	RunE: runInbox,
}

var inboxReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runInboxRead,
}

var inboxUnreadOnly bool

func init() {
	inboxCmd.AddCommand(inboxReadCmd)
	inboxCmd.Flags().BoolVarP(&inboxUnreadOnly, "unread", "u", false, "Show only unread notifications")
}

func runInbox(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	notes, err := client.Notifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}

	shown := 0
	for _, n := range notes {
		if inboxUnreadOnly && n.Read {
			continue
		}
		marker := "•"
		if n.Read {
			marker = " "
		}
		fmt.Printf("  %s %s  %-8s  %s\n", marker,
			n.CreatedAt.Format("2006-01-02 15:04"), shortID(n.ID), n.Message)
		shown++
	}

	if shown == 0 {
		fmt.Println("📭 Inbox empty.")
	}
	return nil
}

func runInboxRead(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	notes, err := client.Notifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}

	id := args[0]
	for _, n := range notes {
		if n.ID == id || shortID(n.ID) == id {
			if err := client.MarkNotificationRead(ctx, n.ID); err != nil {
				return fmt.Errorf("failed to mark notification read: %w", err)
			}
			fmt.Println("✅ Marked as read.")
			return nil
		}
	}
	return fmt.Errorf("no notification matches %q", id)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
