package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/status"
	"github.com/hvila/tablero/internal/store"
)

// newClient builds the store client from config and requires a session.
func newClient() (*store.Client, error) {
	client, err := store.NewClient(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	if !client.IsLoggedIn() {
		return nil, fmt.Errorf("not logged in. Run: tablero auth login")
	}
	return client, nil
}

// fetchBoard pulls the work item collection and the full status event
// log, and returns the items with their derived status.
func fetchBoard(ctx context.Context, client *store.Client, f store.Filter) ([]model.WorkItem, error) {
	items, err := client.WorkItems(ctx, f)
	if err != nil {
		return nil, friendlyErr(err)
	}
	events, err := client.StatusEvents(ctx)
	if err != nil {
		return nil, friendlyErr(err)
	}
	return status.Project(items, events), nil
}

func friendlyErr(err error) error {
	if errors.Is(err, store.ErrUnauthorized) {
		return fmt.Errorf("session expired. Run: tablero auth login")
	}
	return err
}

// resolveItem finds an item by folio, full id, or unique id prefix.
func resolveItem(items []model.WorkItem, ref string) (model.WorkItem, error) {
	for _, item := range items {
		if strings.EqualFold(item.Folio, ref) || item.ID == ref {
			return item, nil
		}
	}

	var matches []model.WorkItem
	for _, item := range items {
		if strings.HasPrefix(item.ID, ref) {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model.WorkItem{}, fmt.Errorf("no work item matches %q", ref)
	default:
		return model.WorkItem{}, fmt.Errorf("%q is ambiguous (%d matches); use the folio", ref, len(matches))
	}
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusPending:
		return "[ ]"
	case model.StatusInProduction:
		return "[~]"
	case model.StatusCorrection:
		return "[!]"
	case model.StatusReady:
		return "[✓]"
	case model.StatusDelivered:
		return "[x]"
	}
	return "[?]"
}

func priorityMark(p int) string {
	switch p {
	case model.PriorityUrgent:
		return "▲ P1"
	case model.PriorityHigh:
		return "▲ P2"
	case model.PriorityMedium:
		return "  P3"
	default:
		return "  P4"
	}
}

func printItems(title string, items []model.WorkItem) {
	fmt.Printf("\n📋 %s (%d items)\n", title, len(items))
	fmt.Println(strings.Repeat("─", 78))

	for _, item := range items {
		printItem(item)
	}
	fmt.Println()
}

func printItem(item model.WorkItem) {
	client := item.Client
	if len(client) > 20 {
		client = client[:17] + "..."
	}
	product := item.Product
	if len(product) > 24 {
		product = product[:21] + "..."
	}

	fmt.Printf("  %s  %-9s  %-20s  %-24s  %-13s  %s\n",
		statusIcon(item.Status), item.FolioLabel(), client, product,
		item.Status, priorityMark(item.Priority))
}
