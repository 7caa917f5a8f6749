package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvila/tablero/internal/cache"
	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/store"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List work items",
	Long: `List work items on the board, optionally filtered by month.

Examples:
  tablero list
  tablero list --month 8 --year 2026`,
	RunE: runList,
}

var (
	listMonth int
	listYear  int
)

func init() {
	listCmd.Flags().IntVarP(&listMonth, "month", "m", 0, "Filter by month (1-12)")
	listCmd.Flags().IntVarP(&listYear, "year", "y", 0, "Filter by year")
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	filter := store.Filter{Month: listMonth, Year: listYear}
	items, err := fetchBoard(ctx, client, filter)
	if err != nil {
		// Fall back to the last snapshot so the board stays readable
		// offline. The snapshot is only ever the unfiltered view.
		if listMonth == 0 && listYear == 0 {
			if cached, when, cacheErr := loadSnapshot(ctx); cacheErr == nil {
				fmt.Printf("⚠️  Server unreachable, showing snapshot from %s\n",
					when.Format("2006-01-02 15:04"))
				printItems("Tablero (cached)", cached)
				return nil
			}
		}
		return fmt.Errorf("failed to fetch work items: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("No work items found. Add one with: tablero add")
		return nil
	}

	printItems("Tablero", items)
	saveSnapshot(ctx, filter, items)
	return nil
}

func loadSnapshot(ctx context.Context) ([]model.WorkItem, time.Time, error) {
	c, err := cache.OpenDefault()
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() {
		_ = c.Close()
	}()

	items, err := c.Load(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(items) == 0 {
		return nil, time.Time{}, fmt.Errorf("snapshot is empty")
	}
	when, _ := c.SavedAt(ctx)
	return items, when, nil
}

// saveSnapshot refreshes the offline cache after a successful unfiltered
// fetch. Best effort; a cache failure never fails the command.
func saveSnapshot(ctx context.Context, f store.Filter, items []model.WorkItem) {
	if f.Month != 0 || f.Year != 0 || f.Deleted {
		return
	}
	c, err := cache.OpenDefault()
	if err != nil {
		logger.Warn("Failed to open snapshot cache", logger.F("error", err))
		return
	}
	defer func() {
		_ = c.Close()
	}()
	if err := c.Save(ctx, items); err != nil {
		logger.Warn("Failed to save snapshot", logger.F("error", err))
	}
}
