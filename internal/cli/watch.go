package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvila/tablero/internal/cache"
	"github.com/hvila/tablero/internal/controller"
	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/notify"
	"github.com/hvila/tablero/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the board live against the server",
	Long: `Watch the board: subscribe to the server's change feed, poll as a
fallback, and reprint the board whenever it changes. The latest state is
also written to the offline snapshot cache. Stop with Ctrl-C.`,
	RunE: runWatch,
}

var (
	watchMonth int
	watchYear  int
)

func init() {
	watchCmd.Flags().IntVarP(&watchMonth, "month", "m", 0, "Filter by month (1-12)")
	watchCmd.Flags().IntVarP(&watchYear, "year", "y", 0, "Filter by year")
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	snap, err := cache.OpenDefault()
	if err != nil {
		return fmt.Errorf("failed to open snapshot cache: %w", err)
	}
	defer func() {
		_ = snap.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filter := store.Filter{Month: watchMonth, Year: watchYear}
	ctrl := controller.New(client, notify.NewWebhook(cfg.WebhookURL), controller.Options{
		PollInterval:  cfg.PollInterval(),
		GraceWindow:   cfg.GraceWindow(),
		NotifyAdvisor: cfg.NotifyAdvisor,
		Filter:        filter,
		OnCommit: func(items []model.WorkItem) {
			printItems(fmt.Sprintf("Tablero @ %s", time.Now().Format("15:04:05")), items)
			if filter.Month == 0 && filter.Year == 0 {
				saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := snap.Save(saveCtx, items); err != nil {
					logger.Warn("Failed to save snapshot", logger.F("error", err))
				}
			}
		},
	})

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}
	fmt.Printf("👀 Watching %s (poll every %s). Ctrl-C to stop.\n",
		cfg.ServerURL, cfg.PollInterval())

	<-ctx.Done()
	fmt.Println("\nStopping...")
	return ctrl.Close()
}
