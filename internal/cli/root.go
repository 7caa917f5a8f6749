package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hvila/tablero/internal/config"
	"github.com/hvila/tablero/internal/logger"
)

var (
	logLevel   string
	logConsole bool
	serverURL  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tablero",
	Short: "Tablero - production tracking for video requests",
	Long: `Tablero tracks video production requests from intake to delivery:
status history, advisor assignment, notifications and bitácora export.

Run 'tablero list' to see the current board, or 'tablero watch' to keep
it live against the server.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
		}
		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
		}

		logConfig := logger.DefaultConfig()
		logConfig.Level = logger.ParseLevel(cfg.LogLevel)
		logConfig.FilePath = cfg.LogFile
		logConfig.Console = cfg.LogConsole

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("Tablero started", logger.F("command", cmd.Name()))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd, args)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("Tablero exiting", logger.F("command", cmd.Name()))
		_ = logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL override")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(trashCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
}
