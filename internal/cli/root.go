package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type rootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
}

func NewRootCmd() *cobra.Command {
	rc := &rootConfig{}

	cmd := &cobra.Command{
		Use:           "backtest",
		Short:         "Bar-replay strategy backtesting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "./backtest.sqlite", "SQLite journal database")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(newLogger(rc.LogLevel))
		return nil
	}

	cmd.AddCommand(
		newRunCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("backtest (dev)")
		},
	})

	return cmd
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
