package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradekit/backtest/backtest"
	"github.com/tradekit/backtest/config"
	"github.com/tradekit/backtest/journal"
	"github.com/tradekit/backtest/market"
	"github.com/tradekit/backtest/pkg/id"
	"github.com/tradekit/backtest/strategy"
)

type runFlags struct {
	dataPath string
	symbol   string
	strat    string
	fast     int
	slow     int

	cash     float64
	costRate float64
	slippage float64
	stampTax float64
	maxPos   float64
}

func newRunCmd(rc *rootConfig) *cobra.Command {
	rf := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a CSV bar dataset against a strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(cmd, rc, rf)
		},
	}

	cmd.Flags().StringVar(&rf.dataPath, "data", "", "CSV bar dataset (date,open,high,low,close,volume[,code])")
	cmd.Flags().StringVar(&rf.symbol, "symbol", "", "Symbol for rows without a code column")
	cmd.Flags().StringVar(&rf.strat, "strategy", "", "Strategy name (noop, sma-cross)")
	cmd.Flags().IntVar(&rf.fast, "fast", 0, "Fast MA period")
	cmd.Flags().IntVar(&rf.slow, "slow", 0, "Slow MA period")
	cmd.Flags().Float64Var(&rf.cash, "cash", 0, "Initial cash (overrides config)")
	cmd.Flags().Float64Var(&rf.costRate, "cost", -1, "Transaction cost rate (overrides config)")
	cmd.Flags().Float64Var(&rf.slippage, "slippage", -1, "Slippage rate (overrides config)")
	cmd.Flags().Float64Var(&rf.stampTax, "stamp-tax", -1, "Sell-side stamp tax rate (overrides config)")
	cmd.Flags().Float64Var(&rf.maxPos, "max-position", 0, "Max fraction of cash per order (overrides config)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runBacktest(cmd *cobra.Command, rc *rootConfig, rf *runFlags) error {
	cfg, err := loadConfig(rc, rf)
	if err != nil {
		return err
	}

	feed, err := market.NewCSVBarFeed(rf.dataPath, cfg.Strategy.Symbol)
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}
	bars, err := market.LoadBars(feed)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars in %s", rf.dataPath)
	}

	strat, err := strategy.ByName(cfg.Strategy.Name, cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod)
	if err != nil {
		return err
	}

	params := backtest.Params{
		InitialCash:         cfg.Backtest.InitialCash,
		TransactionCostRate: cfg.Backtest.TransactionCostRate,
		SlippageRate:        cfg.Backtest.SlippageRate,
		StampTaxRate:        cfg.Backtest.StampTaxRate,
		MaxPositionPct:      cfg.Backtest.MaxPositionPct,
		RiskFreeRate:        cfg.Backtest.RiskFreeRate,
	}

	engine := backtest.NewEngine(params, slog.Default())
	if err := engine.Initialize(bars, strat); err != nil {
		return err
	}
	if err := engine.Run(); err != nil {
		return err
	}

	res := engine.Results()

	run := journal.RunRecord{
		RunID:       id.New(),
		Created:     time.Now(),
		Symbol:      bars[0].Symbol,
		Strategy:    strat.Name(),
		InitialCash: params.InitialCash,
	}

	PrintRunSummary(os.Stdout, run, res)

	return persist(cfg, run, res)
}

// loadConfig merges the optional config file with flag overrides. Flags
// win where set.
func loadConfig(rc *rootConfig, rf *runFlags) (*config.Config, error) {
	cfg := config.Default()
	if rc.ConfigPath != "" {
		loaded, err := config.LoadFromFile(rc.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if rf.strat != "" {
		cfg.Strategy.Name = rf.strat
	}
	if rf.symbol != "" {
		cfg.Strategy.Symbol = rf.symbol
	}
	if rf.fast > 0 {
		cfg.Strategy.FastPeriod = rf.fast
	}
	if rf.slow > 0 {
		cfg.Strategy.SlowPeriod = rf.slow
	}
	if rf.cash > 0 {
		cfg.Backtest.InitialCash = rf.cash
	}
	if rf.costRate >= 0 {
		cfg.Backtest.TransactionCostRate = rf.costRate
	}
	if rf.slippage >= 0 {
		cfg.Backtest.SlippageRate = rf.slippage
	}
	if rf.stampTax >= 0 {
		cfg.Backtest.StampTaxRate = rf.stampTax
	}
	if rf.maxPos > 0 {
		cfg.Backtest.MaxPositionPct = rf.maxPos
	}
	if rc.DBPath != "" && cfg.Journal.Type == "sqlite" {
		cfg.Journal.DBPath = rc.DBPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(cfg *config.Config, run journal.RunRecord, res backtest.Result) error {
	var j journal.Journal
	var err error

	switch cfg.Journal.Type {
	case "", "none":
		return nil
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	if err := journal.SaveResult(j, run, res); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}
