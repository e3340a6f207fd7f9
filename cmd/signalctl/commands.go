package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	"SmartSignal/internal/repository"
	"SmartSignal/internal/services/binance"
	"SmartSignal/internal/services/engine"
	"SmartSignal/internal/services/insight"
	"SmartSignal/internal/usecase"
	"SmartSignal/pkg/config"
	xhttp "SmartSignal/pkg/http"
	"SmartSignal/pkg/logger"
	"SmartSignal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "signalctl",
		Short:         "signalctl - SmartSignal command line",
		Long:          "Generate trading signals locally and check risk/reward levels without running the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Configuration file path (defaults when empty)")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newRiskRewardCmd())
	return root
}

type generateOptions struct {
	mode      string
	seed      int64
	synthetic bool
	interval  string
	limit     int
	timeout   time.Duration
}

// newGenerateCmd runs one generation against live or synthetic data and
// prints the report as JSON.
func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate SYMBOL",
		Short: "Generate a signal for a symbol",
		Long: `Generate a signal report for a base asset symbol.
Example: signalctl generate BTC --mode 2 --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			seedSet := cmd.Flags().Changed("seed")
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], opts, seedSet)
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", string(models.ModeElite), "Trading mode: 1 quick pulse, 2 pro signal, 3 elite")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Seed for reproducible output")
	cmd.Flags().BoolVar(&opts.synthetic, "synthetic", false, "Use generated market data instead of Binance")
	cmd.Flags().StringVar(&opts.interval, "interval", "", "Kline interval (15m or 1h)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Number of candles to fetch")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall timeout")
	return cmd
}

func runGenerate(ctx context.Context, out io.Writer, cfg *config.Config, symbol string, opts generateOptions, seedSet bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	log := logger.Nop()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	eng, err := engine.New(cfg.Engine)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	var provider domrepo.MarketDataProvider = binance.NewSyntheticProvider(opts.seed)
	if !opts.synthetic && cfg.Market.Provider != "synthetic" {
		provider = binance.NewClient(cfg.Market.BaseURL, cfg.Market.QuoteAsset, log,
			xhttp.WithTimeout(cfg.Market.Timeout),
			xhttp.WithRetries(cfg.Market.Retries, 200*time.Millisecond),
		)
	}

	// The CLI never calls the LLM; elite reports use the template insight.
	gen := insight.NewGenerator(nil, log)

	loader := usecase.NewSnapshotLoader(provider, nil, m, cfg.Market.Timeout, 0, cfg.Market.DepthLimit)
	uc := usecase.NewSignalsUseCase(loader, eng, gen,
		repository.NewMemorySignalStore(), nil, nil, m, log,
		usecase.SignalsConfig{
			Interval:   domrepo.NormalizeInterval(cfg.Market.Interval),
			KlineLimit: cfg.Market.KlineLimit,
		})

	params := usecase.GenerateParams{
		Symbol: symbol,
		Mode:   models.ParseMode(opts.mode),
		Limit:  opts.limit,
	}
	if opts.interval != "" {
		params.Interval = domrepo.NormalizeInterval(opts.interval)
	}
	if seedSet {
		seed := opts.seed
		params.Seed = &seed
	}

	report, err := uc.Generate(ctx, params)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// newRiskRewardCmd computes the ratio for explicit levels.
func newRiskRewardCmd() *cobra.Command {
	var (
		action           string
		entry, stop, tp1 float64
	)
	cmd := &cobra.Command{
		Use:   "rr",
		Short: "Compute risk/reward for entry, stop loss and first target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rr, err := engine.RiskReward(models.Action(action), entry, stop, tp1)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s risk/reward 1:%.2f\n", models.Action(action).Label(), rr)
			return err
		},
	}
	cmd.Flags().StringVar(&action, "action", string(models.ActionBuyOnPullback), "BuyOnPullback or SellOnRally")
	cmd.Flags().Float64Var(&entry, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&stop, "stop", 0, "Stop loss")
	cmd.Flags().Float64Var(&tp1, "tp1", 0, "First take profit")
	_ = cmd.MarkFlagRequired("entry")
	_ = cmd.MarkFlagRequired("stop")
	_ = cmd.MarkFlagRequired("tp1")
	return cmd
}
