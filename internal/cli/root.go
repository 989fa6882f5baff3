package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"microcap-trader/internal/agents"
	"microcap-trader/internal/analytics"
	"microcap-trader/internal/config"
	"microcap-trader/internal/ledger"
	"microcap-trader/internal/logging"
	"microcap-trader/internal/marketdata"
	"microcap-trader/internal/models"
	"microcap-trader/internal/trading"
	"microcap-trader/pkg/utils"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Ledger  ledger.Ledger
	Gateway marketdata.Gateway
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Micro-cap portfolio ledger with AI-assisted trading",
		Long: `A daily trading ledger for a single micro-cap stock portfolio.

Each run of 'trader cycle' prices the book, enforces stop losses,
applies manual and AI-recommended trades, and appends an immutable
daily snapshot. 'trader report' compares the equity curve against
market benchmarks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return app.initLedger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Ledger != nil {
				app.Ledger.Close()
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Output machine-readable JSON")

	rootCmd.AddCommand(
		newCycleCmd(app),
		newReportCmd(app),
		newTradeCmd(app),
		newExportCmd(app),
		newConfigCmd(app),
		newVersionCmd(),
	)

	return rootCmd
}

func (a *App) initLedger() error {
	if a.Ledger != nil {
		return nil
	}
	store, err := ledger.NewSQLiteLedger(a.Config.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening ledger at %s: %w", a.Config.DatabasePath(), err)
	}
	a.Ledger = store
	return nil
}

// gateway lazily constructs the resilient market data gateway, seeded
// with the last persisted prices so a feed outage on startup degrades
// to stale quotes instead of failing the run.
func (a *App) gateway(cmd *cobra.Command) marketdata.Gateway {
	if a.Gateway != nil {
		return a.Gateway
	}

	retryCfg := utils.DefaultRetryConfig()
	retryCfg.MaxAttempts = a.Config.Data.MaxRetries

	yahoo := marketdata.NewYahooClient(a.Config.DataTimeout(), a.Logger)
	resilient := marketdata.NewResilient(yahoo, retryCfg, a.Logger)

	if prices, err := a.Ledger.LatestPrices(cmd.Context()); err == nil && len(prices) > 0 {
		seed := make([]models.Quote, 0, len(prices))
		for _, q := range prices {
			seed = append(seed, q)
		}
		resilient.Seed(seed)
	} else if err != nil {
		a.Logger.Warn().Err(err).Msg("Could not seed fallback prices")
	}

	a.Gateway = resilient
	return a.Gateway
}

// provider builds the configured recommendation adapter, or returns an
// error when the backend is not usable.
func (a *App) adapter() (*agents.Adapter, error) {
	var provider agents.Provider

	switch a.Config.AI.Provider {
	case "openai":
		if a.Config.Credentials.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai provider selected but no API key configured (set OPENAI_API_KEY)")
		}
		provider = agents.NewOpenAIProvider(a.Config.Credentials.OpenAI.APIKey,
			a.Config.AI.Model, a.Config.AI.MaxRecommendations)
	case "ollama":
		host := a.Config.Credentials.Ollama.Host
		if host == "" {
			host = "http://localhost:11434"
		}
		provider = agents.NewOllamaProvider(host, a.Config.AI.Model,
			a.Config.AITimeout(), a.Config.AI.MaxRecommendations)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", a.Config.AI.Provider)
	}

	return agents.NewAdapter(provider, a.Config.AI.ConfidenceThreshold, a.Logger), nil
}

func (a *App) metricsConfig() analytics.Config {
	return analytics.Config{
		RiskFreeRate:       a.Config.Metrics.RiskFreeRate,
		TradingDaysPerYear: a.Config.Metrics.TradingDaysPerYear,
	}
}

func (a *App) newCycle(cmd *cobra.Command, adapter *agents.Adapter, approver trading.Approver) *trading.Cycle {
	executor := trading.NewExecutor(a.Ledger, a.Config.Risk.DefaultStopLossPercent,
		a.Config.Risk.MaxPositions, a.Logger)
	enforcer := trading.NewEnforcer(a.Logger)
	return trading.NewCycle(a.Ledger, a.gateway(cmd), executor, enforcer, adapter, approver,
		trading.CycleConfig{
			StartingCash: a.Config.Trading.StartingCash,
			Metrics:      a.metricsConfig(),
		}, a.Logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trader %s\n", Version)
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the active configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				out := NewOutput(cmd)
				if out.IsJSON() {
					return out.JSON(app.Config)
				}
				out.Bold("Configuration")
				out.Printf("  data dir:             %s\n", app.Config.Trading.DataDir)
				out.Printf("  starting cash:        $%.2f\n", app.Config.Trading.StartingCash)
				out.Printf("  default stop loss:    %.1f%%\n", app.Config.Risk.DefaultStopLossPercent)
				out.Printf("  max positions:        %d\n", app.Config.Risk.MaxPositions)
				out.Printf("  risk-free rate:       %.3f\n", app.Config.Metrics.RiskFreeRate)
				out.Printf("  benchmarks:           %v\n", app.Config.Metrics.Benchmarks)
				out.Printf("  ai provider:          %s (%s)\n", app.Config.AI.Provider, app.Config.AI.Model)
				out.Printf("  confidence threshold: %.2f\n", app.Config.AI.ConfidenceThreshold)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration directory",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), config.DefaultConfigDir())
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the loaded configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				out := NewOutput(cmd)
				if err := app.Config.Validate(); err != nil {
					return err
				}
				out.Success("Configuration is valid")
				return nil
			},
		},
	)

	return cmd
}

// parseDateFlag resolves a --date flag value, defaulting to today.
func parseDateFlag(cmd *cobra.Command) (time.Time, error) {
	value, _ := cmd.Flags().GetString("date")
	if value == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", value)
	}
	return date, nil
}
