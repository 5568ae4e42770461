// Package main provides a one-shot CLI that evaluates a board and prints it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/prop-edge/internal/cache"
	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/provider"
	"github.com/yourusername/prop-edge/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	inputFile  string
	scope      string
	subLevel   int
	limit      int
	asJSON     bool

	appLog    *logrus.Logger
	cfg       *config.Config
	evaluator *service.Evaluator
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&inputFile, "input", "", "Evaluate a saved events JSON file instead of fetching live odds")
	rootCmd.Flags().StringVar(&scope, "scope", service.ScopeGame, "Board scope: game, props or all")
	rootCmd.Flags().IntVar(&subLevel, "sub", -1, "Subscription level for visibility (-1 = unrestricted)")
	rootCmd.Flags().IntVar(&limit, "limit", 25, "Maximum number of plays to print (0 = all)")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Print the full board as JSON")
}

var rootCmd = &cobra.Command{
	Use:   "evaluate SPORT",
	Short: "Evaluate the current board for a sport",
	Long:  `Fetches current odds, runs the mixture simulation over every market and prints the ranked board.`,
	Args:  cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluation(cmd.Context(), args[0])
	},
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	appLog = logger.NewLogger("warn")
	metrics.InitRegistry()

	var source provider.OddsSource
	if inputFile != "" {
		fs, err := newFileSource(inputFile)
		if err != nil {
			return err
		}
		source = fs
	} else {
		source = newLiveSource()
	}

	store := cache.NewMemoryStore(cfg.Cache.TTL(), nil)
	evaluator = service.NewEvaluator(cfg, source, store, nil, appLog)
	return nil
}

func newLiveSource() provider.OddsSource {
	return provider.NewClient(provider.ClientConfig{
		BaseURL:      cfg.Provider.BaseURL,
		APIKey:       cfg.Provider.APIKey,
		Regions:      cfg.Provider.Regions,
		OddsFormat:   cfg.Provider.OddsFormat,
		Timeout:      time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		MaxRetries:   cfg.Provider.MaxRetries,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		RateLimit:    cfg.Provider.RateLimit,
	}, appLog)
}

// fileSource serves a saved events payload, letting a board be re-evaluated
// offline or against a captured fixture.
type fileSource struct {
	events []provider.Event
}

func newFileSource(path string) (*fileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	var events []provider.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse events file: %w", err)
	}
	return &fileSource{events: events}, nil
}

func (f *fileSource) FetchGameOdds(ctx context.Context, sportKey string, marketKeys []string) ([]provider.Event, error) {
	return f.events, nil
}

func (f *fileSource) FetchEvents(ctx context.Context, sportKey string) ([]provider.Event, error) {
	return f.events, nil
}

func (f *fileSource) FetchEventProps(ctx context.Context, sportKey, eventID string, marketKeys []string) (*provider.Event, error) {
	for i := range f.events {
		if f.events[i].ID == eventID {
			return &f.events[i], nil
		}
	}
	return &provider.Event{ID: eventID}, nil
}

func runEvaluation(ctx context.Context, sport string) error {
	results, err := evaluator.EvaluateSport(ctx, sport, scope)
	if err != nil {
		return err
	}

	ranked := evaluator.RankForSubscriber(results, subLevel)
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(ranked)
	}

	fmt.Printf("%-14s %-34s %-8s %8s %8s %8s\n",
		"TIER", "MARKET", "SIDE", "LINE", "COVER", "EV")
	for _, r := range ranked {
		line := "-"
		if r.Market.HasLine() {
			line = fmt.Sprintf("%.1f", r.Market.LineValue())
		}
		label := r.TierLabel
		if !r.Visible {
			label += " *"
		}
		name := r.Market.Entity
		if name == "" {
			name = r.Market.EventName
		}
		fmt.Printf("%-14s %-34.34s %-8.8s %8s %7.1f%% %+7.2f%%\n",
			label, fmt.Sprintf("%s %s", name, r.Market.MarketKey), string(r.Market.Side),
			line, r.CoverProbability*100, r.ExpectedValue*100)
	}
	fmt.Printf("\n%d plays (* = locked for subscription level %d)\n", len(ranked), subLevel)
	return nil
}
