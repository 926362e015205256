package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kadavilrahul/reddit-bot/internal/bot"
	"github.com/kadavilrahul/reddit-bot/internal/config"
	"github.com/kadavilrahul/reddit-bot/internal/gemini"
	"github.com/kadavilrahul/reddit-bot/internal/reddit"
	"github.com/kadavilrahul/reddit-bot/internal/snapshot"
	"github.com/kadavilrahul/reddit-bot/internal/synthesizer"
	"github.com/kadavilrahul/reddit-bot/internal/telegram_bot"
	"github.com/kadavilrahul/reddit-bot/internal/validator"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"

	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "redditbot",
	Short: "Reddit bot with AI-generated comments",
	Long: `redditbot automates Reddit engagement: it retrieves and searches posts,
drafts comments with Gemini, validates them before submission, and can
watch a subreddit for keywords over a fixed window.

Run without arguments to start the interactive menu.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		zcfg := zap.NewDevelopmentConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runInteractive,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Fetch flags
	fetchCmd.Flags().StringVarP(&fetchSubreddit, "subreddit", "s", "", "Subreddit to retrieve (required)")
	fetchCmd.Flags().StringVar(&fetchSort, "sort", "hot", "Sort method: hot, new, top, rising")
	fetchCmd.Flags().IntVarP(&fetchLimit, "limit", "n", 10, "Number of posts to retrieve")
	fetchCmd.Flags().BoolVar(&fetchComments, "comments", false, "Include top comments for each post")
	fetchCmd.MarkFlagRequired("subreddit")

	// Auto-comment flags
	autoCommentCmd.Flags().StringVarP(&autoSubreddit, "subreddit", "s", "", "Subreddit to comment in (required)")
	autoCommentCmd.Flags().IntVarP(&autoMax, "max", "m", 5, "Maximum comments to post")
	autoCommentCmd.Flags().StringVar(&autoSort, "sort", "new", "Sort method for candidate posts")
	autoCommentCmd.Flags().IntVar(&autoMinScore, "min-score", 0, "Minimum post score")
	autoCommentCmd.MarkFlagRequired("subreddit")

	// Search flags
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Search query (required)")
	searchCmd.Flags().StringVarP(&searchSubreddit, "subreddit", "s", "", "Restrict the search to one subreddit")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 50, "Maximum results")
	searchCmd.MarkFlagRequired("query")

	// Monitor flags
	monitorCmd.Flags().StringVarP(&monitorSubreddit, "subreddit", "s", "", "Subreddit to monitor (required)")
	monitorCmd.Flags().StringSliceVarP(&monitorKeywords, "keywords", "k", nil, "Keywords to watch for (required)")
	monitorCmd.Flags().StringVar(&monitorAction, "action", "log", "Action on match: log, comment, both")
	monitorCmd.Flags().DurationVarP(&monitorDuration, "duration", "d", time.Hour, "How long to monitor")
	monitorCmd.Flags().BoolVar(&monitorServe, "serve", false, "Expose the status API while monitoring")
	monitorCmd.MarkFlagRequired("subreddit")
	monitorCmd.MarkFlagRequired("keywords")

	// Comment flags
	commentCmd.Flags().StringVarP(&commentText, "text", "t", "", "Comment text")
	commentCmd.Flags().BoolVar(&commentAI, "ai", false, "Draft the comment with the text model")
	commentCmd.Flags().BoolVar(&commentNoValidate, "no-validate", false, "Skip AI validation before posting")

	// Thread flags
	threadCmd.Flags().IntVarP(&threadLimit, "limit", "n", 20, "Maximum comments to fetch")

	// Schedule flags
	scheduleCmd.Flags().StringVarP(&scheduleSubreddit, "subreddit", "s", "", "Subreddit to comment in (required)")
	scheduleCmd.Flags().DurationVarP(&scheduleInterval, "interval", "i", 6*time.Hour, "Interval between batches")
	scheduleCmd.Flags().IntVarP(&scheduleMax, "max", "m", 5, "Maximum comments per batch")
	scheduleCmd.Flags().IntVar(&scheduleMinScore, "min-score", 0, "Minimum post score")
	scheduleCmd.Flags().StringVar(&scheduleSort, "sort", "new", "Sort method for candidate posts")
	scheduleCmd.Flags().BoolVar(&scheduleServe, "serve", false, "Expose the status API while running")
	scheduleCmd.MarkFlagRequired("subreddit")

	// Stats flags
	statsCmd.Flags().StringVar(&statsAddr, "addr", "http://localhost:8080", "Address of a running status API")

	// Add commands to root
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(autoCommentCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(threadCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired collaborators for one session.
type app struct {
	bot     *bot.Bot
	metrics *bot.SessionMetrics
	store   *snapshot.Store

	oracle  *gemini.Client
	drafter *gemini.Client
	analyst *gemini.Client
}

// newApp wires the full pipeline and authenticates with Reddit.
func newApp(ctx context.Context) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gateway, err := reddit.NewClient(cfg.Reddit, logger)
	if err != nil {
		return nil, err
	}
	if _, err := gateway.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	// One Gemini client per role so each carries its own system
	// instruction. They share a single rate limit bucket.
	oracle, err := gemini.NewClient(gemini.Config{
		APIKey:            cfg.Gemini.APIKey,
		ModelName:         cfg.Gemini.ModelName,
		MaxRetries:        cfg.Gemini.MaxRetries,
		RetryDelay:        cfg.Gemini.RetryDelay(),
		SystemInstruction: validator.Instructions,
	}, logger)
	if err != nil {
		return nil, err
	}

	drafter, err := gemini.NewClient(gemini.Config{
		APIKey:            cfg.Gemini.APIKey,
		ModelName:         cfg.Gemini.ModelName,
		MaxRetries:        cfg.Gemini.MaxRetries,
		RetryDelay:        cfg.Gemini.RetryDelay(),
		SystemInstruction: synthesizer.Instructions,
	}, logger)
	if err != nil {
		oracle.Close()
		return nil, err
	}

	analyst, err := gemini.NewClient(gemini.Config{
		APIKey:     cfg.Gemini.APIKey,
		ModelName:  cfg.Gemini.ModelName,
		MaxRetries: cfg.Gemini.MaxRetries,
		RetryDelay: cfg.Gemini.RetryDelay(),
	}, logger)
	if err != nil {
		oracle.Close()
		drafter.Close()
		return nil, err
	}

	limiter := gemini.NewRateLimiter(cfg.Gemini.RequestsPerMinute)

	v := validator.New(gemini.NewRateLimited(oracle, limiter, logger), cfg.Bot, logger)
	s := synthesizer.New(gemini.NewRateLimited(drafter, limiter, logger), logger)

	var notifier bot.Notifier
	tg, err := telegram_bot.NewNotifier(cfg.Telegram, logger)
	if err != nil {
		logger.Warn("Failed to initialize Telegram notifier, continuing without it", zap.Error(err))
	} else if tg != nil {
		notifier = tg
	}

	metrics := bot.NewSessionMetrics()
	store := snapshot.NewStore(cfg.Snapshot.Dir, logger)

	b := bot.New(gateway, v, s, gemini.NewRateLimited(analyst, limiter, logger), notifier, metrics, cfg, logger)

	modelInfo := oracle.GetModelInfo()
	modelName := "unknown"
	if m, ok := modelInfo["model"].(string); ok {
		modelName = m
	}
	logger.Info("Engagement pipeline ready",
		zap.String("model", modelName),
		zap.Int("requests_per_minute", cfg.Gemini.RequestsPerMinute))

	return &app{
		bot:     b,
		metrics: metrics,
		store:   store,
		oracle:  oracle,
		drafter: drafter,
		analyst: analyst,
	}, nil
}

// Close releases the Gemini connections.
func (a *app) Close() {
	a.oracle.Close()
	a.drafter.Close()
	a.analyst.Close()
}
