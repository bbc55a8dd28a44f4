package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oddsdesk/polypress/internal/cache"
	"github.com/oddsdesk/polypress/internal/config"
	"github.com/oddsdesk/polypress/internal/history"
	"github.com/oddsdesk/polypress/internal/llm"
	"github.com/oddsdesk/polypress/internal/logger"
	"github.com/oddsdesk/polypress/internal/models"
	"github.com/oddsdesk/polypress/internal/newsroom"
	"github.com/oddsdesk/polypress/internal/polymarket"
	"github.com/oddsdesk/polypress/internal/ratelimit"
	"github.com/oddsdesk/polypress/internal/scoring"
	"github.com/oddsdesk/polypress/internal/selector"
	"github.com/oddsdesk/polypress/internal/storage"
	"github.com/oddsdesk/polypress/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	once       = flag.Bool("once", false, "Build one edition and exit")
	refresh    = flag.Bool("refresh", false, "Bypass the edition cache on the first cycle")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	polyClient := polymarket.NewClient(
		cfg.Polymarket.GammaAPIURL,
		cfg.Polymarket.Timeout,
		cfg.Polymarket.MaxRetries,
		cfg.Polymarket.RetryDelayBase,
	)

	llmClient, err := llm.NewClient(llm.Config{
		APIKey:         cfg.Anthropic.APIKey,
		Model:          cfg.Anthropic.Model,
		Temperature:    cfg.Anthropic.Temperature,
		MaxTokens:      cfg.Anthropic.MaxTokens,
		MaxAttempts:    cfg.Anthropic.MaxAttempts,
		RetryDelayBase: cfg.Anthropic.RetryDelayBase,
	})
	if err != nil {
		logger.Fatal("Failed to initialize generation client: %v", err)
	}
	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, time.Hour)
	completer := llm.NewThrottled(llmClient, limiter)

	topK := make(map[models.Category]int, len(cfg.Editorial.TopKPerCategory))
	for cat, k := range cfg.Editorial.TopKPerCategory {
		topK[models.Category(strings.ToUpper(cat))] = k
	}
	picker := selector.New(selector.Config{
		TopKPerCategory: topK,
		MoverCount:      cfg.Editorial.MoverCount,
		SafetyNetCount:  cfg.Editorial.SafetyNetCount,
		SportsCap:       cfg.Editorial.SportsCap,
	})

	room := newsroom.New(completer, newsroom.Config{
		BatchSize:    cfg.Newsroom.BatchSize,
		Stagger:      cfg.Newsroom.Stagger,
		Deadline:     cfg.Newsroom.Deadline,
		FeatureCount: cfg.Newsroom.FeatureCount,
	})

	editionCache := cache.New(store, cfg.Cache.WindowHours)
	recorder := history.New(store, cfg.Storage.HistoryWindow)

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 3, time.Second)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	pipeline := &pipeline{
		polyClient: polyClient,
		picker:     picker,
		room:       room,
		cache:      editionCache,
		recorder:   recorder,
		telegram:   telegramClient,
		cfg:        cfg,
	}

	logger.Info("Starting edition service (window: %v, batch_size: %d, deadline: %v)",
		editionCache.Window(),
		cfg.Newsroom.BatchSize,
		cfg.Newsroom.Deadline,
	)

	consecutiveFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Edition cycle failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	logger.Debug("Running initial edition cycle")
	handleCycleResult(pipeline.run(ctx, *refresh))

	if *once {
		logger.Info("Single edition requested, exiting")
		return
	}

	ticker := time.NewTicker(editionCache.Window())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled edition cycle")
			handleCycleResult(pipeline.run(ctx, false))
			if removed := limiter.Prune(); removed > 0 {
				logger.Debug("Pruned %d idle rate limit buckets", removed)
			}
		}
	}
}

type pipeline struct {
	polyClient *polymarket.Client
	picker     *selector.Selector
	room       *newsroom.Orchestrator
	cache      *cache.EditionCache
	recorder   *history.Recorder
	telegram   *telegram.Client
	cfg        *config.Config
}

// run executes one edition cycle: serve from cache when the current window
// already has an edition, otherwise fetch, score, select, generate, cache,
// and notify. Cache failures degrade to building fresh rather than aborting.
func (p *pipeline) run(ctx context.Context, forceRefresh bool) error {
	startTime := time.Now()
	logger.Info("Starting edition cycle")

	cached, err := p.cache.Get(forceRefresh)
	if err != nil {
		logger.Warn("Cache lookup failed, building fresh: %v", err)
	} else if cached.Hit && !cached.Stale {
		logger.Info("Edition %s already covers this window, nothing to do", cached.Edition.ID)
		return nil
	}

	logger.Debug("Fetching markets from Polymarket API (limit: %d)", p.cfg.Polymarket.Limit)
	markets, err := p.polyClient.FetchMarkets(ctx, p.cfg.Polymarket.Limit)
	if err != nil {
		if cached.Edition != nil {
			logger.Warn("Fetch failed, serving stale edition %s: %v", cached.Edition.ID, err)
			return nil
		}
		return fmt.Errorf("failed to fetch markets: %w", err)
	}
	logger.Info("Fetched %d markets", len(markets))

	engine := scoring.NewEngine(markets)
	engine.Apply(markets)

	candidates := p.picker.Select(markets)
	logger.Info("Selected %d candidate stories", len(candidates))

	edition, err := p.room.BuildEdition(ctx, candidates)
	if err != nil {
		return fmt.Errorf("failed to build edition: %w", err)
	}
	logger.Info("Built edition %s with %d stories", edition.ID, len(edition.Blueprint.Stories))
	for stage, note := range edition.StageNotes {
		logger.Debug("Stage %s: %s", stage, note)
	}

	if err := p.cache.Put(edition); err != nil {
		logger.Warn("Failed to cache edition %s: %v", edition.ID, err)
	}

	p.recorder.Record(edition)

	if p.telegram != nil {
		if err := p.telegram.SendDigest(edition); err != nil {
			logger.Error("Failed to send Telegram digest: %v", err)
		} else {
			logger.Info("Sent Telegram digest for edition %s", edition.ID)
		}
	}

	logger.Info("Edition cycle completed in %v", time.Since(startTime))
	return nil
}
