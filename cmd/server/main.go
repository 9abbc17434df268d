package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civilmastersolution/cms-backend/internal/api"
	"github.com/civilmastersolution/cms-backend/internal/config"
	"github.com/civilmastersolution/cms-backend/internal/knowledge"
	"github.com/civilmastersolution/cms-backend/internal/kv"
	"github.com/civilmastersolution/cms-backend/internal/logging"
	"github.com/civilmastersolution/cms-backend/internal/notify"
	"github.com/civilmastersolution/cms-backend/internal/provider/embedding"
	"github.com/civilmastersolution/cms-backend/internal/provider/gemini"
	"github.com/civilmastersolution/cms-backend/internal/service/budget"
	"github.com/civilmastersolution/cms-backend/internal/service/chat"
	"github.com/civilmastersolution/cms-backend/internal/service/generator"
	"github.com/civilmastersolution/cms-backend/internal/service/ratelimit"
	"github.com/civilmastersolution/cms-backend/internal/service/respcache"
	"github.com/civilmastersolution/cms-backend/internal/service/session"
	"github.com/civilmastersolution/cms-backend/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize logging
	logger := logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("starting CMS backend",
		slog.String("version", "0.1.0"),
		slog.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := storage.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize content stores
	stores := api.Stores{
		Partnerships: storage.NewPartnershipStore(db),
		Customers:    storage.NewCustomerStore(db),
		Products:     storage.NewProductStore(db),
		Projects:     storage.NewProjectStore(db),
		News:         storage.NewNewsStore(db),
		Articles:     storage.NewArticleStore(db),
		Leads:        storage.NewLeadStore(db),
		Admins:       storage.NewAdminStore(db),
	}

	// Initialize the key-value store backing sessions, rate windows, the
	// response cache, and budget counters
	kvStore, err := openKV(ctx, cfg)
	if err != nil {
		logger.Error("failed to open kv store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer kvStore.Close()

	logger.Info("kv store ready", slog.String("driver", cfg.Store.Driver))

	// Email sender for budget alerts and lead auto-replies
	mailer := notify.NewEmailSender(
		cfg.SMTP.Host, cfg.SMTP.Port,
		cfg.SMTP.Username, cfg.SMTP.Password,
		cfg.SMTP.From, cfg.Chatbot.AlertEmail,
		notify.WithLogger(logger))
	if cfg.SMTP.Host == "" {
		logger.Warn("smtp not configured, emails will be dropped")
	}

	// Chat pipeline
	budgetTracker := budget.New(kvStore,
		budget.WithLogger(logger),
		budget.WithMonthlyBudget(cfg.Chatbot.MonthlyBudgetUSD),
		budget.WithPrices(cfg.Chatbot.InputPricePer1K, cfg.Chatbot.OutputPricePer1K),
		budget.WithAlertSender(mailer))

	matcherOpts := []knowledge.MatcherOption{
		knowledge.WithLogger(logger),
		knowledge.WithThreshold(cfg.Chatbot.SimilarityThreshold),
	}
	if cfg.Embedding.APIKey != "" {
		embedder := embedding.NewClient(cfg.Embedding.APIKey, cfg.Embedding.BaseURL,
			embedding.WithModel(cfg.Embedding.Model))
		matcherOpts = append(matcherOpts, knowledge.WithEmbedder(embedder))
		logger.Info("semantic matching enabled", slog.String("model", cfg.Embedding.Model))
	} else {
		logger.Info("semantic matching disabled, exact match only")
	}

	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, gemini.WithModel(cfg.Gemini.Model))
	gen := generator.New(geminiClient,
		generator.WithLogger(logger),
		generator.WithMaxConcurrent(cfg.Gemini.MaxConcurrent),
		generator.WithCallTimeout(cfg.Gemini.CallTimeout))

	chatSvc := chat.New(
		ratelimit.New(kvStore, "ip", ratelimit.WithLogger(logger)),
		session.NewManager(kvStore, session.WithLogger(logger)),
		respcache.New(kvStore, respcache.WithTTL(cfg.Chatbot.CacheTTL)),
		budgetTracker,
		knowledge.NewFileSource(cfg.Chatbot.KnowledgeBasePath),
		knowledge.NewMatcher(matcherOpts...),
		gen,
		chat.WithLogger(logger),
		chat.WithIPRateLimit(cfg.Chatbot.IPRateLimit),
		chat.WithSessionRateLimit(cfg.Chatbot.SessionRateLimit))

	// Initialize API server (not ready yet)
	server := api.New(chatSvc, stores,
		api.WithLogger(logger),
		api.WithHost(cfg.Server.Host),
		api.WithPort(cfg.Server.Port),
		api.WithLeadNotifier(mailer))

	server.SetReady(true)

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		// Mark server as not ready to stop accepting new requests
		server.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
	}()

	// Start server
	if err := server.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func openKV(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.Store.Driver {
	case "redis":
		return kv.OpenRedis(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)
	case "memory", "":
		return kv.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", kv.ErrUnknownDriver, cfg.Store.Driver)
	}
}
