package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/persibuloi/kamenic/api/routes"
	"github.com/persibuloi/kamenic/internal/blog"
	"github.com/persibuloi/kamenic/internal/cart"
	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/internal/chatbot"
	"github.com/persibuloi/kamenic/internal/comments"
	"github.com/persibuloi/kamenic/internal/contact"
	"github.com/persibuloi/kamenic/internal/cron"
	"github.com/persibuloi/kamenic/internal/favorites"
	"github.com/persibuloi/kamenic/internal/inquiries"
	"github.com/persibuloi/kamenic/internal/settings"
	"github.com/persibuloi/kamenic/internal/store"
	"github.com/persibuloi/kamenic/pkg/airtable"
	"github.com/persibuloi/kamenic/pkg/config"
	"github.com/persibuloi/kamenic/pkg/instance"
	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/metrics"
	"github.com/persibuloi/kamenic/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.IsDev(),
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics := metrics.NewStoreMetrics(registry)
	chatMetrics := metrics.NewChatbotMetrics(registry)

	// Missing Airtable credentials leave every Airtable-backed store in a configuration
	// error; the rest of the API keeps serving.
	var (
		records catalog.RecordLister
		repo    comments.Repository
		creator inquiries.Creator
	)
	if cfg.Airtable.Configured() {
		client, err := airtable.NewClient(cfg.Airtable.APIToken, cfg.Airtable.BaseID,
			airtable.WithBaseURL(cfg.Airtable.BaseURL),
			airtable.WithTimeout(cfg.Airtable.Timeout),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create airtable client", err)
			os.Exit(1)
		}
		records, repo, creator = client, client, client
	} else {
		logg.Warn(context.Background(), "airtable credentials missing, data stores will report configuration errors")
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Airtable:     records,
		Table:        cfg.Airtable.ProductsTable,
		FallbackCode: cfg.Store.FeaturedFallbackCode,
		Logger:       logg,
		Metrics:      storeMetrics,
	})
	exitOnErr(logg, "catalog service", err)

	blogSvc, err := blog.NewService(blog.ServiceParams{
		Airtable: records,
		Table:    cfg.Airtable.BlogPostsTable,
		Logger:   logg,
		Metrics:  storeMetrics,
	})
	exitOnErr(logg, "blog service", err)

	commentsSvc, err := comments.NewService(comments.ServiceParams{
		Airtable: repo,
		Table:    cfg.Airtable.BlogCommentsTable,
		Logger:   logg,
	})
	exitOnErr(logg, "comments service", err)

	contactSvc, err := contact.NewService(contact.ServiceParams{
		Airtable: records,
		Table:    cfg.Airtable.ContactTable,
		BaseID:   cfg.Airtable.ContactBaseID,
		Logger:   logg,
		Metrics:  storeMetrics,
	})
	exitOnErr(logg, "contact service", err)

	siteSvc, err := settings.NewSiteService(settings.SiteParams{
		Airtable: records,
		Table:    cfg.Airtable.SiteSettingsTable,
		BaseID:   cfg.Airtable.SiteSettingsBaseID,
		Logger:   logg,
		Metrics:  storeMetrics,
	})
	exitOnErr(logg, "site settings service", err)

	storeConfigSvc, err := settings.NewStoreConfigService(settings.StoreConfigParams{
		Airtable: records,
		Table:    cfg.Airtable.StoreConfigTable,
		Cache:    redisClient,
		TTL:      cfg.Store.ConfigTTL,
		Defaults: settings.Defaults{
			FreeShippingThreshold: cfg.Store.FreeShippingThreshold,
			Currency:              cfg.Store.Currency,
			WhatsAppPhone:         cfg.Store.WhatsAppPhone,
		},
		Logger: logg,
	})
	exitOnErr(logg, "store config service", err)

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Storage:  redisClient,
		Products: catalogSvc,
		Shipping: storeConfigSvc,
		TTL:      cfg.Session.LedgerTTL,
		Logger:   logg,
	})
	exitOnErr(logg, "cart service", err)

	favoritesSvc, err := favorites.NewService(favorites.ServiceParams{
		Storage:  redisClient,
		Products: catalogSvc,
		TTL:      cfg.Session.LedgerTTL,
	})
	exitOnErr(logg, "favorites service", err)

	inquiriesSvc, err := inquiries.NewService(inquiries.ServiceParams{
		Airtable:      creator,
		MessagesTable: cfg.Airtable.ContactMessagesTable,
		LeadsTable:    cfg.Airtable.LeadsTable,
		Logger:        logg,
	})
	exitOnErr(logg, "inquiries service", err)

	var sender chatbot.Sender
	if cfg.Chatbot.WebhookURL != "" {
		client, err := chatbot.NewClient(cfg.Chatbot.WebhookURL,
			chatbot.WithSource(cfg.Chatbot.Source),
			chatbot.WithAttempts(cfg.Chatbot.MaxAttempts, cfg.Chatbot.BaseBackoff),
			chatbot.WithAttemptTimeout(cfg.Chatbot.AttemptTimeout),
			chatbot.WithMetrics(chatMetrics),
			chatbot.WithLogger(logg),
		)
		exitOnErr(logg, "chatbot client", err)
		sender = client
	} else {
		logg.Warn(context.Background(), "chatbot webhook not configured, chat answers with the unavailable notice")
	}
	chatSvc, err := chatbot.NewService(chatbot.ServiceParams{
		Sender:     sender,
		Transcript: chatbot.NewTranscript(redisClient, cfg.Chatbot.HistoryLimit, cfg.Chatbot.HistoryTTL),
		Logger:     logg,
	})
	exitOnErr(logg, "chat service", err)

	members := []store.Member{catalogSvc.Store(), blogSvc.Store(), contactSvc.Store(), siteSvc.Store(), storeConfigSvc}
	stores := store.NewGroup(members...)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	instanceID := instance.GetID()
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instanceID,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Redis:          redisClient,
			Stores:         stores,
			Catalog:        catalogSvc,
			Cart:           cartSvc,
			Favorites:      favoritesSvc,
			Blog:           blogSvc,
			Comments:       commentsSvc,
			Contact:        contactSvc,
			Site:           siteSvc,
			StoreConfig:    storeConfigSvc,
			Inquiries:      inquiriesSvc,
			Chat:           chatSvc,
			Registry:       registry,
			HTTPMetrics:    metrics.NewHTTPMetrics(registry),
			ChatbotMetrics: chatMetrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm in the background so a slow Airtable never delays the listener.
	go func() {
		if err := stores.WarmAll(sigCtx); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "stores.warm.partial")
			return
		}
		logg.Info(ctx, "stores.warm.complete")
	}()

	if cfg.Store.RefreshInterval > 0 {
		lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("store-refresh"), instanceID, cfg.Store.RefreshInterval/2)
		exitOnErr(logg, "store refresh lock", err)
		scheduler, err := cron.NewService(cron.ServiceParams{
			Logger:   logg,
			Registry: cron.NewRegistry(cron.RefreshJobs(members...)...),
			Lock:     lock,
			Interval: cfg.Store.RefreshInterval,
		})
		exitOnErr(logg, "store refresh scheduler", err)
		go func() {
			_ = scheduler.Run(sigCtx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func exitOnErr(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
