package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/satohidetada/my-flea-app/internal/api"
	"github.com/satohidetada/my-flea-app/internal/api/middleware"
	"github.com/satohidetada/my-flea-app/internal/cache"
	"github.com/satohidetada/my-flea-app/internal/config"
	"github.com/satohidetada/my-flea-app/internal/db"
	"github.com/satohidetada/my-flea-app/internal/logger"
	"github.com/satohidetada/my-flea-app/internal/notify"
	"github.com/satohidetada/my-flea-app/internal/storage"
	"github.com/satohidetada/my-flea-app/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (notification delivery worker), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Initialize Database
	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient, log); err != nil {
			log.WithError(err).Error("Error disconnecting from MongoDB")
		}
	}()

	ctxIdx, cancelIdx := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(ctxIdx, mongoDb, log); err != nil {
		cancelIdx()
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancelIdx()

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient, log); err != nil {
			log.WithError(err).Error("Error disconnecting from Redis")
		}
	}()

	// Delivery sink: inbox documents plus live push, optionally mirrored to a file.
	deliverySink := notify.NewCompositeSink(notify.NewMongoSink(mongoDb), notify.NewRedisSink(redisClient))
	if cfg.LogNotifications != "" {
		fileSink, err := notify.NewFileSink(cfg.LogNotifications)
		if err != nil {
			log.WithError(err).WithField("path", cfg.LogNotifications).Warn("Failed to initialize file notification sink, proceeding without it")
		} else {
			deliverySink.AddSink(fileSink)
			log.WithField("path", cfg.LogNotifications).Info("File notification log enabled")
		}
	}

	if log.IsLevelEnabled(logrus.DebugLevel) {
		deliverySink.AddSink(notify.NewLoggingSink(log))
	}

	// Initialize Task Client
	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	// Services emit either straight to the delivery sink or through the queue.
	var emitSink notify.Sink = deliverySink
	if cfg.NotifyAsync {
		emitSink = tasks.NewQueueSink(taskClient)
		log.Info("NOTIFY_ASYNC enabled: notifications are delivered by the background worker")
	}
	notifier := notify.NewNotifier(emitSink, log)

	var itemCache cache.ItemCache = cache.NoopItemCache{}
	if cfg.ItemCacheTTL > 0 {
		itemCache = cache.NewRedisItemCache(redisClient, cfg.ItemCacheTTL)
	}

	// WaitGroup for managing goroutines
	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)
	done := make(chan struct{})

	// Start Service API (always runs)
	checks := map[string]api.HealthCheck{
		"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(cfg, checks, shutdownChan, log),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithField("port", cfg.ServiceApiPort).Info("Service API listening")
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Service API ListenAndServe error: %v", err)
		}
		log.Info("Service API server stopped")
	}()

	// --- Mode-specific servers ---
	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server

	log.WithField("mode", cfg.RunMode).Info("Starting application")

	apiMode := func() {
		log.Info("Starting main API server...")
		blobStore, err := storage.NewS3BlobStore(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to initialize blob store: %v", err)
		}
		rateLimiter := middleware.NewRateLimiterMiddleware(cfg, log)
		go rateLimiter.Run(done)

		svc := api.NewServices(mongoDb, notifier, itemCache, log)
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: api.SetupRouter(cfg, svc, blobStore, rateLimiter, log),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.WithField("port", cfg.ApiPort).Info("Main API listening")
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Main API ListenAndServe error: %v", err)
			}
			log.Info("Main API server stopped")
		}()
	}

	bgMode := func() {
		log.Info("Starting background worker...")
		processor := tasks.NewTaskProcessor(deliverySink, log)
		srv, mux := tasks.SetupServer(redisClient, processor, log)
		if err := srv.Start(mux); err != nil {
			log.Fatalf("Background task server error: %v", err)
		}
		backgroundTaskSrv = srv
		log.Info("Background task server started")
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode specified in config: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received signal, shutting down gracefully...")
	case <-shutdownChan:
		log.Info("Shutdown requested via Service API, shutting down gracefully...")
	}
	close(done)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	log.Info("Shutting down Service API server...")
	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("Service API server shutdown error")
	}

	if mainApiSrv != nil {
		log.Info("Shutting down Main API server...")
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.WithError(err).Error("Main API server shutdown error")
		}
	}

	if backgroundTaskSrv != nil {
		log.Info("Shutting down Background Task server...")
		backgroundTaskSrv.Shutdown()
	}

	log.Info("Waiting for servers to stop...")
	wg.Wait()

	log.Info("Server gracefully stopped")
}
