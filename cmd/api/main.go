package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	v1 "github.com/mohdafzal1700/max-chat/cmd/api/router/v1"
	cacheAdapter "github.com/mohdafzal1700/max-chat/internal/infrastructure/cache/adapter"
	cachePort "github.com/mohdafzal1700/max-chat/internal/infrastructure/cache/port"
	"github.com/mohdafzal1700/max-chat/internal/infrastructure/database"
	"github.com/mohdafzal1700/max-chat/internal/infrastructure/identity"
	queueAdapter "github.com/mohdafzal1700/max-chat/internal/infrastructure/queue/adapter"
	qport "github.com/mohdafzal1700/max-chat/internal/infrastructure/queue/port"
	"github.com/mohdafzal1700/max-chat/internal/infrastructure/realtime"
	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/task"
	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/usecase"
	repoAdapter "github.com/mohdafzal1700/max-chat/internal/pkg/chat/persistence/repository/adapter"
	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/presentation/controller"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the engine and manages its lifecycle so every defer (pool close,
// mailbox shutdown) executes before the process exits.
func run() error {
	// 1. Configuration & logger
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: .env file not found or could not be loaded: %v\n", err)
	}
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Durable store (Postgres)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := database.Connect(connectCtx, cfg.DBURL)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// 3. Optional Redis-backed presence cache and offline queue
	var cache cachePort.Cache
	var queueClient qport.Client
	var queueServer qport.Server
	if cfg.RedisURL != "" {
		redisCache, err := cacheAdapter.NewRedisAdapter(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis cache: %w", err)
		}
		defer redisCache.Close()
		cache = redisCache

		client, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("queue client: %w", err)
		}
		defer client.Close()
		queueClient = client

		server, err := queueAdapter.NewAsynqServer(cfg.RedisURL, cfg.QueueConcurrency, log)
		if err != nil {
			return fmt.Errorf("queue server: %w", err)
		}
		task.RegisterOfflineMessageTask(server, nil, log)
		queueServer = server
	} else {
		log.Warn("REDIS_URL not set; presence cache and offline notifications disabled")
	}

	// 4. Core wiring
	repo := repoAdapter.NewPgChatRepository(pool)
	mailbox := realtime.NewMailbox()
	defer mailbox.Close()

	verifier := identity.NewJWTVerifier(cfg.JWTSecret, repo)
	presence := usecase.NewUpdatePresenceUseCase(repo, cache, log)
	router := controller.NewMessageRouter(
		log,
		usecase.NewSendMessageUseCase(repo),
		usecase.NewMarkMessageReadUseCase(repo),
		mailbox,
		queueClient,
	)
	socketCtl := controller.NewChatSocketController(
		log, verifier, mailbox, presence, router,
		cfg.SendBufferSize, cfg.StoreTimeout,
	)

	// 5. HTTP engine
	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	v1.RegisterRoutes(r, socketCtl)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: r,
	}

	errChan := make(chan error, 2)
	go func() {
		log.Info("starting chat server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	if queueServer != nil {
		go func() {
			if err := queueServer.Run(ctx); err != nil {
				errChan <- fmt.Errorf("queue server error: %w", err)
			}
		}()
	}

	// 6. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	log.Info("server stopped cleanly")
	return nil
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
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
