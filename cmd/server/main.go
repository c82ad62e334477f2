package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/infra"
	"stockroom/internal/repository"
	"stockroom/internal/router"
	"stockroom/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}

	// Redis carries the job queues and the analytics cache. Without it the
	// API still works: audit entries are written inline and nothing is cached.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without job queue")
			rdb = nil
		}
	}

	refs, err := infra.NewReferenceGenerator(cfg.SnowflakeNode)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid SNOWFLAKE_NODE")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	mailCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	var dispatcher *worker.Dispatcher
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)

		// Worker handlers are wired here (composition root) so the pool has
		// access to every infrastructure dependency.
		handlers := worker.Handlers{
			worker.JobAudit: worker.NewAuditWorker(repository.NewAuditRepository(db)),
		}
		if mailer.Configured() {
			handlers[worker.JobPurchaseOrderMail] = worker.NewEmailWorker(
				mailer, mailCB, repository.NewPurchaseOrderRepository(db), cfg.PDFStoragePath, cfg.CompanyName,
			)
			worker.StartDLQReplay(ctx, worker.ReplayConfig{
				RDB:         rdb,
				CB:          mailCB,
				Queue:       worker.QueueEmail,
				MaxAttempts: 5,
			})
		} else {
			log.Warn().Msg("SMTP_HOST not set, vendor notifications disabled")
		}
		worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)
	}

	r := router.New(ctx, cfg, router.Deps{
		DB:          db,
		Redis:       rdb,
		Dispatcher:  dispatcher,
		MailCB:      mailCB,
		MailEnabled: rdb != nil && mailer.Configured(),
		References:  refs,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("env", cfg.Env).Msgf("stockroom listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
