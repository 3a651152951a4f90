package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmapos/internal/config"
	"farmapos/internal/infra"
	"farmapos/internal/router"
	"farmapos/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	// Structured logger, pretty until config says production
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timezone")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	var rdb *redis.Client
	if rdb, err = infra.NewRedis(cfg.RedisURL); err != nil {
		if cfg.IsProduction() {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		log.Warn().Err(err).Msg("redis unavailable: cache, rate limiting and email jobs disabled")
		rdb = nil
	}

	app := router.New(cfg, db, rdb, loc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background jobs are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	cron := worker.ReportesCronConfig{Reportes: app.Reportes, Intervalo: cfg.ReportesIntervalo}
	if rdb != nil {
		cron.Locker = infra.NewLocker(rdb)

		mailer := infra.NewMailer(cfg)
		if mailer.Configurado() {
			handlers := map[string]worker.JobHandler{
				worker.JobReporteEmail: worker.NewEmailWorker(app.Reportes, mailer,
					infra.NewBreaker(infra.MailerBreakerConfig()), cfg.PDFStoragePath),
			}
			worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)
		} else {
			log.Info().Msg("SMTP_HOST not set: closed-report emails are not sent")
		}
	}
	worker.StartReportesCron(ctx, cron)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.Engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("timezone", loc.String()).Msgf("farmapos backend listening on :%d", cfg.Port)
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
