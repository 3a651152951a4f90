package worker

// reportes_cron.go
// Background goroutine that closes reports from past business days and opens
// today's report for every location. Runs once at start and then every interval.
// Replicas share a Redis lock so only one of them works per tick.

import (
	"context"
	"errors"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/infra"

	"github.com/rs/zerolog/log"
)

const lockHousekeeping = "lock:reportes:housekeeping"

// Housekeeper runs one pass of the scheduled report job.
type Housekeeper interface {
	Housekeeping(ctx context.Context, now time.Time) (*dto.HousekeepingResult, error)
}

// ReportesCronConfig holds all dependencies for the housekeeping goroutine.
type ReportesCronConfig struct {
	Reportes  Housekeeper
	Locker    *infra.Locker // nil runs without cross-replica locking
	Intervalo time.Duration
}

// StartReportesCron launches the housekeeping loop. It respects the context for
// graceful shutdown.
func StartReportesCron(ctx context.Context, cfg ReportesCronConfig) {
	if cfg.Intervalo <= 0 {
		cfg.Intervalo = time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Intervalo)
		defer ticker.Stop()

		log.Info().Dur("intervalo", cfg.Intervalo).Msg("reportes_cron: started")
		runHousekeeping(ctx, cfg)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reportes_cron: shutting down")
				return
			case <-ticker.C:
				runHousekeeping(ctx, cfg)
			}
		}
	}()
}

func runHousekeeping(ctx context.Context, cfg ReportesCronConfig) {
	tarea := func(ctx context.Context) error {
		res, err := cfg.Reportes.Housekeeping(ctx, time.Now())
		if err != nil {
			return err
		}
		log.Info().
			Int("cerrados", res.Cerrados).
			Int("omitidos", res.Omitidos).
			Int("creados", res.Creados).
			Msg("reportes_cron: housekeeping done")
		return nil
	}

	var err error
	if cfg.Locker == nil {
		err = tarea(ctx)
	} else {
		err = cfg.Locker.WithLock(ctx, lockHousekeeping, cfg.Intervalo/2, tarea)
	}
	switch {
	case errors.Is(err, infra.ErrLockHeld):
		log.Debug().Msg("reportes_cron: another replica holds the lock, skipping tick")
	case err != nil:
		log.Error().Err(err).Msg("reportes_cron: housekeeping failed")
	}
}
