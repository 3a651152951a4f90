package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQPrefix namespaces the dead-letter list of each queue: dlq:{queue}.
const DLQPrefix = "dlq:"

// maxDLQ bounds each dead-letter list; older entries fall off the tail.
const maxDLQ = 1000

// EntradaDLQ is a job that will not be retried, kept for manual inspection.
type EntradaDLQ struct {
	Cola      string          `json:"queue"`
	Tipo      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Motivo    string          `json:"reason"`
	Intentos  int             `json:"attempts"`
	FallidoEn time.Time       `json:"failed_at"`
}

// SendToDLQ parks job under dlq:{queue}. Errors are logged, the job is dropped.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, motivo string) {
	entrada := EntradaDLQ{
		Cola:      queue,
		Tipo:      job.Type,
		Payload:   job.Payload,
		Motivo:    motivo,
		Intentos:  job.Attempts,
		FallidoEn: time.Now().UTC(),
	}
	data, err := json.Marshal(entrada)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal entry")
		return
	}

	key := DLQPrefix + queue
	_, err = rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, data)
		p.LTrim(ctx, key, 0, maxDLQ-1)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: push")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("type", job.Type).
		Str("reason", motivo).
		Int("attempts", job.Attempts).
		Msg("dlq: job parked")
}

// DLQLength backs the health endpoint.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// DLQEntries returns up to n parked jobs, newest first.
func DLQEntries(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]EntradaDLQ, error) {
	raws, err := rdb.LRange(ctx, DLQPrefix+queue, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]EntradaDLQ, 0, len(raws))
	for _, raw := range raws {
		var e EntradaDLQ
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("dlq: unreadable entry")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
