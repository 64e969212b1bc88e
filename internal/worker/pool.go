package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/metrics"
)

const (
	popTimeout      = 5 * time.Second
	popErrorPause   = 500 * time.Millisecond
	popErrorMaxWait = 30 * time.Second
	promoteInterval = time.Second
	promoteBatch    = 100
)

// Handler processes one event. A returned error schedules a retry.
type Handler func(ctx context.Context, evt event.Event) error

type outcome string

const (
	outcomeDone    outcome = "done"
	outcomeRetry   outcome = "retry"
	outcomeDead    outcome = "dead"
	outcomeIgnored outcome = "ignored"
)

// PoolConfig configures the worker pool.
type PoolConfig struct {
	Workers     int
	MaxAttempts int
	BaseBackoff time.Duration
}

// Pool consumes QueueEvents with BRPOP and dispatches jobs to handlers by event type.
type Pool struct {
	rdb      *redis.Client
	cfg      PoolConfig
	handlers map[string]Handler
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client, cfg PoolConfig) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 2 * time.Second
	}
	return &Pool{rdb: rdb, cfg: cfg, handlers: make(map[string]Handler)}
}

// Register binds a handler to an event type. Must be called before Start.
func (p *Pool) Register(eventType string, h Handler) {
	p.handlers[eventType] = h
}

// Start launches the workers and the delayed-job promoter. They stop when ctx is done.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	p.wg.Add(1)
	go p.runPromoter(ctx)
	log.Info().Int("workers", p.cfg.Workers).Msg("worker pool started")
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			result, err := p.rdb.BRPop(ctx, popTimeout, QueueEvents).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				failures++
				wait := popErrorDelay(failures)
				log.Warn().Err(err).Int("worker", id).Int("failures", failures).Dur("retry_in", wait).
					Msg("worker: queue unavailable")
				select {
				case <-ctx.Done():
				case <-time.After(wait):
				}
				continue
			}
			failures = 0
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[1])
		}
	}
}

// popErrorDelay is the pause after consecutive failed queue reads.
func popErrorDelay(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	wait := popErrorPause
	for i := 1; i < failures && wait < popErrorMaxWait; i++ {
		wait *= 2
	}
	if wait > popErrorMaxWait {
		wait = popErrorMaxWait
	}
	return wait
}

func (p *Pool) process(ctx context.Context, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Err(err).Msg("worker: failed to unmarshal job")
		return
	}

	result, err := p.handle(ctx, &job)
	metrics.JobsProcessed.WithLabelValues(job.Event.Type, string(result)).Inc()

	switch result {
	case outcomeRetry:
		delay := p.backoff(job.Attempts)
		log.Warn().Err(err).
			Str("job_id", job.ID).
			Str("event", job.Event.Type).
			Int("attempts", job.Attempts).
			Dur("retry_in", delay).
			Msg("worker: job failed, scheduled retry")
		if err := p.schedule(ctx, job, time.Now().Add(delay)); err != nil {
			log.Error().Err(err).Str("job_id", job.ID).Msg("worker: failed to schedule retry")
		}
	case outcomeDead:
		SendToDLQ(ctx, p.rdb, QueueEvents, job, fmt.Sprintf("max attempts (%d) exceeded: %v", p.cfg.MaxAttempts, err))
	}
}

// handle runs the job's handler and decides what happens to the job next.
func (p *Pool) handle(ctx context.Context, job *Job) (outcome, error) {
	h, ok := p.handlers[job.Event.Type]
	if !ok {
		log.Debug().Str("event", job.Event.Type).Msg("worker: no handler registered")
		return outcomeIgnored, nil
	}

	err := h(ctx, job.Event)
	if err == nil {
		return outcomeDone, nil
	}
	job.Attempts++
	if job.Attempts >= p.cfg.MaxAttempts {
		return outcomeDead, err
	}
	return outcomeRetry, err
}

// backoff doubles the base delay for every attempt already made, capped at 64x.
func (p *Pool) backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	shift := attempts - 1
	if shift > 6 {
		shift = 6
	}
	return p.cfg.BaseBackoff << shift
}

func (p *Pool) schedule(ctx context.Context, job Job, at time.Time) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.rdb.ZAdd(ctx, QueueDelayed, redis.Z{Score: float64(at.Unix()), Member: encoded}).Err()
}

func (p *Pool) runPromoter(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.promote(ctx, time.Now()); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("worker: failed to promote delayed jobs")
			}
		}
	}
}

// promote moves due delayed jobs back onto the main queue. ZREM decides which
// replica owns a job so each one is requeued once.
func (p *Pool) promote(ctx context.Context, now time.Time) error {
	due, err := p.rdb.ZRangeByScore(ctx, QueueDelayed, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return err
	}
	for _, member := range due {
		removed, err := p.rdb.ZRem(ctx, QueueDelayed, member).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := p.rdb.LPush(ctx, QueueEvents, member).Err(); err != nil {
			return err
		}
	}
	return nil
}
