package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/fixdesk-api/internal/application/service"
)

const closeLockTTL = 2 * time.Hour

// DailyCloser runs the end-of-day sweep.
type DailyCloser interface {
	AutoDailyClose(ctx context.Context) (*service.AutoCloseResult, error)
}

// SchedulerConfig holds the daily close schedule.
type SchedulerConfig struct {
	At   string // HH:MM in Zone
	Zone *time.Location
}

// Scheduler fires the daily close once per business day. With Redis configured
// a SETNX lock keeps other replicas from sweeping the same day.
type Scheduler struct {
	closer DailyCloser
	rdb    *redis.Client
	hour   int
	minute int
	zone   *time.Location
	now    func() time.Time
}

func NewScheduler(closer DailyCloser, rdb *redis.Client, cfg SchedulerConfig) (*Scheduler, error) {
	hour, minute, err := ParseClock(cfg.At)
	if err != nil {
		return nil, err
	}
	zone := cfg.Zone
	if zone == nil {
		zone = time.UTC
	}
	return &Scheduler{closer: closer, rdb: rdb, hour: hour, minute: minute, zone: zone, now: time.Now}, nil
}

// ParseClock parses an HH:MM wall clock time.
func ParseClock(at string) (int, int, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid daily close time %q: want HH:MM", at)
	}
	return t.Hour(), t.Minute(), nil
}

// Start runs the schedule loop in a goroutine until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		log.Info().Str("at", fmt.Sprintf("%02d:%02d", s.hour, s.minute)).Str("zone", s.zone.String()).Msg("daily_close: scheduler started")
		for {
			next := s.nextRun(s.now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Info().Msg("daily_close: scheduler shutting down")
				return
			case <-timer.C:
				s.RunOnce(ctx, next)
			}
		}
	}()
}

// nextRun returns the first scheduled instant strictly after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	local := now.In(s.zone)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.zone)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.zone)
	}
	return next
}

// RunOnce performs the sweep for the business day of at, unless another
// replica already holds that day's lock.
func (s *Scheduler) RunOnce(ctx context.Context, at time.Time) {
	day := at.In(s.zone).Format("2006-01-02")
	if s.rdb != nil {
		acquired, err := s.rdb.SetNX(ctx, "lock:daily-close:"+day, "1", closeLockTTL).Result()
		if err != nil {
			log.Error().Err(err).Str("day", day).Msg("daily_close: failed to acquire lock")
			return
		}
		if !acquired {
			log.Info().Str("day", day).Msg("daily_close: another instance holds the lock")
			return
		}
	}

	result, err := s.closer.AutoDailyClose(ctx)
	if err != nil {
		log.Error().Err(err).Str("day", day).Msg("daily_close: sweep failed")
		return
	}
	log.Info().
		Str("day", day).
		Int("closed", len(result.Closed)).
		Int("skipped", result.Skipped).
		Int("failed", len(result.Failed)).
		Msg("daily_close: sweep finished")
}
