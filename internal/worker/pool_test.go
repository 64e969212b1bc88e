package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
)

func TestPoolHandle(t *testing.T) {
	p := NewPool(nil, PoolConfig{MaxAttempts: 3})
	failing := errors.New("printer offline")
	calls := 0
	p.Register(event.ReceiptIssued, func(ctx context.Context, evt event.Event) error {
		calls++
		return failing
	})
	p.Register(event.ReportFinalized, func(ctx context.Context, evt event.Event) error {
		return nil
	})

	t.Run("success", func(t *testing.T) {
		job := &Job{Event: event.Event{Type: event.ReportFinalized}}
		result, err := p.handle(context.Background(), job)
		require.NoError(t, err)
		assert.Equal(t, outcomeDone, result)
		assert.Equal(t, 0, job.Attempts)
	})

	t.Run("no handler", func(t *testing.T) {
		result, err := p.handle(context.Background(), &Job{Event: event.Event{Type: event.ReceiptVoided}})
		require.NoError(t, err)
		assert.Equal(t, outcomeIgnored, result)
	})

	t.Run("retries until max attempts", func(t *testing.T) {
		job := &Job{Event: event.Event{Type: event.ReceiptIssued}}
		result, err := p.handle(context.Background(), job)
		assert.ErrorIs(t, err, failing)
		assert.Equal(t, outcomeRetry, result)

		result, _ = p.handle(context.Background(), job)
		assert.Equal(t, outcomeRetry, result)

		result, _ = p.handle(context.Background(), job)
		assert.Equal(t, outcomeDead, result)
		assert.Equal(t, 3, job.Attempts)
		assert.Equal(t, 3, calls)
	})
}

func TestPoolBackoff(t *testing.T) {
	p := NewPool(nil, PoolConfig{BaseBackoff: time.Second})

	assert.Equal(t, time.Second, p.backoff(0))
	assert.Equal(t, time.Second, p.backoff(1))
	assert.Equal(t, 2*time.Second, p.backoff(2))
	assert.Equal(t, 8*time.Second, p.backoff(4))
	assert.Equal(t, 64*time.Second, p.backoff(20))
}

func TestPopErrorDelay(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, popErrorDelay(0))
	assert.Equal(t, 500*time.Millisecond, popErrorDelay(1))
	assert.Equal(t, time.Second, popErrorDelay(2))
	assert.Equal(t, 4*time.Second, popErrorDelay(4))
	assert.Equal(t, 30*time.Second, popErrorDelay(50))
}

type countingHook struct {
	calls atomic.Int32
}

func (h *countingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *countingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.calls.Add(1)
		return next(ctx, cmd)
	}
}

func (h *countingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestWorkerBacksOffWhileRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	hook := &countingHook{}
	rdb.AddHook(hook)

	p := NewPool(rdb, PoolConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	p.wg.Add(1)
	go p.runWorker(ctx, 0)
	p.Wait()

	// one failed read, then the first pause outlasts the context
	assert.LessOrEqual(t, hook.calls.Load(), int32(2))
	assert.GreaterOrEqual(t, hook.calls.Load(), int32(1))
}

func TestNewPoolDefaults(t *testing.T) {
	p := NewPool(nil, PoolConfig{})
	assert.Equal(t, 1, p.cfg.Workers)
	assert.Equal(t, 5, p.cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.cfg.BaseBackoff)
}

type stubPrinter struct {
	enabled bool
	printed []uuid.UUID
}

func (s *stubPrinter) Enabled() bool { return s.enabled }

func (s *stubPrinter) PrintReceipt(ctx context.Context, receiptID uuid.UUID) (*entity.Slip, error) {
	s.printed = append(s.printed, receiptID)
	return &entity.Slip{}, nil
}

func TestPrintReceiptHandler(t *testing.T) {
	id := uuid.New()
	evt := event.Event{Type: event.ReceiptIssued, TenantID: uuid.New(), EntityID: id}

	disabled := &stubPrinter{}
	require.NoError(t, PrintReceiptHandler(disabled)(context.Background(), evt))
	assert.Empty(t, disabled.printed)

	enabled := &stubPrinter{enabled: true}
	require.NoError(t, PrintReceiptHandler(enabled)(context.Background(), evt))
	assert.Equal(t, []uuid.UUID{id}, enabled.printed)
}

type archiverFunc func(ctx context.Context, sessionID uuid.UUID) error

func (f archiverFunc) Archive(ctx context.Context, sessionID uuid.UUID) error { return f(ctx, sessionID) }

func TestArchiveReportHandlerScopesTenant(t *testing.T) {
	tenantID := uuid.New()
	sessionID := uuid.New()
	var gotTenant, gotSession uuid.UUID

	h := ArchiveReportHandler(archiverFunc(func(ctx context.Context, id uuid.UUID) error {
		gotTenant, _ = repository.GetTenantID(ctx)
		gotSession = id
		return nil
	}))

	require.NoError(t, h(context.Background(), event.Event{Type: event.ReportFinalized, TenantID: tenantID, EntityID: sessionID}))
	assert.Equal(t, tenantID, gotTenant)
	assert.Equal(t, sessionID, gotSession)
}
