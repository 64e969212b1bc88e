package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
)

type recordingPublisher struct {
	mu      sync.Mutex
	events  []event.Event
	ctxErrs []error
}

func (p *recordingPublisher) Publish(ctx context.Context, evt event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, evt := range p.events {
		out[i] = evt.Type
	}
	return out
}

type fixture struct {
	mem      *memStore
	pos      *POS
	events   *recordingPublisher
	now      time.Time
	tenantID uuid.UUID
	actor    uuid.UUID
	location entity.Location
	ctx      context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mem:      newMemStore(),
		events:   &recordingPublisher{},
		now:      time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		tenantID: uuid.New(),
		actor:    uuid.New(),
	}
	f.location = f.mem.addLocation(entity.Location{TenantID: f.tenantID, Name: "Main Street"})
	cal := Calendar{Now: func() time.Time { return f.now }, Zone: time.UTC}
	f.pos = NewPOS(f.mem.store(), cal, f.events)
	f.ctx = repository.WithTenant(context.Background(), f.tenantID)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, dec(want).StringFixed(2), got.StringFixed(2), msgAndArgs...)
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, kind, appErr.Kind, appErr.Message)
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	assertKind(t, err, apperror.KindValidation)
	var appErr *apperror.AppError
	errors.As(err, &appErr)
	require.NotEmpty(t, appErr.Errors)
	assert.Equal(t, field, appErr.Errors[0].Field)
}

func (f *fixture) part(qty int, price, cost int64) entity.SparePart {
	return f.mem.addPart(entity.SparePart{
		TenantID:      f.tenantID,
		Name:          "Display assembly",
		SalePrice:     decimal.NewFromInt(price),
		PurchasePrice: decimal.NewFromInt(cost),
		Quantity:      qty,
	})
}

func (f *fixture) goods(qty int, price string) entity.GoodsItem {
	return f.mem.addGoods(entity.GoodsItem{
		TenantID:      f.tenantID,
		Name:          "USB-C cable",
		SalePrice:     dec(price),
		PurchasePrice: dec("50"),
		Quantity:      qty,
	})
}

func (f *fixture) service(price, cost int64) entity.ServiceCatalogEntry {
	return f.mem.addService(entity.ServiceCatalogEntry{
		TenantID: f.tenantID,
		Name:     "Diagnostics",
		Price:    decimal.NewFromInt(price),
		Cost:     decimal.NewFromInt(cost),
	})
}

func (f *fixture) phone(price, cost int64) entity.PhoneListing {
	return f.mem.addPhone(entity.PhoneListing{
		TenantID:      f.tenantID,
		Brand:         "Apple",
		Model:         "iPhone 12",
		SalePrice:     decimal.NewFromInt(price),
		PurchasePrice: decimal.NewFromInt(cost),
	})
}

func (f *fixture) openSession(t *testing.T) *entity.CashRegisterSession {
	t.Helper()
	session, err := f.pos.Sessions.EnsureSession(f.ctx, f.location.ID, f.actor)
	require.NoError(t, err)
	return session
}

func (f *fixture) draft(t *testing.T, sessionID uuid.UUID) *entity.Receipt {
	t.Helper()
	receipt, err := f.pos.Receipts.CreateDraft(f.ctx, sessionID, f.actor)
	require.NoError(t, err)
	return receipt
}

func (f *fixture) add(t *testing.T, receiptID uuid.UUID, ref entity.ItemRef, qty int) *entity.ReceiptItem {
	t.Helper()
	_, item, err := f.pos.Receipts.AddItem(f.ctx, receiptID, LineInput{Ref: ref, Quantity: qty})
	require.NoError(t, err)
	return item
}

func (f *fixture) issue(t *testing.T, receiptID uuid.UUID, method enum.PaymentMethod) *entity.Receipt {
	t.Helper()
	res, err := f.pos.Issuance.Issue(f.ctx, receiptID, f.actor, IssueInput{Payment: PaymentInput{Method: method}})
	require.NoError(t, err)
	return res.Receipt
}

// sale issues a cash receipt of two spare part units at 1000 and one service at 500.
func (f *fixture) sale(t *testing.T) (session *entity.CashRegisterSession, receipt *entity.Receipt, part entity.SparePart, partLine *entity.ReceiptItem) {
	t.Helper()
	part = f.part(5, 1000, 600)
	svc := f.service(500, 0)
	session = f.openSession(t)
	draft := f.draft(t, session.ID)
	partLine = f.add(t, draft.ID, entity.SparePartRef{PartID: part.ID}, 2)
	f.add(t, draft.ID, entity.ServiceRef{ServiceID: svc.ID}, 1)
	receipt = f.issue(t, draft.ID, enum.PaymentMethodCash)
	return session, receipt, part, partLine
}

func TestNewPOSDefaultsToLogPublisher(t *testing.T) {
	pos := NewPOS(newMemStore().store(), Calendar{Zone: time.UTC}, nil)
	assert.IsType(t, LogPublisher{}, pos.Sessions.events)
}

func TestCalendarToday(t *testing.T) {
	zone := time.FixedZone("EAT", 3*60*60)
	cal := Calendar{Now: func() time.Time { return time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC) }, Zone: zone}
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), cal.Today())

	cal.Zone = time.UTC
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), cal.Today())
}

func TestFingerprintStable(t *testing.T) {
	a := fingerprint(map[string]int{"qty": 2})
	assert.Len(t, a, 64)
	assert.Equal(t, a, fingerprint(map[string]int{"qty": 2}))
	assert.NotEqual(t, a, fingerprint(map[string]int{"qty": 3}))
}

func TestTenantRequired(t *testing.T) {
	f := newFixture(t)
	_, err := f.pos.Sessions.EnsureSession(context.Background(), f.location.ID, f.actor)
	assert.ErrorIs(t, err, apperror.ErrTenantRequired)

	_, err = f.pos.Issuance.QuickIssue(context.Background(), f.actor, QuickIssueInput{LocationID: f.location.ID})
	assert.ErrorIs(t, err, apperror.ErrTenantRequired)
}

// concurrently runs call from two goroutines and collects both outcomes.
func concurrently(call func() (*IssueResult, error)) ([2]*IssueResult, [2]error) {
	var results [2]*IssueResult
	var errs [2]error
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = call()
		}(i)
	}
	wg.Wait()
	return results, errs
}

// assertOneReplay checks that both callers got the same receipt and exactly one was a replay.
func assertOneReplay(t *testing.T, results [2]*IssueResult, errs [2]error) *entity.Receipt {
	t.Helper()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, results[0].Receipt.ID, results[1].Receipt.ID)
	assert.Equal(t, results[0].Receipt.Number, results[1].Receipt.Number)
	assert.True(t, results[0].Replayed != results[1].Replayed, "exactly one caller replays")
	return results[0].Receipt
}

func TestEventsOutliveTheRequest(t *testing.T) {
	f := newFixture(t)
	part := f.part(5, 1000, 600)
	session := f.openSession(t)
	draft := f.draft(t, session.ID)
	f.add(t, draft.ID, entity.SparePartRef{PartID: part.ID}, 1)

	// the client is gone by the time the receipt is issued
	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	_, err := f.pos.Issuance.Issue(ctx, draft.ID, f.actor, IssueInput{Payment: PaymentInput{Method: enum.PaymentMethodCash}})
	require.NoError(t, err)

	require.Equal(t, []string{event.ReceiptIssued}, f.events.types())
	assert.NoError(t, f.events.ctxErrs[0])
}
