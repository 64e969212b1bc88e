package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
)

// memStore is an in-memory Store. Transactions serialize on one mutex and
// roll back by restoring a snapshot, which is enough to observe atomicity.
type memStore struct {
	mu   sync.Mutex
	data *memData

	// onKeyLookup runs before every idempotency key lookup, outside the store lock.
	onKeyLookup func()
}

type memData struct {
	locations map[uuid.UUID]entity.Location
	sessions  map[uuid.UUID]entity.CashRegisterSession
	receipts  map[uuid.UUID]entity.Receipt
	items     map[uuid.UUID]entity.ReceiptItem
	counters  map[string]int
	reports   map[string]entity.DailyReport
	phones    map[uuid.UUID]entity.PhoneListing
	parts     map[uuid.UUID]entity.SparePart
	goods     map[uuid.UUID]entity.GoodsItem
	services  map[uuid.UUID]entity.ServiceCatalogEntry
	tickets   map[uuid.UUID]entity.ServiceTicket
	audit     []entity.AuditEntry
	seq       int
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		locations: map[uuid.UUID]entity.Location{},
		sessions:  map[uuid.UUID]entity.CashRegisterSession{},
		receipts:  map[uuid.UUID]entity.Receipt{},
		items:     map[uuid.UUID]entity.ReceiptItem{},
		counters:  map[string]int{},
		reports:   map[string]entity.DailyReport{},
		phones:    map[uuid.UUID]entity.PhoneListing{},
		parts:     map[uuid.UUID]entity.SparePart{},
		goods:     map[uuid.UUID]entity.GoodsItem{},
		services:  map[uuid.UUID]entity.ServiceCatalogEntry{},
		tickets:   map[uuid.UUID]entity.ServiceTicket{},
	}}
}

func (d *memData) clone() *memData {
	out := &memData{
		locations: make(map[uuid.UUID]entity.Location, len(d.locations)),
		sessions:  make(map[uuid.UUID]entity.CashRegisterSession, len(d.sessions)),
		receipts:  make(map[uuid.UUID]entity.Receipt, len(d.receipts)),
		items:     make(map[uuid.UUID]entity.ReceiptItem, len(d.items)),
		counters:  make(map[string]int, len(d.counters)),
		reports:   make(map[string]entity.DailyReport, len(d.reports)),
		phones:    make(map[uuid.UUID]entity.PhoneListing, len(d.phones)),
		parts:     make(map[uuid.UUID]entity.SparePart, len(d.parts)),
		goods:     make(map[uuid.UUID]entity.GoodsItem, len(d.goods)),
		services:  make(map[uuid.UUID]entity.ServiceCatalogEntry, len(d.services)),
		tickets:   make(map[uuid.UUID]entity.ServiceTicket, len(d.tickets)),
		audit:     append([]entity.AuditEntry(nil), d.audit...),
		seq:       d.seq,
	}
	for k, v := range d.locations {
		out.locations[k] = v
	}
	for k, v := range d.sessions {
		out.sessions[k] = v
	}
	for k, v := range d.receipts {
		out.receipts[k] = v
	}
	for k, v := range d.items {
		out.items[k] = v
	}
	for k, v := range d.counters {
		out.counters[k] = v
	}
	for k, v := range d.reports {
		out.reports[k] = v
	}
	for k, v := range d.phones {
		out.phones[k] = v
	}
	for k, v := range d.parts {
		out.parts[k] = v
	}
	for k, v := range d.goods {
		out.goods[k] = v
	}
	for k, v := range d.services {
		out.services[k] = v
	}
	for k, v := range d.tickets {
		out.tickets[k] = v
	}
	return out
}

type memTxKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(memTxKey{}).(bool)
	return ok
}

// lock takes the store mutex unless ctx already runs inside a transaction.
func (m *memStore) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.data.clone()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *memStore) store() Store {
	return Store{
		Tx:        m,
		Sessions:  memSessions{m},
		Receipts:  memReceipts{m},
		Reports:   memReports{m},
		Stock:     memStock{m},
		Catalog:   memCatalog{m},
		Locations: memLocations{m},
		Audit:     memAudit{m},
	}
}

func visible(ctx context.Context, tenantID uuid.UUID) bool {
	if repository.SkipsTenantScope(ctx) {
		return true
	}
	id, ok := repository.GetTenantID(ctx)
	return ok && id == tenantID
}

func (m *memStore) tick() time.Time {
	m.data.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.data.seq) * time.Millisecond)
}

// Seeding helpers, used outside transactions.

func (m *memStore) addLocation(l entity.Location) entity.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	m.data.locations[l.ID] = l
	return l
}

func (m *memStore) addPart(p entity.SparePart) entity.SparePart {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.data.parts[p.ID] = p
	return p
}

func (m *memStore) addGoods(g entity.GoodsItem) entity.GoodsItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	m.data.goods[g.ID] = g
	return g
}

func (m *memStore) addPhone(p entity.PhoneListing) entity.PhoneListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.data.phones[p.ID] = p
	return p
}

func (m *memStore) addService(s entity.ServiceCatalogEntry) entity.ServiceCatalogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.data.services[s.ID] = s
	return s
}

func (m *memStore) addTicket(t entity.ServiceTicket) entity.ServiceTicket {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.data.tickets[t.ID] = t
	return t
}

func (m *memStore) addSession(s entity.CashRegisterSession) entity.CashRegisterSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.data.sessions[s.ID] = s
	return s
}

func (m *memStore) partQty(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.parts[id].Quantity
}

func (m *memStore) goodsQty(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.goods[id].Quantity
}

func (m *memStore) phone(id uuid.UUID) entity.PhoneListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.phones[id]
}

func (m *memStore) session(id uuid.UUID) entity.CashRegisterSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.sessions[id]
}

func (m *memStore) receiptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.receipts)
}

func (m *memStore) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.data.audit))
	for i, a := range m.data.audit {
		out[i] = a.Action
	}
	return out
}

// loadReceipt assembles a receipt with its items ordered by position.
func (d *memData) loadReceipt(id uuid.UUID) entity.Receipt {
	r := d.receipts[id]
	r.Items = []entity.ReceiptItem{}
	for _, it := range d.items {
		if it.ReceiptID == id {
			r.Items = append(r.Items, it)
		}
	}
	sort.Slice(r.Items, func(i, j int) bool { return r.Items[i].Position < r.Items[j].Position })
	return r
}

func dayKey(tenantID uuid.UUID, date time.Time) string {
	return tenantID.String() + "/" + date.Format("2006-01-02")
}

type memSessions struct{ m *memStore }

func (s memSessions) CreateIfAbsent(ctx context.Context, session *entity.CashRegisterSession) (bool, error) {
	defer s.m.lock(ctx)()
	for _, existing := range s.m.data.sessions {
		if existing.TenantID == session.TenantID && existing.LocationID == session.LocationID &&
			entity.SameDay(existing.BusinessDate, session.BusinessDate) {
			return false, nil
		}
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = s.m.tick()
	s.m.data.sessions[session.ID] = *session
	return true, nil
}

func (s memSessions) GetByID(ctx context.Context, id uuid.UUID) (*entity.CashRegisterSession, error) {
	defer s.m.lock(ctx)()
	session, ok := s.m.data.sessions[id]
	if !ok || !visible(ctx, session.TenantID) {
		return nil, nil
	}
	return &session, nil
}

func (s memSessions) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.CashRegisterSession, error) {
	return s.GetByID(ctx, id)
}

func (s memSessions) GetByLocationDate(ctx context.Context, locationID uuid.UUID, businessDate time.Time) (*entity.CashRegisterSession, error) {
	defer s.m.lock(ctx)()
	for _, session := range s.m.data.sessions {
		if visible(ctx, session.TenantID) && session.LocationID == locationID && entity.SameDay(session.BusinessDate, businessDate) {
			out := session
			return &out, nil
		}
	}
	return nil, nil
}

func (s memSessions) ListOpenBefore(ctx context.Context, locationID uuid.UUID, businessDate time.Time) ([]entity.CashRegisterSession, error) {
	defer s.m.lock(ctx)()
	var out []entity.CashRegisterSession
	for _, session := range s.m.data.sessions {
		if visible(ctx, session.TenantID) && session.LocationID == locationID && session.IsOpen() && session.BusinessDate.Before(businessDate) {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessDate.Before(out[j].BusinessDate) })
	return out, nil
}

func (s memSessions) ListOpenUpTo(ctx context.Context, businessDate time.Time) ([]entity.CashRegisterSession, error) {
	defer s.m.lock(ctx)()
	var out []entity.CashRegisterSession
	for _, session := range s.m.data.sessions {
		if visible(ctx, session.TenantID) && session.IsOpen() && !session.BusinessDate.After(businessDate) {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessDate.Before(out[j].BusinessDate) })
	return out, nil
}

func (s memSessions) Update(ctx context.Context, session *entity.CashRegisterSession) error {
	defer s.m.lock(ctx)()
	s.m.data.sessions[session.ID] = *session
	return nil
}

type memReceipts struct{ m *memStore }

func (r memReceipts) keyTaken(receipt *entity.Receipt) bool {
	for id, other := range r.m.data.receipts {
		if id == receipt.ID || other.TenantID != receipt.TenantID {
			continue
		}
		if other.Number == receipt.Number {
			return true
		}
		if receipt.IdempotencyKey != nil && other.IdempotencyKey != nil && *other.IdempotencyKey == *receipt.IdempotencyKey {
			return true
		}
	}
	return false
}

func (r memReceipts) Create(ctx context.Context, receipt *entity.Receipt) error {
	defer r.m.lock(ctx)()
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	if r.keyTaken(receipt) {
		return repository.ErrDuplicateKey
	}
	receipt.CreatedAt = r.m.tick()
	header := *receipt
	header.Items = nil
	r.m.data.receipts[receipt.ID] = header
	for i := range receipt.Items {
		it := &receipt.Items[i]
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.ReceiptID = receipt.ID
		r.m.data.items[it.ID] = *it
	}
	return nil
}

func (r memReceipts) get(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	defer r.m.lock(ctx)()
	header, ok := r.m.data.receipts[id]
	if !ok || !visible(ctx, header.TenantID) {
		return nil, nil
	}
	receipt := r.m.data.loadReceipt(id)
	return &receipt, nil
}

func (r memReceipts) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return r.get(ctx, id)
}

func (r memReceipts) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return r.get(ctx, id)
}

func (r memReceipts) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Receipt, error) {
	if r.m.onKeyLookup != nil {
		r.m.onKeyLookup()
	}
	unlock := r.m.lock(ctx)
	var found uuid.UUID
	for id, receipt := range r.m.data.receipts {
		if visible(ctx, receipt.TenantID) && receipt.IdempotencyKey != nil && *receipt.IdempotencyKey == key {
			found = id
		}
	}
	unlock()
	if found == uuid.Nil {
		return nil, nil
	}
	return r.get(ctx, found)
}

func (r memReceipts) GetByItemID(ctx context.Context, itemID uuid.UUID) (*entity.Receipt, error) {
	unlock := r.m.lock(ctx)
	item, ok := r.m.data.items[itemID]
	unlock()
	if !ok {
		return nil, nil
	}
	return r.get(ctx, item.ReceiptID)
}

func (r memReceipts) filter(ctx context.Context, keep func(entity.Receipt) bool) []entity.Receipt {
	var out []entity.Receipt
	for id, header := range r.m.data.receipts {
		if visible(ctx, header.TenantID) && keep(header) {
			out = append(out, r.m.data.loadReceipt(id))
		}
	}
	return out
}

func (r memReceipts) List(ctx context.Context, params *repository.ReceiptFilterParams) ([]entity.Receipt, int64, error) {
	defer r.m.lock(ctx)()
	out := r.filter(ctx, func(rc entity.Receipt) bool {
		if params.SessionID != nil && rc.SessionID != *params.SessionID {
			return false
		}
		if params.LocationID != nil && rc.LocationID != *params.LocationID {
			return false
		}
		if params.Status != "" && rc.Status.String() != params.Status {
			return false
		}
		if params.Type != "" && rc.Type.String() != params.Type {
			return false
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r memReceipts) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]entity.Receipt, error) {
	defer r.m.lock(ctx)()
	out := r.filter(ctx, func(rc entity.Receipt) bool { return rc.SessionID == sessionID })
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r memReceipts) ListRefunds(ctx context.Context, originalID uuid.UUID) ([]entity.Receipt, error) {
	defer r.m.lock(ctx)()
	out := r.filter(ctx, func(rc entity.Receipt) bool {
		return rc.Type == enum.ReceiptTypeRefund && rc.OriginalReceiptID != nil && *rc.OriginalReceiptID == originalID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memReceipts) Update(ctx context.Context, receipt *entity.Receipt) error {
	defer r.m.lock(ctx)()
	if r.keyTaken(receipt) {
		return repository.ErrDuplicateKey
	}
	header := *receipt
	header.Items = nil
	r.m.data.receipts[receipt.ID] = header
	return nil
}

func (r memReceipts) AddItem(ctx context.Context, item *entity.ReceiptItem) error {
	defer r.m.lock(ctx)()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.m.data.items[item.ID] = *item
	return nil
}

func (r memReceipts) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	defer r.m.lock(ctx)()
	delete(r.m.data.items, itemID)
	return nil
}

func (r memReceipts) NextSequence(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) (int, error) {
	defer r.m.lock(ctx)()
	key := dayKey(tenantID, businessDate)
	r.m.data.counters[key]++
	return r.m.data.counters[key], nil
}

type memReports struct{ m *memStore }

func (r memReports) Upsert(ctx context.Context, report *entity.DailyReport) error {
	defer r.m.lock(ctx)()
	key := report.LocationID.String() + "/" + dayKey(report.TenantID, report.BusinessDate)
	if existing, ok := r.m.data.reports[key]; ok {
		report.ID = existing.ID
	} else if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	r.m.data.reports[key] = *report
	return nil
}

func (r memReports) GetBySession(ctx context.Context, sessionID uuid.UUID) (*entity.DailyReport, error) {
	defer r.m.lock(ctx)()
	for _, report := range r.m.data.reports {
		if report.SessionID == sessionID && visible(ctx, report.TenantID) {
			out := report
			return &out, nil
		}
	}
	return nil, nil
}

type memStock struct{ m *memStore }

func (s memStock) TryDecrement(ctx context.Context, ref entity.StockRef, qty int) (bool, error) {
	defer s.m.lock(ctx)()
	switch ref.Kind {
	case enum.ItemKindSparePart:
		part, ok := s.m.data.parts[ref.ID]
		if !ok || !visible(ctx, part.TenantID) || part.Quantity < qty {
			return false, nil
		}
		part.Quantity -= qty
		s.m.data.parts[ref.ID] = part
		return true, nil
	case enum.ItemKindGoods:
		goods, ok := s.m.data.goods[ref.ID]
		if !ok || !visible(ctx, goods.TenantID) || goods.Quantity < qty {
			return false, nil
		}
		goods.Quantity -= qty
		s.m.data.goods[ref.ID] = goods
		return true, nil
	}
	return false, nil
}

func (s memStock) Increment(ctx context.Context, ref entity.StockRef, qty int) error {
	defer s.m.lock(ctx)()
	switch ref.Kind {
	case enum.ItemKindSparePart:
		if part, ok := s.m.data.parts[ref.ID]; ok {
			part.Quantity += qty
			s.m.data.parts[ref.ID] = part
		}
	case enum.ItemKindGoods:
		if goods, ok := s.m.data.goods[ref.ID]; ok {
			goods.Quantity += qty
			s.m.data.goods[ref.ID] = goods
		}
	}
	return nil
}

func (s memStock) Available(ctx context.Context, ref entity.StockRef) (int, bool, error) {
	defer s.m.lock(ctx)()
	switch ref.Kind {
	case enum.ItemKindSparePart:
		part, ok := s.m.data.parts[ref.ID]
		if ok && visible(ctx, part.TenantID) {
			return part.Quantity, true, nil
		}
	case enum.ItemKindGoods:
		goods, ok := s.m.data.goods[ref.ID]
		if ok && visible(ctx, goods.TenantID) {
			return goods.Quantity, true, nil
		}
	}
	return 0, false, nil
}

type memCatalog struct{ m *memStore }

func (c memCatalog) GetPhone(ctx context.Context, id uuid.UUID) (*entity.PhoneListing, error) {
	defer c.m.lock(ctx)()
	p, ok := c.m.data.phones[id]
	if !ok || !visible(ctx, p.TenantID) {
		return nil, nil
	}
	return &p, nil
}

func (c memCatalog) GetSparePart(ctx context.Context, id uuid.UUID) (*entity.SparePart, error) {
	defer c.m.lock(ctx)()
	p, ok := c.m.data.parts[id]
	if !ok || !visible(ctx, p.TenantID) {
		return nil, nil
	}
	return &p, nil
}

func (c memCatalog) GetGoods(ctx context.Context, id uuid.UUID) (*entity.GoodsItem, error) {
	defer c.m.lock(ctx)()
	g, ok := c.m.data.goods[id]
	if !ok || !visible(ctx, g.TenantID) {
		return nil, nil
	}
	return &g, nil
}

func (c memCatalog) GetService(ctx context.Context, id uuid.UUID) (*entity.ServiceCatalogEntry, error) {
	defer c.m.lock(ctx)()
	s, ok := c.m.data.services[id]
	if !ok || !visible(ctx, s.TenantID) {
		return nil, nil
	}
	return &s, nil
}

func (c memCatalog) GetTicket(ctx context.Context, id uuid.UUID) (*entity.ServiceTicket, error) {
	defer c.m.lock(ctx)()
	t, ok := c.m.data.tickets[id]
	if !ok || !visible(ctx, t.TenantID) {
		return nil, nil
	}
	return &t, nil
}

func (c memCatalog) MarkPhoneSold(ctx context.Context, id uuid.UUID) (bool, error) {
	defer c.m.lock(ctx)()
	p, ok := c.m.data.phones[id]
	if !ok || !visible(ctx, p.TenantID) || p.IsSold {
		return false, nil
	}
	p.IsSold = true
	c.m.data.phones[id] = p
	return true, nil
}

func (c memCatalog) MarkPhoneUnsold(ctx context.Context, id uuid.UUID) error {
	defer c.m.lock(ctx)()
	if p, ok := c.m.data.phones[id]; ok {
		p.IsSold = false
		c.m.data.phones[id] = p
	}
	return nil
}

type memLocations struct{ m *memStore }

func (l memLocations) GetByID(ctx context.Context, id uuid.UUID) (*entity.Location, error) {
	defer l.m.lock(ctx)()
	loc, ok := l.m.data.locations[id]
	if !ok || !visible(ctx, loc.TenantID) {
		return nil, nil
	}
	return &loc, nil
}

type memAudit struct{ m *memStore }

func (a memAudit) Create(ctx context.Context, entry *entity.AuditEntry) error {
	defer a.m.lock(ctx)()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	a.m.data.audit = append(a.m.data.audit, *entry)
	return nil
}

// pairBarrier releases callers two at a time, for the first limit calls.
// Both sides of a race then see the same state before either one commits.
type pairBarrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	arrived int
	limit   int
}

func newPairBarrier(limit int) *pairBarrier {
	b := &pairBarrier{limit: limit}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *pairBarrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.arrived >= b.limit {
		return
	}
	b.arrived++
	target := (b.arrived + 1) / 2 * 2
	b.cond.Broadcast()
	for b.arrived < target {
		b.cond.Wait()
	}
}
