package application

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/transaction"
)

// memStore は PostgreSQL の条件付き更新と同じ規則で動くインメモリのストア
// トランザクションはストア全体のロックで直列化し、ロールバック時はスナップショットに戻す
type memStore struct {
	mu       sync.Mutex
	events   map[string]event.Event
	bookings map[string]booking.Booking

	snapEvents   map[string]event.Event
	snapBookings map[string]booking.Booking
}

func newMemStore() *memStore {
	return &memStore{
		events:   map[string]event.Event{},
		bookings: map[string]booking.Booking{},
	}
}

type memTx struct {
	s    *memStore
	done bool
}

func (s *memStore) Begin(context.Context) (transaction.Tx, error) {
	s.mu.Lock()
	s.snapEvents = cloneMap(s.events)
	s.snapBookings = cloneMap(s.bookings)
	return &memTx{s: s}, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("トランザクションは終了済みです")
	}
	t.done = true
	t.s.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.s.events = t.s.snapEvents
	t.s.bookings = t.s.snapBookings
	t.s.mu.Unlock()
	return nil
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// putEvent はテスト用にイベントを直接登録する
func (s *memStore) putEvent(e event.Event) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.events[e.ID] = e
	return e.ID
}

func (s *memStore) event(id string) event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

func (s *memStore) eventRepo() *memEventRepo     { return &memEventRepo{s: s} }
func (s *memStore) bookingRepo() *memBookingRepo { return &memBookingRepo{s: s} }

// === event.Repository ===

type memEventRepo struct{ s *memStore }

func (r *memEventRepo) Create(_ context.Context, e *event.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = uuid.NewString()
	r.s.events[e.ID] = *e
	return nil
}

func (r *memEventRepo) GetByID(_ context.Context, id string) (*event.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id)
}

func (r *memEventRepo) get(id string) (*event.Event, error) {
	e, ok := r.s.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	return &e, nil
}

func (r *memEventRepo) List(_ context.Context, f event.ListFilter) ([]*event.Event, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*event.Event
	for _, e := range r.s.events {
		if !f.IncludeInactive && !e.IsActive {
			continue
		}
		if f.Featured && !e.IsFeatured {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	total := len(out)
	if f.Offset >= total {
		return []*event.Event{}, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return out[f.Offset:end], total, nil
}

func (r *memEventRepo) ListIDs(context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]string, 0, len(r.s.events))
	for id := range r.s.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memEventRepo) Update(_ context.Context, e *event.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.events[e.ID]
	if !ok {
		return event.ErrEventNotFound
	}
	if cur.Version != e.Version {
		return event.ErrOptimisticLockConflict
	}
	available := cur.AvailableSeats + (e.TotalSeats - cur.TotalSeats)
	if available < 0 {
		return event.ErrTotalSeatsBelowHeld
	}
	next := *e
	next.AvailableSeats = available
	next.Version = cur.Version + 1
	r.s.events[e.ID] = next
	e.AvailableSeats = next.AvailableSeats
	e.Version = next.Version
	return nil
}

func (r *memEventRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return event.ErrEventNotFound
	}
	for _, b := range r.s.bookings {
		if b.EventID == id {
			return event.ErrEventHasBookings
		}
	}
	delete(r.s.events, id)
	return nil
}

// AdjustSeats は呼び出し元がトランザクション（ストアのロック）を保持している前提
func (r *memEventRepo) AdjustSeats(_ context.Context, _ transaction.Tx, id string, delta, expectedVersion int) (*event.Event, error) {
	e, ok := r.s.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	if expectedVersion != event.AnyVersion && e.Version != expectedVersion {
		return nil, event.ErrOptimisticLockConflict
	}
	next := e.AvailableSeats + delta
	if next < 0 {
		return nil, &event.InsufficientSeatsError{Available: e.AvailableSeats, Requested: -delta}
	}
	if next > e.TotalSeats {
		return nil, event.ErrSeatsOverflow
	}
	e.AvailableSeats = next
	r.s.events[id] = e
	return &e, nil
}

func (r *memEventRepo) GetForUpdate(_ context.Context, _ transaction.Tx, id string) (*event.Event, error) {
	return r.get(id)
}

func (r *memEventRepo) SetAvailableSeats(_ context.Context, _ transaction.Tx, id string, available int) error {
	e, ok := r.s.events[id]
	if !ok {
		return event.ErrEventNotFound
	}
	e.AvailableSeats = available
	r.s.events[id] = e
	return nil
}

// === booking.Repository ===

type memBookingRepo struct{ s *memStore }

func (r *memBookingRepo) Create(_ context.Context, _ transaction.Tx, b *booking.Booking) error {
	for _, existing := range r.s.bookings {
		if existing.TicketCode == b.TicketCode {
			return booking.ErrDuplicateTicketCode
		}
	}
	if _, ok := r.s.events[b.EventID]; !ok {
		return event.ErrEventNotFound
	}
	b.ID = uuid.NewString()
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *memBookingRepo) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id)
}

func (r *memBookingRepo) get(id string) (*booking.Booking, error) {
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return &b, nil
}

func (r *memBookingRepo) GetByIDForUpdate(_ context.Context, _ transaction.Tx, id string) (*booking.Booking, error) {
	return r.get(id)
}

func (r *memBookingRepo) ListByUser(_ context.Context, userID string) ([]*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memBookingRepo) ListAll(_ context.Context, limit, offset int) ([]*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.s.bookings {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*booking.Booking{}, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (r *memBookingRepo) UpdateStatus(_ context.Context, _ transaction.Tx, b *booking.Booking) error {
	cur, ok := r.s.bookings[b.ID]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if cur.Status == booking.StatusCancelled {
		return booking.ErrAlreadyCancelled
	}
	cur.Status = b.Status
	cur.PaymentStatus = b.PaymentStatus
	cur.CancelledAt = b.CancelledAt
	cur.UpdatedAt = b.UpdatedAt
	r.s.bookings[b.ID] = cur
	return nil
}

func (r *memBookingRepo) SumActiveQuantity(_ context.Context, _ transaction.Tx, eventID string) (int, error) {
	held := 0
	for _, b := range r.s.bookings {
		if b.EventID == eventID && b.HoldsSeats() {
			held += b.Quantity
		}
	}
	return held, nil
}

func (r *memBookingRepo) CountByEvent(_ context.Context, eventID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, b := range r.s.bookings {
		if b.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) GetStats(_ context.Context, _ int) (*booking.Stats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := &booking.Stats{MonthlyRevenue: []booking.MonthlyRevenue{}}
	for _, b := range r.s.bookings {
		stats.TotalBookings++
		switch b.Status {
		case booking.StatusConfirmed:
			stats.ConfirmedCount++
		case booking.StatusCancelled:
			stats.CancelledCount++
		}
		if b.PaymentStatus == booking.PaymentCompleted {
			stats.TotalRevenue += b.TotalAmount
		}
	}
	return stats, nil
}

var (
	_ transaction.Manager = (*memStore)(nil)
	_ event.Repository    = (*memEventRepo)(nil)
	_ booking.Repository  = (*memBookingRepo)(nil)
)
