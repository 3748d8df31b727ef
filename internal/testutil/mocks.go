package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	domainErrors "github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
	"github.com/paypulse/walletsync/internal/notifier"
)

// --- Queue Mock ---

// MockQueue is an in-memory implementation of payment.Queue.
type MockQueue struct {
	mu      sync.Mutex
	records map[uuid.UUID]*payment.Record

	AppendFunc             func(ctx context.Context, rec *payment.Record) error
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*payment.Record, error)
	ListPendingFunc        func(ctx context.Context) ([]*payment.Record, error)
	UpdateFunc             func(ctx context.Context, rec *payment.Record) error
	ClaimForSubmissionFunc func(ctx context.Context, id uuid.UUID) (*payment.Record, error)
	RemoveFunc             func(ctx context.Context, id uuid.UUID) error
	PendingCountFunc       func(ctx context.Context) (int, error)
}

func NewMockQueue() *MockQueue {
	return &MockQueue{
		records: make(map[uuid.UUID]*payment.Record),
	}
}

func (m *MockQueue) Append(ctx context.Context, rec *payment.Record) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; ok {
		return domainErrors.ErrDuplicateID
	}
	for _, existing := range m.records {
		if existing.Sender == rec.Sender && existing.Nonce == rec.Nonce {
			return domainErrors.ErrDuplicateNonce
		}
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MockQueue) GetByID(ctx context.Context, id uuid.UUID) (*payment.Record, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domainErrors.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockQueue) ListPending(ctx context.Context) ([]*payment.Record, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*payment.Record, 0, len(m.records))
	for _, rec := range m.records {
		cp := *rec
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockQueue) Update(ctx context.Context, rec *payment.Record) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; !ok {
		return domainErrors.ErrRecordNotFound
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MockQueue) ClaimForSubmission(ctx context.Context, id uuid.UUID) (*payment.Record, error) {
	if m.ClaimForSubmissionFunc != nil {
		return m.ClaimForSubmissionFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domainErrors.ErrRecordNotFound
	}
	if rec.Status != payment.StatusPending && rec.Status != payment.StatusFailed {
		return nil, domainErrors.ErrRecordNotFound
	}
	if err := rec.MarkSubmitting(); err != nil {
		return nil, err
	}
	cp := *rec
	return &cp, nil
}

func (m *MockQueue) Remove(ctx context.Context, id uuid.UUID) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *MockQueue) PendingCount(ctx context.Context) (int, error) {
	if m.PendingCountFunc != nil {
		return m.PendingCountFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

// Has reports whether the record is still in the store.
func (m *MockQueue) Has(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok
}

// --- Submitter Mock ---

// MockSubmitter is a mock of the submit+confirm cycle.
type MockSubmitter struct {
	mu    sync.Mutex
	calls []uuid.UUID

	SubmitFunc func(ctx context.Context, rec *payment.Record) (string, error)
}

func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{}
}

func (m *MockSubmitter) Submit(ctx context.Context, rec *payment.Record) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, rec.ID)
	m.mu.Unlock()
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, rec)
	}
	return "tx-" + rec.ID.String(), nil
}

// Calls returns the record ids submitted so far, in order.
func (m *MockSubmitter) Calls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uuid.UUID, len(m.calls))
	copy(out, m.calls)
	return out
}

// --- Oracle Mock ---

// MockOracle reports a switchable connectivity state.
type MockOracle struct {
	mu     sync.Mutex
	online bool
}

func NewMockOracle(online bool) *MockOracle {
	return &MockOracle{online: online}
}

func (m *MockOracle) Online(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *MockOracle) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = online
}

// --- Notifier Mock ---

// MockNotifier records every event it receives.
type MockNotifier struct {
	mu     sync.Mutex
	events []notifier.Event
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, ev notifier.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a copy of all received events.
func (m *MockNotifier) Events() []notifier.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notifier.Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfKind returns received events matching the kind.
func (m *MockNotifier) EventsOfKind(kind notifier.Kind) []notifier.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notifier.Event
	for _, ev := range m.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
