// Package applicationtest provides an in-memory application store for tests.
package applicationtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"SKCKPortal/internal/application"
	"SKCKPortal/pkg/apperror"
)

// MemoryStore implements application.Store with the same precondition and
// ordering rules as the Mongo repository.
type MemoryStore struct {
	mu    sync.Mutex
	apps  map[primitive.ObjectID]application.Application
	fail  map[string]error
	Now   func() time.Time
	Calls map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:  map[primitive.ObjectID]application.Application{},
		fail:  map[string]error{},
		Now:   time.Now,
		Calls: map[string]int{},
	}
}

// FailOn makes the named operation (e.g. "Review") return err until cleared
// with a nil err.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

func (m *MemoryStore) enter(op string) error {
	m.Calls[op]++
	return m.fail[op]
}

// CallCount reports how often op was invoked.
func (m *MemoryStore) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[op]
}

// Put stores app as-is, assigning an id if it has none.
func (m *MemoryStore) Put(app application.Application) application.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	if app.ID.IsZero() {
		app.ID = primitive.NewObjectID()
	}
	m.apps[app.ID] = clone(app)
	return app
}

func clone(app application.Application) application.Application {
	if app.ReviewedAt != nil {
		t := *app.ReviewedAt
		app.ReviewedAt = &t
	}
	if app.Outbox != nil {
		o := *app.Outbox
		if o.DispatchedAt != nil {
			t := *o.DispatchedAt
			o.DispatchedAt = &t
		}
		app.Outbox = &o
	}
	return app
}

func notFound() error {
	return apperror.NotFound("Pengajuan tidak ditemukan")
}

func (m *MemoryStore) Insert(_ context.Context, app *application.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Insert"); err != nil {
		return err
	}
	now := m.Now().UTC()
	app.ID = primitive.NewObjectID()
	app.CreatedAt = now
	app.UpdatedAt = now
	m.apps[app.ID] = clone(*app)
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetByID"); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound()
	}
	app, ok := m.apps[oid]
	if !ok {
		return nil, notFound()
	}
	out := clone(app)
	return &out, nil
}

func (m *MemoryStore) filter(keep func(application.Application) bool) []application.Application {
	out := []application.Application{}
	for _, app := range m.apps {
		if keep(app) {
			out = append(out, clone(app))
		}
	}
	return out
}

func (m *MemoryStore) ListByOwner(_ context.Context, userID string, limit int64) ([]application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListByOwner"); err != nil {
		return nil, err
	}
	out := m.filter(func(a application.Application) bool { return a.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListByStatus(_ context.Context, status application.Status) ([]application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListByStatus"); err != nil {
		return nil, err
	}
	out := m.filter(func(a application.Application) bool { return a.Status == status })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListByStatuses(_ context.Context, statuses []application.Status) ([]application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListByStatuses"); err != nil {
		return nil, err
	}
	want := map[application.Status]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	out := m.filter(func(a application.Application) bool { return want[a.Status] })
	sort.Slice(out, func(i, j int) bool { return reviewedAt(out[i]).After(reviewedAt(out[j])) })
	return out, nil
}

func reviewedAt(a application.Application) time.Time {
	if a.ReviewedAt == nil {
		return time.Time{}
	}
	return *a.ReviewedAt
}

func (m *MemoryStore) Review(_ context.Context, id string, t application.Transition) (*application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Review"); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound()
	}
	app, ok := m.apps[oid]
	if !ok {
		return nil, notFound()
	}
	if app.Status != application.StatusPending {
		return nil, apperror.StaleState("Pengajuan sudah diproses, silakan muat ulang")
	}

	at := t.ReviewedAt
	app.Status = t.Status
	app.ReviewedAt = &at
	app.ReviewedBy = t.ReviewedBy
	app.UpdatedAt = at
	if t.Status == application.StatusRejected {
		app.RejectionReason = t.RejectionReason
	}
	outbox := t.Outbox
	app.Outbox = &outbox
	m.apps[oid] = clone(app)

	out := clone(app)
	return &out, nil
}

func (m *MemoryStore) PendingOutbox(_ context.Context, limit int64) ([]application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("PendingOutbox"); err != nil {
		return nil, err
	}
	out := m.filter(func(a application.Application) bool { return a.Outbox != nil && !a.Outbox.Dispatched })
	sort.Slice(out, func(i, j int) bool { return reviewedAt(out[i]).Before(reviewedAt(out[j])) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkOutboxDispatched(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("MarkOutboxDispatched"); err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound()
	}
	app, ok := m.apps[oid]
	if !ok || app.Outbox == nil {
		return notFound()
	}
	app.Outbox.Dispatched = true
	app.Outbox.DispatchedAt = &at
	m.apps[oid] = clone(app)
	return nil
}

func (m *MemoryStore) CountByStatus(_ context.Context) (map[application.Status]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CountByStatus"); err != nil {
		return nil, err
	}
	counts := map[application.Status]int64{
		application.StatusPending:  0,
		application.StatusApproved: 0,
		application.StatusRejected: 0,
	}
	for _, app := range m.apps {
		counts[app.Status]++
	}
	return counts, nil
}
