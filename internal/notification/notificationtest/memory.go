// Package notificationtest provides in-memory notification fakes for tests.
package notificationtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"SKCKPortal/internal/notification"
	"SKCKPortal/pkg/apperror"
)

// MemoryStore implements notification.Store.
type MemoryStore struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]notification.Notification
	fail      map[string]error
	markReads int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: map[primitive.ObjectID]notification.Notification{},
		fail:  map[string]error{},
	}
}

// FailOn makes op ("Insert", "ListUnread", ...) fail with err; nil clears it.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

func notFound() error {
	return apperror.NotFound("Notifikasi tidak ditemukan")
}

func (m *MemoryStore) Insert(_ context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Insert"]; err != nil {
		return err
	}
	if _, ok := m.items[n.ID]; ok {
		return apperror.Conflict("Notifikasi sudah ada")
	}
	m.items[n.ID] = *n
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound()
	}
	n, ok := m.items[oid]
	if !ok {
		return nil, notFound()
	}
	return &n, nil
}

func (m *MemoryStore) ListUnread(_ context.Context, userID string) ([]notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["ListUnread"]; err != nil {
		return nil, err
	}
	out := []notification.Notification{}
	for _, n := range m.items {
		if n.UserID == userID && !n.Read {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) MarkRead(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["MarkRead"]; err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound()
	}
	n, ok := m.items[oid]
	if !ok {
		return notFound()
	}
	m.markReads++
	if n.Read {
		return nil
	}
	n.Read = true
	n.ReadAt = &at
	m.items[oid] = n
	return nil
}

// MarkReadCalls counts MarkRead invocations, including no-ops.
func (m *MemoryStore) MarkReadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markReads
}

// All returns every stored notification for userID, read or not.
func (m *MemoryStore) All(userID string) []notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notification.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Mailer records sent e-mails.
type Mailer struct {
	mu   sync.Mutex
	Sent []Mail
	Err  error
}

type Mail struct {
	To, Subject, Body string
}

func (m *Mailer) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, Mail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *Mailer) Mails() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.Sent...)
}

// Recipients maps user ids to addresses.
type Recipients map[string]string

func (r Recipients) EmailOf(_ context.Context, userID string) (string, error) {
	addr, ok := r[userID]
	if !ok {
		return "", apperror.NotFound("Pengguna tidak ditemukan")
	}
	return addr, nil
}
