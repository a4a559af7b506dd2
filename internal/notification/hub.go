package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"SKCKPortal/pkg/apperror"
)

// UnreadStore is the slice of the store the hub reads and writes.
type UnreadStore interface {
	ListUnread(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
}

const storeTimeout = 5 * time.Second

// ErrHubClosed is returned by Subscribe once the hub has been closed.
var ErrHubClosed = errors.New("notification hub closed")

// Hub pushes the unread set of a user to live subscribers and marks each
// delivered notification read once it has been shown for the dwell time.
type Hub struct {
	store UnreadStore
	dwell time.Duration
	log   *zap.Logger
	now   func() time.Time

	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	closed bool
	done   chan struct{}
}

func NewHub(store UnreadStore, dwell time.Duration, log *zap.Logger) *Hub {
	return &Hub{
		store: store,
		dwell: dwell,
		log:   log.With(zap.String("component", "notification_hub")),
		now:   time.Now,
		subs:  map[string]map[*subscription]struct{}{},
		done:  make(chan struct{}),
	}
}

type subscription struct {
	hub      *Hub
	userID   string
	callback func([]Notification)

	// mu serializes refreshes so callbacks never run concurrently.
	mu        sync.Mutex
	closed    bool
	delivered bool
	lastSig   string
	timers    map[string]*time.Timer
}

// Subscribe registers callback for userID. It is invoked at once with the
// current unread set and again whenever the set changes. callback must not
// call the returned unsubscribe func. Unsubscribing cancels every pending
// auto-read of this subscription.
func (h *Hub) Subscribe(ctx context.Context, userID string, callback func([]Notification)) (func(), error) {
	sub := &subscription{
		hub:      h,
		userID:   userID,
		callback: callback,
		timers:   map[string]*time.Timer{},
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, apperror.UpstreamUnavailable("notification hub", ErrHubClosed)
	}
	if h.subs[userID] == nil {
		h.subs[userID] = map[*subscription]struct{}{}
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	if err := sub.refresh(ctx); err != nil {
		h.remove(sub)
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { h.remove(sub) }) }, nil
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	if set := h.subs[sub.userID]; set != nil {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.userID)
		}
	}
	h.mu.Unlock()
	sub.close()
}

func (h *Hub) snapshot(userID string) []*subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*subscription
	for uid, set := range h.subs {
		if userID != "" && uid != userID {
			continue
		}
		for sub := range set {
			out = append(out, sub)
		}
	}
	return out
}

// Publish re-reads the unread set for every subscriber of userID.
func (h *Hub) Publish(ctx context.Context, userID string) {
	for _, sub := range h.snapshot(userID) {
		if err := sub.refresh(ctx); err != nil {
			h.log.Warn("refresh subscriber", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// RefreshAll re-reads every subscriber. Driven by the poll loop so writes
// from other processes reach live subscribers.
func (h *Hub) RefreshAll(ctx context.Context) {
	for _, sub := range h.snapshot("") {
		if err := sub.refresh(ctx); err != nil {
			h.log.Warn("poll subscriber", zap.String("user_id", sub.userID), zap.Error(err))
		}
	}
}

// Close drops every subscription, stops their timers and closes Done.
// Safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
	h.mu.Unlock()
	for _, sub := range h.snapshot("") {
		h.remove(sub)
	}
}

// Done is closed when the hub shuts down; long-lived streams select on it.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Subscribers reports how many live subscriptions userID has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func signature(ns []Notification) string {
	ids := make([]string, len(ns))
	for i, n := range ns {
		ids[i] = n.ID.Hex()
	}
	return strings.Join(ids, ",")
}

func (s *subscription) refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	unread, err := s.hub.store.ListUnread(ctx, s.userID)
	if err != nil {
		return err
	}

	sig := signature(unread)
	changed := !s.delivered || sig != s.lastSig
	s.delivered = true
	s.lastSig = sig

	// Reconciled on every refresh so an id whose auto-read failed is
	// scheduled again.
	current := make(map[string]bool, len(unread))
	for _, n := range unread {
		id := n.ID.Hex()
		current[id] = true
		if _, scheduled := s.timers[id]; scheduled {
			continue
		}
		s.timers[id] = time.AfterFunc(s.hub.dwell, func() { s.expire(id) })
	}
	for id, t := range s.timers {
		if !current[id] {
			t.Stop()
			delete(s.timers, id)
		}
	}

	if changed {
		s.callback(unread)
	}
	return nil
}

// expire marks one delivered notification read after the dwell time.
func (s *subscription) expire(id string) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	h := s.hub
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := h.store.MarkRead(ctx, id, h.now().UTC()); err != nil {
		h.log.Warn("auto mark read", zap.String("notification_id", id), zap.Error(err))
		// the next refresh or poll schedules it again
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		return
	}
	h.Publish(ctx, s.userID)
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
