package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memReminderStore is an in-memory ReminderStore.
type memReminderStore struct {
	mu        sync.Mutex
	reminders []models.Reminder
	listErr   error
	// block, when set, is waited on inside ListActive
	block chan struct{}
	// firstDelay stalls the first ListActive call
	firstDelay time.Duration
	calls      int
}

func (s *memReminderStore) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *memReminderStore) Create(_ context.Context, r *models.Reminder) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *r
	rec.ID = primitive.NewObjectID()
	s.reminders = append(s.reminders, rec)
	return &rec, nil
}

func (s *memReminderStore) ListByOwner(_ context.Context, email string) ([]models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Reminder, 0)
	for _, r := range s.reminders {
		if r.OwnerEmail == email {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memReminderStore) ListActive(ctx context.Context) ([]models.Reminder, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if first && s.firstDelay > 0 {
		select {
		case <-time.After(s.firstDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Reminder, 0)
	for _, r := range s.reminders {
		if r.IsActive() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memReminderStore) MarkTaken(_ context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reminders {
		if s.reminders[i].ID == oid {
			s.reminders[i].Status = models.ReminderStatusTaken
		}
	}
	return nil
}

func (s *memReminderStore) Delete(_ context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.reminders[:0]
	for _, r := range s.reminders {
		if r.ID != oid {
			kept = append(kept, r)
		}
	}
	s.reminders = kept
	return nil
}

type sentMessage struct {
	To, Subject, Body string
}

// recordingNotifier captures every Send.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{To: to, Subject: subject, Body: body})
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

// fakeTransport fails for addresses listed in failFor.
type fakeTransport struct {
	mu        sync.Mutex
	failFor   map[string]error
	delivered []Message
	calls     int
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Deliver(_ context.Context, msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if err, ok := t.failFor[msg.To]; ok {
		return err
	}
	t.delivered = append(t.delivered, msg)
	return nil
}

var errTransportDown = errors.New("connection refused")

// memSentMarker mimics SET NX.
type memSentMarker struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (m *memSentMarker) MarkSent(_ context.Context, id, slot string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	key := id + ":" + slot
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]ReminderEvent
}

func (p *recordingPublisher) Publish(email string, e ReminderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]ReminderEvent)
	}
	p.events[email] = append(p.events[email], e)
}

func (p *recordingPublisher) firedAt(email string) []time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]time.Time, 0, len(p.events[email]))
	for _, e := range p.events[email] {
		out = append(out, e.FiredAt)
	}
	return out
}

// memJournalCache is an in-memory generation-versioned JournalCache.
type memJournalCache struct {
	mu            sync.Mutex
	gens          map[string]int64
	lists         map[string][]models.Journal
	invalidateErr error
}

func (c *memJournalCache) key(email string, gen int64) string {
	return fmt.Sprintf("%s:%d", email, gen)
}

func (c *memJournalCache) Get(_ context.Context, email string) ([]models.Journal, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[email]
	v, ok := c.lists[c.key(email, gen)]
	return v, gen, ok
}

func (c *memJournalCache) Set(_ context.Context, email string, gen int64, j []models.Journal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lists == nil {
		c.lists = make(map[string][]models.Journal)
	}
	c.lists[c.key(email, gen)] = j
}

func (c *memJournalCache) Invalidate(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	if c.gens == nil {
		c.gens = make(map[string]int64)
	}
	c.gens[email]++
	return nil
}
