package services

import (
	"sync"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/metrics"
	"github.com/AnshRaj112/wellnest-backend/internal/models"
)

const subscriberBuffer = 16

// ReminderEvent is pushed to in-app clients when a reminder fires.
type ReminderEvent struct {
	Type       string    `json:"type"`
	ReminderID string    `json:"reminderId"`
	Medicine   string    `json:"medicine"`
	Dosage     string    `json:"dosage,omitempty"`
	Time       string    `json:"time"`
	Message    string    `json:"message"`
	FiredAt    time.Time `json:"firedAt"`
}

func NewReminderEvent(r models.Reminder, firedAt time.Time) ReminderEvent {
	return ReminderEvent{
		Type:       "reminder",
		ReminderID: r.ID.Hex(),
		Medicine:   r.Medicine,
		Dosage:     r.Dosage,
		Time:       r.TimeOfDay,
		Message:    ReminderBody(r),
		FiredAt:    firedAt.UTC(),
	}
}

// Subscription is one connected client. Events arrive on C until Close.
type Subscription struct {
	C     <-chan ReminderEvent
	ch    chan ReminderEvent
	email string
	hub   *ReminderHub
	once  sync.Once
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// ReminderHub fans reminder events out to in-app subscribers keyed by owner email.
type ReminderHub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewReminderHub() *ReminderHub {
	return &ReminderHub{subs: make(map[string]map[*Subscription]struct{})}
}

func (h *ReminderHub) Subscribe(email string) *Subscription {
	ch := make(chan ReminderEvent, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, email: email, hub: h}

	h.mu.Lock()
	if h.subs[email] == nil {
		h.subs[email] = make(map[*Subscription]struct{})
	}
	h.subs[email][sub] = struct{}{}
	h.mu.Unlock()

	metrics.InAppSubscribers.Inc()
	return sub
}

func (h *ReminderHub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.email]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.email)
	}
	close(sub.ch)
	metrics.InAppSubscribers.Dec()
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (h *ReminderHub) Publish(email string, event ReminderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[email] {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions for email.
func (h *ReminderHub) Subscribers(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[email])
}
