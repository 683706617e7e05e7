package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"github.com/AnshRaj112/wellnest-backend/internal/metrics"
	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/AnshRaj112/wellnest-backend/pkg/utils"
	"github.com/rs/zerolog"
)

const (
	ReminderSubject = "💊 Medicine Reminder"
	defaultDosage   = "as prescribed"
	timeOfDayLayout = "15:04"

	// maxCatchUpTicks bounds how many missed boundaries Serve replays after a
	// stall; older minutes are dropped with a warning.
	maxCatchUpTicks = 15
)

// Notifier is the fire-and-forget email side of a dispatch. *NotificationSender implements it.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string)
}

// InAppPublisher receives every dispatched reminder for connected clients. *ReminderHub implements it.
type InAppPublisher interface {
	Publish(email string, event ReminderEvent)
}

// SentMarker records that a reminder went out for a given minute. MarkSent returns
// false when the slot was already marked.
type SentMarker interface {
	MarkSent(ctx context.Context, reminderID, slot string) (bool, error)
}

// DispatchResult summarizes one tick.
type DispatchResult struct {
	Now          string `json:"now"`
	Checked      int    `json:"checked"`
	Matched      int    `json:"matched"`
	Notified     int    `json:"notified"`
	Deduplicated int    `json:"deduplicated"`
	Skipped      bool   `json:"skipped"`
}

type DispatcherOption func(*Dispatcher)

func WithInAppPublisher(p InAppPublisher) DispatcherOption {
	return func(d *Dispatcher) { d.inApp = p }
}

// WithSentMarker enables once-per-minute delivery per reminder.
func WithSentMarker(m SentMarker) DispatcherOption {
	return func(d *Dispatcher) { d.marker = m }
}

func WithClock(clock func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.clock = clock }
}

// Dispatcher matches Active reminders against the current minute in a fixed
// named zone and notifies their owners. It runs as a supervised service (Serve)
// and can be triggered manually (CheckNow). Passes never run concurrently.
//
// Repeat rules are not consulted: a "weekly" reminder fires every day its time matches.
type Dispatcher struct {
	store    ReminderStore
	notifier Notifier
	inApp    InAppPublisher
	marker   SentMarker
	location *time.Location
	interval time.Duration
	clock    func() time.Time
	mu       sync.Mutex
	log      zerolog.Logger
}

func NewDispatcher(store ReminderStore, notifier Notifier, location *time.Location, interval time.Duration, opts ...DispatcherOption) *Dispatcher {
	if location == nil {
		location = time.UTC
	}
	if interval <= 0 {
		interval = time.Minute
	}
	d := &Dispatcher{
		store:    store,
		notifier: notifier,
		location: location,
		interval: interval,
		clock:    time.Now,
		log:      logging.With().Str("component", "reminder-dispatcher").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ReminderBody is the email text for a reminder.
func ReminderBody(r models.Reminder) string {
	dosage := r.Dosage
	if dosage == "" {
		dosage = defaultDosage
	}
	return fmt.Sprintf("Hey %s! It’s time to take your medicine: %s (%s).",
		utils.EmailLocalPart(r.OwnerEmail), r.Medicine, dosage)
}

// CheckNow runs one pass at the current clock time. If a pass is already
// running it returns immediately with Skipped set; the running pass covers
// the same minute.
func (d *Dispatcher) CheckNow(ctx context.Context) (DispatchResult, error) {
	if !d.mu.TryLock() {
		metrics.DispatchTicks.WithLabelValues("overlap_skipped").Inc()
		d.log.Warn().Msg("reminder check already running, skipping manual check")
		return DispatchResult{Skipped: true}, nil
	}
	defer d.mu.Unlock()
	return d.tick(ctx, d.clock())
}

// Tick runs one dispatch pass for the minute containing now, waiting for any
// pass already in progress.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) (DispatchResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tick(ctx, now)
}

func (d *Dispatcher) tick(ctx context.Context, now time.Time) (DispatchResult, error) {
	local := now.In(d.location)
	result := DispatchResult{Now: local.Format(timeOfDayLayout)}
	d.log.Debug().Str("now", result.Now).Msg("⏰ Checking reminders...")

	reminders, err := d.store.ListActive(ctx)
	if err != nil {
		metrics.DispatchTicks.WithLabelValues("load_error").Inc()
		d.log.Error().Err(err).Msg("Error checking reminders")
		return result, err
	}
	result.Checked = len(reminders)

	slot := local.Format("2006-01-02 " + timeOfDayLayout)
	for _, r := range reminders {
		if !r.IsActive() || r.TimeOfDay != result.Now {
			continue
		}
		result.Matched++
		metrics.RemindersMatched.Inc()

		if d.marker != nil {
			first, err := d.marker.MarkSent(ctx, r.ID.Hex(), slot)
			if err != nil {
				// fail open: a duplicate email beats a missed dose
				d.log.Warn().Err(err).Str("reminder", r.ID.Hex()).Msg("sent-marker unavailable, sending anyway")
			} else if !first {
				result.Deduplicated++
				metrics.RemindersDeduplicated.Inc()
				continue
			}
		}

		d.notifier.Send(ctx, r.OwnerEmail, ReminderSubject, ReminderBody(r))
		if d.inApp != nil {
			d.inApp.Publish(r.OwnerEmail, NewReminderEvent(r, now))
		}
		result.Notified++
		d.log.Info().Str("email", r.OwnerEmail).Str("medicine", r.Medicine).Msg("Reminder dispatched")
	}

	metrics.DispatchTicks.WithLabelValues("ok").Inc()
	return result, nil
}

// Serve implements suture.Service. A pass runs for every interval boundary of
// the wall clock (every minute at :00 by default) until ctx is cancelled.
// Boundaries that elapse while a pass is still running are replayed in order,
// each with its own boundary time.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.log.Info().Str("timezone", d.location.String()).Dur("interval", d.interval).Msg("✅ Reminder dispatcher started")

	next := d.nextBoundary(d.clock())
	timer := time.NewTimer(next.Sub(d.clock()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("Reminder dispatcher stopped")
			return ctx.Err()
		case <-timer.C:
			next = d.skipStale(next, d.clock())
			// errors are logged inside Tick and must not stop the loop
			_, _ = d.Tick(ctx, next)
			next = next.Add(d.interval)
			// a negative duration fires at once, replaying a missed boundary
			timer.Reset(next.Sub(d.clock()))
		}
	}
}

// skipStale moves next forward when more than maxCatchUpTicks boundaries have
// passed since it (process suspended, clock jump).
func (d *Dispatcher) skipStale(next, now time.Time) time.Time {
	behind := int(now.Sub(next) / d.interval)
	if behind <= maxCatchUpTicks {
		return next
	}
	dropped := behind - maxCatchUpTicks
	d.log.Warn().Int("dropped", dropped).Time("from", next).Msg("reminder dispatcher fell too far behind, dropping oldest minutes")
	metrics.DispatchTicks.WithLabelValues("dropped").Add(float64(dropped))
	return next.Add(time.Duration(dropped) * d.interval)
}

func (d *Dispatcher) nextBoundary(now time.Time) time.Time {
	return now.Truncate(d.interval).Add(d.interval)
}

// String names the service in supervisor logs.
func (d *Dispatcher) String() string {
	return "reminder-dispatcher"
}
