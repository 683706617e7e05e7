package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

// at returns the instant that reads hh:mm in Asia/Kolkata on a fixed day.
func at(t *testing.T, hh, mm int) time.Time {
	return time.Date(2025, 3, 14, hh, mm, 0, 0, kolkata(t))
}

func seed(t *testing.T, store *memReminderStore, reminders ...models.Reminder) {
	t.Helper()
	for i := range reminders {
		r := reminders[i]
		ApplyReminderDefaults(&r, time.Now())
		_, err := store.Create(context.Background(), &r)
		require.NoError(t, err)
	}
}

func TestTick_MatchesExactMinuteOnly(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store, models.Reminder{OwnerEmail: "asha@example.com", Medicine: "Sertraline", Dosage: "50mg", TimeOfDay: "09:00"})
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute)

	res, err := d.Tick(context.Background(), at(t, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, "09:00", res.Now)

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "asha@example.com", msgs[0].To)
	assert.Equal(t, ReminderSubject, msgs[0].Subject)
	assert.Equal(t, "Hey asha! It’s time to take your medicine: Sertraline (50mg).", msgs[0].Body)

	res, err = d.Tick(context.Background(), at(t, 9, 1))
	require.NoError(t, err)
	assert.Zero(t, res.Matched)
	assert.Len(t, notifier.messages(), 1)
}

func TestTick_UsesConfiguredZone(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store, models.Reminder{OwnerEmail: "a@example.com", Medicine: "Vitamin D", TimeOfDay: "09:00"})
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute)

	// 03:30 UTC is 09:00 IST
	res, err := d.Tick(context.Background(), time.Date(2025, 3, 14, 3, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "09:00", res.Now)
	assert.Equal(t, 1, res.Matched)

	// the same wall time in UTC is 14:30 IST
	res, err = d.Tick(context.Background(), time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "14:30", res.Now)
	assert.Zero(t, res.Matched)
}

func TestTick_SkipsInactiveReminders(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store,
		models.Reminder{OwnerEmail: "a@example.com", Medicine: "A", TimeOfDay: "08:00", Status: models.ReminderStatusTaken},
		models.Reminder{OwnerEmail: "a@example.com", Medicine: "B", TimeOfDay: "08:00", Status: "Paused"},
		models.Reminder{OwnerEmail: "a@example.com", Medicine: "C", TimeOfDay: "08:00"},
	)
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute)

	res, err := d.Tick(context.Background(), at(t, 8, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	require.Len(t, notifier.messages(), 1)
	assert.Contains(t, notifier.messages()[0].Body, ": C (")
}

func TestTick_DuplicateRemindersBothFire(t *testing.T) {
	store := &memReminderStore{}
	dup := models.Reminder{OwnerEmail: "a@example.com", Medicine: "Iron", TimeOfDay: "21:15"}
	seed(t, store, dup, dup)
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute)

	res, err := d.Tick(context.Background(), at(t, 21, 15))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matched)
	assert.Len(t, notifier.messages(), 2)
}

func TestTick_RepeatRuleIsNotConsulted(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store, models.Reminder{OwnerEmail: "a@example.com", Medicine: "B12", TimeOfDay: "10:00", RepeatRule: "weekly"})
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute)

	for day := 0; day < 3; day++ {
		_, err := d.Tick(context.Background(), at(t, 10, 0).AddDate(0, 0, day))
		require.NoError(t, err)
	}
	assert.Len(t, notifier.messages(), 3)
}

func TestTick_TransportFailureDoesNotBlockOthers(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store,
		models.Reminder{OwnerEmail: "broken@example.com", Medicine: "A", TimeOfDay: "07:30"},
		models.Reminder{OwnerEmail: "ok1@example.com", Medicine: "B", TimeOfDay: "07:30"},
		models.Reminder{OwnerEmail: "ok2@example.com", Medicine: "C", TimeOfDay: "07:30"},
	)
	transport := &fakeTransport{failFor: map[string]error{"broken@example.com": errTransportDown}}
	d := NewDispatcher(store, NewNotificationSender(transport), kolkata(t), time.Minute)

	res, err := d.Tick(context.Background(), at(t, 7, 30))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Matched)
	assert.Equal(t, 3, res.Notified)

	var delivered []string
	for _, m := range transport.delivered {
		delivered = append(delivered, m.To)
	}
	assert.ElementsMatch(t, []string{"ok1@example.com", "ok2@example.com"}, delivered)
}

func TestTick_LoadErrorIsReturnedAndLoopSurvives(t *testing.T) {
	store := &memReminderStore{listErr: errors.New("no reachable servers")}
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute)

	_, err := d.Tick(context.Background(), at(t, 9, 0))
	require.Error(t, err)

	store.listErr = nil
	seed(t, store, models.Reminder{OwnerEmail: "a@example.com", Medicine: "A", TimeOfDay: "09:01"})
	res, err := d.Tick(context.Background(), at(t, 9, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
}

func TestTick_DedupeSendsOncePerMinute(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store, models.Reminder{OwnerEmail: "a@example.com", Medicine: "A", TimeOfDay: "09:00"})
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute, WithSentMarker(&memSentMarker{}))

	first, err := d.Tick(context.Background(), at(t, 9, 0))
	require.NoError(t, err)
	second, err := d.Tick(context.Background(), at(t, 9, 0).Add(30*time.Second))
	require.NoError(t, err)

	assert.Equal(t, 1, first.Notified)
	assert.Equal(t, 0, second.Notified)
	assert.Equal(t, 1, second.Deduplicated)
	assert.Len(t, notifier.messages(), 1)

	// next day is a new slot
	_, err = d.Tick(context.Background(), at(t, 9, 0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, notifier.messages(), 2)
}

func TestTick_WithoutDedupeSameMinuteFiresTwice(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store, models.Reminder{OwnerEmail: "a@example.com", Medicine: "A", TimeOfDay: "09:00"})
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute)

	_, _ = d.Tick(context.Background(), at(t, 9, 0))
	_, _ = d.Tick(context.Background(), at(t, 9, 0).Add(20*time.Second))
	assert.Len(t, notifier.messages(), 2)
}

func TestTick_MarkerErrorFailsOpen(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store, models.Reminder{OwnerEmail: "a@example.com", Medicine: "A", TimeOfDay: "09:00"})
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute,
		WithSentMarker(&memSentMarker{err: errors.New("redis down")}))

	res, err := d.Tick(context.Background(), at(t, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
}

func TestTick_PublishesInAppEvent(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store, models.Reminder{OwnerEmail: "a@example.com", Medicine: "A", TimeOfDay: "09:00"})
	pub := &recordingPublisher{}
	d := NewDispatcher(store, &recordingNotifier{}, kolkata(t), time.Minute, WithInAppPublisher(pub))

	_, err := d.Tick(context.Background(), at(t, 9, 0))
	require.NoError(t, err)
	require.Len(t, pub.events["a@example.com"], 1)
	evt := pub.events["a@example.com"][0]
	assert.Equal(t, "reminder", evt.Type)
	assert.Equal(t, "A", evt.Medicine)
	assert.Equal(t, "09:00", evt.Time)
}

func TestTick_WaitsForRunningPass(t *testing.T) {
	store := &memReminderStore{block: make(chan struct{})}
	seed(t, store,
		models.Reminder{OwnerEmail: "a@example.com", Medicine: "A", TimeOfDay: "09:00"},
		models.Reminder{OwnerEmail: "a@example.com", Medicine: "B", TimeOfDay: "09:01"},
	)
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute,
		WithClock(func() time.Time { return at(t, 9, 0) }))

	manual := make(chan DispatchResult, 1)
	go func() {
		res, _ := d.CheckNow(context.Background())
		manual <- res
	}()
	require.Eventually(t, func() bool { return store.listCalls() == 1 }, time.Second, time.Millisecond)

	// a second manual check is redundant and returns at once
	res, err := d.CheckNow(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	// the scheduled pass for the next minute waits instead of being dropped
	scheduled := make(chan DispatchResult, 1)
	go func() {
		res, _ := d.Tick(context.Background(), at(t, 9, 1))
		scheduled <- res
	}()
	select {
	case <-scheduled:
		t.Fatal("scheduled pass ran concurrently with the manual one")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.block)
	assert.False(t, (<-manual).Skipped)
	second := <-scheduled
	assert.False(t, second.Skipped)
	assert.Equal(t, 1, second.Matched)

	msgs := notifier.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Body, "medicine: A (")
	assert.Contains(t, msgs[1].Body, "medicine: B (")
}

func TestServe_ReplaysBoundariesMissedDuringSlowPass(t *testing.T) {
	const interval = 20 * time.Millisecond

	// one reminder per minute around now, so every pass publishes exactly one event
	store := &memReminderStore{firstDelay: 7 * interval}
	start := time.Now().UTC()
	for m := -1; m <= 2; m++ {
		seed(t, store, models.Reminder{
			OwnerEmail: "a@example.com",
			Medicine:   "A",
			TimeOfDay:  start.Add(time.Duration(m) * time.Minute).Format("15:04"),
		})
	}
	pub := &recordingPublisher{}
	d := NewDispatcher(store, &recordingNotifier{}, time.UTC, interval, WithInAppPublisher(pub))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx) }()

	time.Sleep(20 * interval)
	cancel()
	stop := time.Now()
	require.ErrorIs(t, <-done, context.Canceled)

	fired := pub.firedAt("a@example.com")
	elapsed := int(stop.Truncate(interval).Sub(start.Truncate(interval)) / interval)
	require.GreaterOrEqual(t, len(fired), elapsed-2, "every elapsed boundary gets a pass")
	for i := 1; i < len(fired); i++ {
		assert.Equal(t, interval, fired[i].Sub(fired[i-1]), "boundaries are consecutive")
	}
}

func TestSkipStale_DropsOnlyBeyondCatchUpWindow(t *testing.T) {
	d := NewDispatcher(&memReminderStore{}, &recordingNotifier{}, time.UTC, time.Minute)
	next := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, next, d.skipStale(next, next.Add(3*time.Minute)))
	assert.Equal(t, next, d.skipStale(next, next.Add(maxCatchUpTicks*time.Minute)))

	got := d.skipStale(next, next.Add(2*time.Hour))
	assert.Equal(t, next.Add((120-maxCatchUpTicks)*time.Minute), got)
}

func TestCheckNow_UsesClock(t *testing.T) {
	store := &memReminderStore{}
	seed(t, store, models.Reminder{OwnerEmail: "a@example.com", Medicine: "A", TimeOfDay: "18:45"})
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, notifier, kolkata(t), time.Minute,
		WithClock(func() time.Time { return at(t, 18, 45) }))

	res, err := d.CheckNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
}

func TestReminderBody_DefaultsDosage(t *testing.T) {
	body := ReminderBody(models.Reminder{OwnerEmail: "ravi.k@mail.com", Medicine: "Melatonin"})
	assert.Equal(t, "Hey ravi.k! It’s time to take your medicine: Melatonin (as prescribed).", body)
}

func TestNextBoundary(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 42, 0, time.UTC)
	d := NewDispatcher(&memReminderStore{}, &recordingNotifier{}, time.UTC, time.Minute)
	assert.Equal(t, time.Date(2025, 3, 14, 10, 1, 0, 0, time.UTC), d.nextBoundary(now))
	assert.Equal(t, now.Add(18*time.Second), d.nextBoundary(now))
}

func TestServe_StopsOnCancel(t *testing.T) {
	d := NewDispatcher(&memReminderStore{}, &recordingNotifier{}, time.UTC, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
