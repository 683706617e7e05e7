package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/AnshRaj112/wellnest-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RemindersCollection = "reminders"

// ReminderStore persists medicine reminders.
// MarkTaken and Delete are no-ops for ids that do not exist.
type ReminderStore interface {
	Create(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	ListByOwner(ctx context.Context, email string) ([]models.Reminder, error)
	ListActive(ctx context.Context) ([]models.Reminder, error)
	MarkTaken(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ApplyReminderDefaults fills status, repeat rule and creation time the way the
// client expects when they are omitted.
func ApplyReminderDefaults(r *models.Reminder, now time.Time) {
	r.OwnerEmail = utils.NormalizeEmail(r.OwnerEmail)
	r.Medicine = strings.TrimSpace(r.Medicine)
	r.TimeOfDay = strings.TrimSpace(r.TimeOfDay)
	if r.Status == "" {
		r.Status = models.ReminderStatusActive
	}
	if r.RepeatRule == "" {
		r.RepeatRule = models.RepeatDaily
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
}

// SplitReminders partitions reminders into active (status Active) and history (everything else).
// Both slices are non-nil so they encode as [] rather than null.
func SplitReminders(all []models.Reminder) (active, history []models.Reminder) {
	active = make([]models.Reminder, 0, len(all))
	history = make([]models.Reminder, 0)
	for _, r := range all {
		if r.IsActive() {
			active = append(active, r)
		} else {
			history = append(history, r)
		}
	}
	return active, history
}

// MongoReminderStore is the ReminderStore backed by the reminders collection.
type MongoReminderStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoReminderStore(db *mongo.Database) *MongoReminderStore {
	return &MongoReminderStore{
		col: db.Collection(RemindersCollection),
		now: time.Now,
	}
}

func (s *MongoReminderStore) Create(ctx context.Context, r *models.Reminder) (*models.Reminder, error) {
	rec := *r
	ApplyReminderDefaults(&rec, s.now())
	if rec.OwnerEmail == "" || rec.Medicine == "" || rec.TimeOfDay == "" {
		return nil, ErrInvalidInput
	}
	rec.ID = primitive.NewObjectID()

	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert reminder: %w: %w", ErrStoreUnavailable, err)
	}
	return &rec, nil
}

func (s *MongoReminderStore) ListByOwner(ctx context.Context, email string) ([]models.Reminder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	return s.find(ctx, bson.M{"email": email}, opts)
}

// ListActive scans every Active reminder. There is no paging: the dispatcher
// needs the whole set each tick.
func (s *MongoReminderStore) ListActive(ctx context.Context) ([]models.Reminder, error) {
	return s.find(ctx, bson.M{"status": models.ReminderStatusActive}, options.Find())
}

func (s *MongoReminderStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Reminder, error) {
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reminders: %w: %w", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	reminders := make([]models.Reminder, 0)
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, fmt.Errorf("decode reminders: %w: %w", ErrStoreUnavailable, err)
	}
	return reminders, nil
}

func (s *MongoReminderStore) MarkTaken(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	_, err = s.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"status": models.ReminderStatusTaken}})
	if err != nil {
		return fmt.Errorf("mark reminder taken: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoReminderStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete reminder: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
