package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/AnshRaj112/wellnest-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const JournalsCollection = "journals"

// JournalStore persists journal entries. Entries are never updated or deleted.
type JournalStore interface {
	Create(ctx context.Context, j *models.Journal) (*models.Journal, error)
	// ListByOwner returns the owner's entries newest first.
	ListByOwner(ctx context.Context, email string) ([]models.Journal, error)
}

type JournalStoreOption func(*MongoJournalStore)

// WithContentCipher encrypts content before it is written.
func WithContentCipher(c *utils.ContentCipher) JournalStoreOption {
	return func(s *MongoJournalStore) { s.cipher = c }
}

// WithJournalCache caches per-owner lists.
func WithJournalCache(c JournalCache) JournalStoreOption {
	return func(s *MongoJournalStore) { s.cache = c }
}

// MongoJournalStore is the JournalStore backed by the journals collection.
type MongoJournalStore struct {
	col    *mongo.Collection
	cipher *utils.ContentCipher
	cache  JournalCache
	// stale holds owners whose cache invalidation failed; their cache is
	// bypassed until a retry succeeds
	stale sync.Map
	now   func() time.Time
}

func NewMongoJournalStore(db *mongo.Database, opts ...JournalStoreOption) *MongoJournalStore {
	s := &MongoJournalStore{
		col: db.Collection(JournalsCollection),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MongoJournalStore) Create(ctx context.Context, j *models.Journal) (*models.Journal, error) {
	entry := *j
	entry.OwnerEmail = utils.NormalizeEmail(entry.OwnerEmail)
	if entry.OwnerEmail == "" || strings.TrimSpace(entry.Title) == "" || strings.TrimSpace(entry.Content) == "" {
		return nil, ErrInvalidInput
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = s.now().UTC().Truncate(time.Millisecond) // BSON dates are millisecond precision
	entry.Encrypted = false

	stored := entry
	if s.cipher != nil {
		sealed, err := s.cipher.Encrypt(entry.Content)
		if err != nil {
			return nil, fmt.Errorf("encrypt journal: %w", err)
		}
		stored.Content = sealed
		stored.Encrypted = true
	}

	if _, err := s.col.InsertOne(ctx, stored); err != nil {
		return nil, fmt.Errorf("insert journal: %w: %w", ErrStoreUnavailable, err)
	}
	s.invalidate(ctx, entry.OwnerEmail)
	return &entry, nil
}

func (s *MongoJournalStore) ListByOwner(ctx context.Context, email string) ([]models.Journal, error) {
	var (
		stored []models.Journal
		gen    int64
		hit    bool
	)
	useCache := s.cacheUsable(ctx, email)
	if useCache {
		stored, gen, hit = s.cache.Get(ctx, email)
	}

	if !hit {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := s.col.Find(ctx, bson.M{"userEmail": email}, opts)
		if err != nil {
			return nil, fmt.Errorf("find journals: %w: %w", ErrStoreUnavailable, err)
		}
		defer cursor.Close(ctx)

		stored = make([]models.Journal, 0)
		if err := cursor.All(ctx, &stored); err != nil {
			return nil, fmt.Errorf("decode journals: %w: %w", ErrStoreUnavailable, err)
		}
		if useCache {
			s.cache.Set(ctx, email, gen, stored)
		}
	}

	return s.open(stored)
}

func (s *MongoJournalStore) invalidate(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, email); err != nil {
		s.stale.Store(email, struct{}{})
		logging.Warn().Err(err).Str("email", email).Msg("journal cache invalidation failed, bypassing cache for owner")
		return
	}
	s.stale.Delete(email)
}

// cacheUsable reports whether the owner's cached list can be trusted, retrying
// a failed invalidation first.
func (s *MongoJournalStore) cacheUsable(ctx context.Context, email string) bool {
	if s.cache == nil {
		return false
	}
	if _, pending := s.stale.Load(email); !pending {
		return true
	}
	if err := s.cache.Invalidate(ctx, email); err != nil {
		return false
	}
	s.stale.Delete(email)
	return true
}

// open decrypts stored entries into a fresh slice so cached values stay sealed.
func (s *MongoJournalStore) open(stored []models.Journal) ([]models.Journal, error) {
	out := make([]models.Journal, len(stored))
	for i, j := range stored {
		if j.Encrypted {
			if s.cipher == nil {
				return nil, fmt.Errorf("journal %s is encrypted but ENCRYPTION_KEY is not set", j.ID.Hex())
			}
			plain, err := s.cipher.Decrypt(j.Content)
			if err != nil {
				return nil, fmt.Errorf("decrypt journal %s: %w", j.ID.Hex(), err)
			}
			j.Content = plain
			j.Encrypted = false
		}
		out[i] = j
	}
	return out, nil
}
