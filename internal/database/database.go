package database

import (
	"context"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const defaultDBName = "wellnest"

var Client *mongo.Client
var DB *mongo.Database

// DatabaseName returns the database named in the URI path, or "wellnest".
func DatabaseName(mongoURI string) string {
	cs, err := connstring.Parse(mongoURI)
	if err != nil || cs.Database == "" {
		return defaultDBName
	}
	return cs.Database
}

func Connect(mongoURI string) error {
	// Atlas handshakes are slow
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	logging.Info().Msg("Attempting to connect to MongoDB...")
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	Client = client
	DB = client.Database(DatabaseName(mongoURI))

	logging.Info().Str("database", DB.Name()).Msg("✅ Connected to MongoDB")
	return nil
}

func Disconnect() error {
	if Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return Client.Disconnect(ctx)
}
