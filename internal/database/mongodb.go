package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoDB creates a new MongoDB connection with connection pooling.
// The database name comes from the URI path, then defaultDB.
func NewMongoDB(uri, defaultDB string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Configure client options with connection pooling
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	if dbName == "" {
		dbName = defaultDB
	}

	log.Printf("✅ Connected to MongoDB database: %s", dbName)
	return &MongoDB{
		client:   client,
		database: client.Database(dbName),
	}, nil
}

// extractDBName extracts the database name from a MongoDB URI path.
// mongodb://localhost:27017/selen?authSource=admin -> selen
func extractDBName(uri string) string {
	rest := uri
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return ""
	}
	name := rest[slash+1:]
	if q := strings.Index(name, "?"); q >= 0 {
		name = name[:q]
	}
	return name
}

// Initialize creates the clave/timestamp index on each memory collection
func (m *MongoDB) Initialize(ctx context.Context, collections ...string) error {
	log.Println("📦 Initializing MongoDB indexes...")

	for _, name := range collections {
		_, err := m.database.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "clave", Value: 1}, {Key: "timestamp", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("failed to create index on %s: %w", name, err)
		}
	}

	log.Println("✅ MongoDB indexes initialized successfully")
	return nil
}

// Collection returns a collection handle
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	log.Println("🔌 Closing MongoDB connection...")
	return m.client.Disconnect(ctx)
}

// Ping checks if the database connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}
