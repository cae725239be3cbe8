package database

import (
	"context"
	"fmt"
	"os"
	"selen/internal/models"
	"testing"
	"time"
)

func TestMongoStoreRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping MongoDB store test")
	}

	mongodb, err := NewMongoDB(uri, "selen_test")
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongodb.Close(context.Background())

	ctx := context.Background()
	if err := mongodb.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	collection := fmt.Sprintf("memorias_%d", time.Now().UnixNano())
	defer mongodb.Collection(collection).Drop(ctx)

	if err := mongodb.Initialize(ctx, collection); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	store := NewMongoStore(mongodb, collection, collection)
	id, err := store.Persist(ctx, models.NewCuratedMemory("selen", "Respuesta generada", time.Now()))
	if err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected an id")
	}

	fragments, err := store.FindByTrigger(ctx, "SEL")
	if err != nil {
		t.Fatalf("FindByTrigger failed: %v", err)
	}
	if len(fragments) != 1 || fragments[0] != "Respuesta generada" {
		t.Errorf("unexpected fragments %v", fragments)
	}

	empty, err := store.FindByTrigger(ctx, "desconocido")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result, got %v (%v)", empty, err)
	}
}
