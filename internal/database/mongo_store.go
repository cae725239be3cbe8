package database

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"selen/internal/models"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore reads trigger fragments and writes curated memories in MongoDB
type MongoStore struct {
	triggers *mongo.Collection
	memories *mongo.Collection
}

// NewMongoStore creates a store over the given collections
func NewMongoStore(mongodb *MongoDB, triggersCollection, memoryCollection string) *MongoStore {
	return &MongoStore{
		triggers: mongodb.Collection(triggersCollection),
		memories: mongodb.Collection(memoryCollection),
	}
}

// FindByTrigger returns the content of every document whose clave contains key, oldest first
func (s *MongoStore) FindByTrigger(ctx context.Context, key string) ([]string, error) {
	filter := bson.M{
		"clave": bson.M{"$regex": regexp.QuoteMeta(key), "$options": "i"},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetProjection(bson.M{"contenido": 1})

	cursor, err := s.triggers.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("❌ [MONGO] Query for trigger '%s' failed: %v", key, err)
		return nil, models.NewUpstreamError("No se pudo consultar la base de memorias", 0, err)
	}
	defer cursor.Close(ctx)

	var docs []models.CuratedMemory
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, models.NewUpstreamError("Documento de memoria malformado", 0, err)
	}

	fragments := make([]string, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Contenido) != "" {
			fragments = append(fragments, doc.Contenido)
		}
	}

	log.Printf("📚 [MONGO] Found %d memories for trigger '%s'", len(fragments), key)
	return fragments, nil
}

// Persist inserts memory and returns the document ObjectID in hex
func (s *MongoStore) Persist(ctx context.Context, memory models.CuratedMemory) (string, error) {
	if strings.TrimSpace(memory.Clave) == "" {
		memory.Clave = models.DefaultClave
	}
	memory.Etiquetas = models.UniqueTags(memory.Etiquetas)

	result, err := s.memories.InsertOne(ctx, memory)
	if err != nil {
		log.Printf("❌ [MONGO] Failed to save curated memory '%s': %v", memory.Clave, err)
		return "", models.NewPersistenceError("No se pudo guardar la memoria", err)
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok || id.IsZero() {
		return "", models.NewPersistenceError("No se pudo guardar la memoria",
			fmt.Errorf("unexpected inserted id %v", result.InsertedID))
	}

	log.Printf("💾 [MONGO] Curated memory saved: %s", id.Hex())
	return id.Hex(), nil
}
