package services

import (
	"context"
	"selen/internal/cache"
	"selen/internal/models"
	"testing"
	"time"
)

func TestCachedContentStore(t *testing.T) {
	store := &fakeStore{contents: map[string][]string{"selen": {"Hola mundo"}}}
	c := cache.NewMemoryCache(time.Minute)
	cached := NewCachedContentStore(store, c, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		fragments, err := cached.FindByTrigger(ctx, "selen")
		if err != nil {
			t.Fatalf("FindByTrigger failed: %v", err)
		}
		if len(fragments) != 1 || fragments[0] != "Hola mundo" {
			t.Errorf("unexpected fragments %v", fragments)
		}
	}
	if store.callCount() != 1 {
		t.Errorf("expected 1 store call, got %d", store.callCount())
	}

	var raw []string
	if !c.Get(ctx, cache.ContentKey("selen"), &raw) {
		t.Error("expected content under the content namespace")
	}
	if c.Get(ctx, cache.AnswerKey("selen"), &raw) {
		t.Error("content must not be written to the answer namespace")
	}
}

func TestCachedContentStoreEmptyNotCached(t *testing.T) {
	store := &fakeStore{contents: map[string][]string{}}
	cached := NewCachedContentStore(store, cache.NewMemoryCache(time.Minute), nil)

	for i := 0; i < 2; i++ {
		fragments, err := cached.FindByTrigger(context.Background(), "vacio")
		if err != nil || len(fragments) != 0 {
			t.Fatalf("expected empty result, got %v (%v)", fragments, err)
		}
	}
	if store.callCount() != 2 {
		t.Errorf("empty results must be re-queried, got %d calls", store.callCount())
	}
}

func TestCachedContentStoreError(t *testing.T) {
	store := &fakeStore{err: models.NewUpstreamError("caído", 0, nil)}
	cached := NewCachedContentStore(store, nil, nil)

	if _, err := cached.FindByTrigger(context.Background(), "selen"); !models.IsKind(err, models.ErrorKindUpstream) {
		t.Errorf("expected upstream error, got %v", err)
	}
}
