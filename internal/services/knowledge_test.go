package services

import (
	"context"
	"errors"
	"testing"
)

func TestSeedWritesEverySnippet(t *testing.T) {
	store := &fakeStore{}
	seeder := NewKnowledgeSeeder(newTestLogger(t), &fakeGemini{}, store)

	seeded := seeder.Seed(context.Background())

	if seeded != len(knowledgeSnippets) {
		t.Fatalf("seeded = %d, want %d", seeded, len(knowledgeSnippets))
	}
	if len(store.upserts) != len(knowledgeSnippets) {
		t.Fatalf("upserts = %d, want %d", len(store.upserts), len(knowledgeSnippets))
	}
	for i, call := range store.upserts {
		content, ok := call.payload["content"].(string)
		if !ok || content != knowledgeSnippets[i] {
			t.Fatalf("upsert %d payload content = %v, want snippet %d", i, call.payload["content"], i)
		}
	}
}

func TestSeedSkipsFailingSnippets(t *testing.T) {
	calls := 0
	embedder := &fakeGemini{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			calls++
			if calls%2 == 0 {
				return nil, errors.New("embed failed")
			}
			return make([]float32, 768), nil
		},
	}
	store := &fakeStore{}
	seeder := NewKnowledgeSeeder(newTestLogger(t), embedder, store)

	seeded := seeder.Seed(context.Background())

	want := (len(knowledgeSnippets) + 1) / 2
	if seeded != want {
		t.Fatalf("seeded = %d, want %d with every second embed failing", seeded, want)
	}
	if calls != len(knowledgeSnippets) {
		t.Fatalf("embed calls = %d, want %d; a failure must not stop the loop", calls, len(knowledgeSnippets))
	}
}

func TestSeedSkipsOnUpsertFailure(t *testing.T) {
	store := &fakeStore{upsertErr: errors.New("store down")}
	seeder := NewKnowledgeSeeder(newTestLogger(t), &fakeGemini{}, store)

	if seeded := seeder.Seed(context.Background()); seeded != 0 {
		t.Fatalf("seeded = %d, want 0 when every upsert fails", seeded)
	}
}
