package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/letter5700/backend/internal/platform/logger"
	"github.com/letter5700/backend/internal/platform/qdrant"
	"github.com/letter5700/backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	if err := db.AutoMigrate(&types.Member{}, &types.DailyRecord{}, &types.Advice{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

type fakeGemini struct {
	embedFn    func(ctx context.Context, text string) ([]float32, error)
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeGemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedFn == nil {
		return make([]float32, 768), nil
	}
	return f.embedFn(ctx, text)
}

func (f *fakeGemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	if f.generateFn == nil {
		return "ok", nil
	}
	return f.generateFn(ctx, prompt)
}

type upsertCall struct {
	id      uuid.UUID
	vector  []float32
	payload map[string]any
}

type fakeStore struct {
	ensureErr error
	upsertErr error
	upserts   []upsertCall
	searchFn  func(ctx context.Context, vector []float32, limit int) ([]qdrant.ScoredPoint, error)
}

func (f *fakeStore) EnsureCollection(ctx context.Context) error {
	return f.ensureErr
}

func (f *fakeStore) Upsert(ctx context.Context, id uuid.UUID, vector []float32, payload map[string]any) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, upsertCall{id: id, vector: vector, payload: payload})
	return nil
}

func (f *fakeStore) Search(ctx context.Context, vector []float32, limit int) ([]qdrant.ScoredPoint, error) {
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(ctx, vector, limit)
}

type sentCall struct {
	token string
	title string
	body  string
}

type fakeNotifier struct {
	sendErr error
	sent    []sentCall
}

func (f *fakeNotifier) Send(ctx context.Context, token, title, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentCall{token: token, title: title, body: body})
	return nil
}
