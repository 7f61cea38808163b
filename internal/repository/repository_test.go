package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
	"portfolio-go/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestContentRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepository(newTestDB(t))

	second, err := repo.Insert(ctx, content.Skills, model.Record{"name": "Go", "category": "Backend", "level": 80, "order": 2})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	first, err := repo.Insert(ctx, content.Skills, model.Record{"name": "Python", "category": "Core", "level": 95, "order": 1})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID() == 0 || first["created_at"] == nil {
		t.Fatalf("server-assigned fields missing: %+v", first)
	}

	rows, err := repo.List(ctx, content.Skills)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0]["name"] != "Python" || rows[1]["name"] != "Go" {
		t.Fatalf("list must be ordered by order asc: %+v", rows)
	}

	updated, err := repo.Update(ctx, content.Skills, second.ID(), model.Record{"level": 90})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["level"] != float64(90) || updated["name"] != "Go" {
		t.Fatalf("update must merge fields: %+v", updated)
	}

	if err := repo.Delete(ctx, content.Skills, second.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, content.Skills, second.ID()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second delete: got=%v want ErrNotFound", err)
	}
	if _, err := repo.Update(ctx, content.Skills, 999, model.Record{"level": 1}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("update missing: got=%v", err)
	}
	if n, _ := repo.Count(ctx, content.Skills); n != 1 {
		t.Fatalf("count: got=%d want=1", n)
	}
}

func TestContentRepositoryProjectsTags(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepository(newTestDB(t))

	row, err := repo.Insert(ctx, content.Projects, model.Record{
		"title":        "LMS",
		"technologies": []string{"Go", "Redis"},
		"featured":     true,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.Get(ctx, content.Projects, row.ID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	tags, ok := got["technologies"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "Go" || tags[1] != "Redis" {
		t.Fatalf("technologies round trip: %#v", got["technologies"])
	}
	if got["featured"] != true {
		t.Fatalf("featured: %#v", got["featured"])
	}
}

func TestContentRepositoryMessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewContentRepository(db)

	old := model.Message{Name: "A", Email: "a@x.io", Message: "first", CreatedAt: time.Now().Add(-time.Hour)}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := repo.Insert(ctx, content.Messages, model.Record{"name": "B", "email": "b@x.io", "message": "second"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	rows, err := repo.List(ctx, content.Messages)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0]["name"] != "B" {
		t.Fatalf("messages must be newest first: %+v", rows)
	}
}

func TestContentRepositoryUnavailable(t *testing.T) {
	repo := NewContentRepository(nil)
	if _, err := repo.List(context.Background(), content.Skills); !errors.Is(err, model.ErrStoreUnavailable) {
		t.Fatalf("got=%v want ErrStoreUnavailable", err)
	}
}

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := &memorySessionRepository{sessions: map[string]model.AdminSession{}, now: func() time.Time { return now }}

	s := model.AdminSession{ID: "s1", UID: "owner", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got, err := repo.Get(ctx, "s1"); err != nil || got.UID != "owner" {
		t.Fatalf("get: %v %+v", err, got)
	}

	now = now.Add(2 * time.Hour)
	if _, err := repo.Get(ctx, "s1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expired session: got=%v", err)
	}

	_ = repo.Create(ctx, model.AdminSession{ID: "s2", ExpiresAt: now.Add(time.Hour)})
	_ = repo.Delete(ctx, "s2")
	if _, err := repo.Get(ctx, "s2"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("deleted session: got=%v", err)
	}
}

func TestMemoryChatSessionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := &memoryChatSessionRepository{
		states: map[string][]byte{}, seen: map[string]time.Time{},
		ttl: time.Minute, now: func() time.Time { return now },
	}

	if st, err := repo.Load(ctx, "v1"); st != nil || err != nil {
		t.Fatalf("unknown session: %+v %v", st, err)
	}
	state := &model.ChatState{Mode: "project_inquiry", Step: 2, Draft: model.Lead{Name: "Sara"}}
	if err := repo.Save(ctx, "v1", state); err != nil {
		t.Fatalf("save: %v", err)
	}
	state.Step = 5 // 修改调用方的副本不影响存储

	got, err := repo.Load(ctx, "v1")
	if err != nil || got.Step != 2 || got.Draft.Name != "Sara" {
		t.Fatalf("load: %+v %v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if st, _ := repo.Load(ctx, "v1"); st != nil {
		t.Fatal("idle session should expire")
	}
}

func TestChatTranscriptKeepsNewestTurns(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChatSessionRepository(time.Hour)
	state := &model.ChatState{Mode: "general"}
	for i := 0; i < maxTranscript+10; i++ {
		state.Transcript = append(state.Transcript, model.ChatMessage{Role: "user", Content: fmt.Sprintf("m%d", i)})
	}
	if err := repo.Save(ctx, "v1", state); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load(ctx, "v1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Transcript) != maxTranscript {
		t.Fatalf("transcript length: %d", len(got.Transcript))
	}
	if got.Transcript[0].Content != "m10" || got.Transcript[maxTranscript-1].Content != fmt.Sprintf("m%d", maxTranscript+9) {
		t.Fatalf("oldest turns must be dropped first: first=%q last=%q", got.Transcript[0].Content, got.Transcript[maxTranscript-1].Content)
	}
}

func TestContentRepositoryCountWhere(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepository(newTestDB(t))
	row := model.Record{"session_id": "s1", "user_message": "PROJECT INQUIRY: Sara", "bot_response": "{}"}
	if _, err := repo.Insert(ctx, content.ChatbotLogs, row); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n, err := repo.CountWhere(ctx, content.ChatbotLogs, row); err != nil || n != 1 {
		t.Fatalf("matching row: n=%d err=%v", n, err)
	}
	if n, err := repo.CountWhere(ctx, content.ChatbotLogs, model.Record{"session_id": "s2"}); err != nil || n != 0 {
		t.Fatalf("other session: n=%d err=%v", n, err)
	}
	if _, err := NewContentRepository(nil).CountWhere(ctx, content.ChatbotLogs, row); !errors.Is(err, model.ErrStoreUnavailable) {
		t.Fatalf("nil db: %v", err)
	}
}
