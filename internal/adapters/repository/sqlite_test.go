package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/intake/internal/domain/model"
)

func openTempStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func sampleSession(id, userID string) model.Session {
	age := 30
	income := 75000.0
	employment := "full-time"
	risk := "moderate"
	return model.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC),
		RawInput: map[string]any{
			"personalInfo": map[string]any{"age": float64(30), "income": float64(75000), "employment": "full-time"},
			"preferences":  map[string]any{"riskTolerance": "moderate"},
			"flags":        []any{},
		},
		ParsedData: model.ParsedData{
			PersonalInfo: &model.PersonalInfo{Age: &age, Income: &income, Employment: &employment},
			Preferences:  &model.Preferences{RiskTolerance: &risk},
			Flags:        []string{},
		},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestInsertFindRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := sampleSession("sess-1", "user-1")
	if err := store.Insert(context.Background(), input); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	got, err := store.FindByID(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if got.ID != input.ID {
		t.Fatalf("id = %q, want %q", got.ID, input.ID)
	}
	if got.UserID != input.UserID {
		t.Fatalf("user_id = %q, want %q", got.UserID, input.UserID)
	}
	if !got.CreatedAt.Equal(input.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, input.CreatedAt)
	}
	if got.Score != nil || got.ScoreExplanation != nil {
		t.Fatal("new session must not carry a score")
	}
	if got.ParsedData.PersonalInfo == nil || *got.ParsedData.PersonalInfo.Age != 30 {
		t.Fatal("parsed data did not round-trip")
	}
	if got.RawInput["preferences"] == nil {
		t.Fatal("raw input did not round-trip")
	}
}

func TestInsertDuplicateID(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Insert(context.Background(), sampleSession("sess-dup", "user-1")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := store.Insert(context.Background(), sampleSession("sess-dup", "user-2"))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("second insert = %v, want ErrDuplicateID", err)
	}
}

func TestFindByIDMissing(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.FindByID(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("find = %v, want ErrNotFound", err)
	}
}

func TestUpdateScore(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Insert(context.Background(), sampleSession("sess-2", "user-1")); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	if err := store.UpdateScore(context.Background(), "sess-2", 78, "Score: 78/100"); err != nil {
		t.Fatalf("update score: %v", err)
	}

	got, err := store.FindByID(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if got.Score == nil || *got.Score != 78 {
		t.Fatalf("score = %v, want 78", got.Score)
	}
	if got.ScoreExplanation == nil || *got.ScoreExplanation != "Score: 78/100" {
		t.Fatalf("explanation = %v, want set", got.ScoreExplanation)
	}
}

func TestUpdateScoreNeverOverwrites(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Insert(context.Background(), sampleSession("sess-3", "user-1")); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if err := store.UpdateScore(context.Background(), "sess-3", 60, "first"); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// A second update is a no-op, not an error.
	if err := store.UpdateScore(context.Background(), "sess-3", 99, "second"); err != nil {
		t.Fatalf("second update: %v", err)
	}

	got, err := store.FindByID(context.Background(), "sess-3")
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if *got.Score != 60 || *got.ScoreExplanation != "first" {
		t.Fatalf("score = %d/%q, want original 60/first", *got.Score, *got.ScoreExplanation)
	}
}

func TestUpdateScoreMissingRow(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.UpdateScore(context.Background(), "ghost", 50, "x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("update = %v, want ErrNotFound", err)
	}
}

func TestUpdateScoreTouchesNothingElse(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := sampleSession("sess-4", "user-1")
	ip := "198.51.100.7"
	ua := "test-agent/1.0"
	input.SourceIP = &ip
	input.UserAgent = &ua
	if err := store.Insert(context.Background(), input); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if err := store.UpdateScore(context.Background(), "sess-4", 42, "mid"); err != nil {
		t.Fatalf("update score: %v", err)
	}

	got, err := store.FindByID(context.Background(), "sess-4")
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if !got.CreatedAt.Equal(input.CreatedAt) {
		t.Fatal("created_at changed on score update")
	}
	if got.SourceIP == nil || *got.SourceIP != ip {
		t.Fatal("source_ip changed on score update")
	}
	if got.UserAgent == nil || *got.UserAgent != ua {
		t.Fatal("user_agent changed on score update")
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if n := store.Count(context.Background()); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	if err := store.Insert(context.Background(), sampleSession("sess-a", "user-1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(context.Background(), sampleSession("sess-b", "user-2")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n := store.Count(context.Background()); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}
