package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/pushluck/internal/model"
)

// PostgresScoreRepoはScoreRepositoryインターフェースを満たすことを検証
func TestPostgresScoreRepo_ImplementsInterface(t *testing.T) {
	var _ ScoreRepository = (*PostgresScoreRepo)(nil)
}

// NewPostgresScoreRepoが正しく初期化されることを検証
func TestNewPostgresScoreRepo_Initializes(t *testing.T) {
	repo := NewPostgresScoreRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Scoreモデルのフィールドが正しく構築されることを検証
func TestPostgresScoreRepo_ScoreModel_Fields(t *testing.T) {
	now := time.Now()
	score := &model.Score{
		UserID:    "user-id-1",
		Attempts:  5,
		ScoreDate: now,
	}

	if score.UserID != "user-id-1" {
		t.Errorf("score.UserID = %q, want %q", score.UserID, "user-id-1")
	}
	if score.Attempts != 5 {
		t.Errorf("score.Attempts = %d, want 5", score.Attempts)
	}
}
