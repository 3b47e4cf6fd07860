package score

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/pushluck/internal/model"
	"github.com/hitoshi/pushluck/internal/repository"
)

// --- モック ---

type mockUserRepo struct {
	findByNameFn func(ctx context.Context, name string) (*model.User, error)
}

func (m *mockUserRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	if m.findByNameFn != nil {
		return m.findByNameFn(ctx, name)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) CreateWithScore(ctx context.Context, user *model.User) error {
	return nil
}

type mockScoreRepo struct {
	findByUserIDFn      func(ctx context.Context, userID string) (*model.Score, error)
	listByAttemptsDescFn func(ctx context.Context) ([]repository.ScoreWithUser, error)
}

func (m *mockScoreRepo) FindByUserID(ctx context.Context, userID string) (*model.Score, error) {
	if m.findByUserIDFn != nil {
		return m.findByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockScoreRepo) ListByAttemptsDesc(ctx context.Context) ([]repository.ScoreWithUser, error) {
	if m.listByAttemptsDescFn != nil {
		return m.listByAttemptsDescFn(ctx)
	}
	return nil, nil
}

// --- テスト ---

// Rankingsがattempts降順のエントリを返すことを検証
func TestService_Rankings(t *testing.T) {
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	scoreRepo := &mockScoreRepo{
		listByAttemptsDescFn: func(ctx context.Context) ([]repository.ScoreWithUser, error) {
			return []repository.ScoreWithUser{
				{Score: model.Score{UserID: "u1", Attempts: 7, ScoreDate: date}, UserName: "alice"},
				{Score: model.Score{UserID: "u2", Attempts: 3, ScoreDate: date}, UserName: "bob"},
			}, nil
		},
	}

	svc := NewService(&mockUserRepo{}, scoreRepo)

	entries, err := svc.Rankings(context.Background())
	if err != nil {
		t.Fatalf("Rankings returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].UserName != "alice" || entries[0].Attempts != 7 {
		t.Errorf("entries[0] = %+v, want alice/7", entries[0])
	}
	if entries[0].Attempts < entries[1].Attempts {
		t.Error("entries are not in descending order")
	}
}

// ScoreForUserがユーザーの現在のスコアを返すことを検証
func TestService_ScoreForUser(t *testing.T) {
	userRepo := &mockUserRepo{
		findByNameFn: func(ctx context.Context, name string) (*model.User, error) {
			return &model.User{ID: "u1", Name: name}, nil
		},
	}
	scoreRepo := &mockScoreRepo{
		findByUserIDFn: func(ctx context.Context, userID string) (*model.Score, error) {
			return &model.Score{UserID: userID, Attempts: 5}, nil
		},
	}

	svc := NewService(userRepo, scoreRepo)

	entry, err := svc.ScoreForUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ScoreForUser returned error: %v", err)
	}
	if entry.UserName != "alice" || entry.Attempts != 5 {
		t.Errorf("entry = %+v, want alice/5", entry)
	}
}

// 未登録ユーザーのスコア照会がUSER_NOT_FOUNDになることを検証
func TestService_ScoreForUser_UserNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockScoreRepo{})

	_, err := svc.ScoreForUser(context.Background(), "nobody")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("expected USER_NOT_FOUND, got %v", err)
	}
}

// 台帳行が存在しない場合もUSER_NOT_FOUNDになることを検証
func TestService_ScoreForUser_ScoreMissing(t *testing.T) {
	userRepo := &mockUserRepo{
		findByNameFn: func(ctx context.Context, name string) (*model.User, error) {
			return &model.User{ID: "u1", Name: name}, nil
		},
	}

	svc := NewService(userRepo, &mockScoreRepo{})

	_, err := svc.ScoreForUser(context.Background(), "alice")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("expected USER_NOT_FOUND, got %v", err)
	}
}
