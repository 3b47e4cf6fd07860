package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/pushluck/internal/game"
	"github.com/hitoshi/pushluck/internal/model"
)

// mockGameService はGameServiceInterfaceのテスト用モック。
type mockGameService struct {
	createGameFn    func(ctx context.Context, userName string) (*game.View, error)
	getGameFn       func(ctx context.Context, gameID string) (*game.View, error)
	pushLuckFn      func(ctx context.Context, gameID string) (*game.View, error)
	cancelGameFn    func(ctx context.Context, gameID string) error
	historyFn       func(ctx context.Context, gameID string) ([]time.Time, error)
	listUserGamesFn func(ctx context.Context, userName string) ([]game.View, error)
	highScoresFn    func(ctx context.Context, limit int) ([]game.View, error)
}

func (m *mockGameService) CreateGame(ctx context.Context, userName string) (*game.View, error) {
	return m.createGameFn(ctx, userName)
}

func (m *mockGameService) GetGame(ctx context.Context, gameID string) (*game.View, error) {
	return m.getGameFn(ctx, gameID)
}

func (m *mockGameService) PushLuck(ctx context.Context, gameID string) (*game.View, error) {
	return m.pushLuckFn(ctx, gameID)
}

func (m *mockGameService) CancelGame(ctx context.Context, gameID string) error {
	return m.cancelGameFn(ctx, gameID)
}

func (m *mockGameService) History(ctx context.Context, gameID string) ([]time.Time, error) {
	return m.historyFn(ctx, gameID)
}

func (m *mockGameService) ListUserGames(ctx context.Context, userName string) ([]game.View, error) {
	return m.listUserGamesFn(ctx, userName)
}

func (m *mockGameService) HighScores(ctx context.Context, limit int) ([]game.View, error) {
	return m.highScoresFn(ctx, limit)
}

// chiのURLパラメータ付きでハンドラーを呼び出すテストヘルパー。
func serveWithChi(h *GameHandler, method, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", h.CreateGame)
		r.Get("/high_scores", h.HighScores)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetGame)
			r.Put("/push", h.PushLuck)
			r.Delete("/", h.CancelGame)
			r.Get("/history", h.History)
		})
	})
	r.Get("/api/users/{name}/games", h.ListUserGames)

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ゲーム作成成功時に201と挨拶メッセージ付きのビューが返されることを検証
func TestGameHandler_CreateGame_Success(t *testing.T) {
	svc := &mockGameService{
		createGameFn: func(ctx context.Context, userName string) (*game.View, error) {
			return &game.View{
				ID:       "game-1",
				UserName: userName,
				Attempts: 0,
				GameOver: false,
				Message:  "プッシュ・ユア・ラックへようこそ。幸運を祈ります！",
			}, nil
		},
	}
	h := NewGameHandler(svc)

	body := bytes.NewBufferString(`{"user_name": "alice"}`)
	w := serveWithChi(h, http.MethodPost, "/api/games", body)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got gameResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != "game-1" {
		t.Errorf("id = %q, want %q", got.ID, "game-1")
	}
	if got.UserName != "alice" {
		t.Errorf("user_name = %q, want %q", got.UserName, "alice")
	}
	if got.GameOver {
		t.Error("game_over = true, want false")
	}
	if got.Message == "" {
		t.Error("expected non-empty message")
	}
}

// 未知ユーザーでのゲーム作成で404が返されることを検証
func TestGameHandler_CreateGame_UserNotFound(t *testing.T) {
	svc := &mockGameService{
		createGameFn: func(ctx context.Context, userName string) (*game.View, error) {
			return nil, model.NewUserNotFoundError(userName)
		},
	}
	h := NewGameHandler(svc)

	body := bytes.NewBufferString(`{"user_name": "nobody"}`)
	w := serveWithChi(h, http.MethodPost, "/api/games", body)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// ユーザー名が空のゲーム作成で400が返されることを検証
func TestGameHandler_CreateGame_EmptyUserName(t *testing.T) {
	h := NewGameHandler(&mockGameService{})

	body := bytes.NewBufferString(`{"user_name": ""}`)
	w := serveWithChi(h, http.MethodPost, "/api/games", body)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

// ゲーム取得成功時に200とビューが返されることを検証
func TestGameHandler_GetGame_Success(t *testing.T) {
	svc := &mockGameService{
		getGameFn: func(ctx context.Context, gameID string) (*game.View, error) {
			return &game.View{ID: gameID, UserName: "alice", Attempts: 2}, nil
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodGet, "/api/games/game-1", nil)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got gameResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", got.Attempts)
	}
}

// 未知のゲームIDで404が返されることを検証
func TestGameHandler_GetGame_NotFound(t *testing.T) {
	svc := &mockGameService{
		getGameFn: func(ctx context.Context, gameID string) (*game.View, error) {
			return nil, model.NewGameNotFoundError(gameID)
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodGet, "/api/games/unknown", nil)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// プッシュ成功時に200と更新後のビューが返されることを検証
func TestGameHandler_PushLuck_Success(t *testing.T) {
	svc := &mockGameService{
		pushLuckFn: func(ctx context.Context, gameID string) (*game.View, error) {
			return &game.View{
				ID:       gameID,
				UserName: "alice",
				Attempts: 3,
				GameOver: false,
				Message:  "お見事！",
			}, nil
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodPut, "/api/games/game-1/push", nil)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got gameResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", got.Attempts)
	}
}

// 終了済みゲームへのプッシュで409が返されることを検証
func TestGameHandler_PushLuck_GameAlreadyOver(t *testing.T) {
	svc := &mockGameService{
		pushLuckFn: func(ctx context.Context, gameID string) (*game.View, error) {
			return nil, model.NewGameAlreadyOverError()
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodPut, "/api/games/game-1/push", nil)

	resp := w.Result()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	var errResp apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Code != model.ErrCodeGameAlreadyOver {
		t.Errorf("code = %q, want %q", errResp.Code, model.ErrCodeGameAlreadyOver)
	}
}

// クールダウン未経過のプッシュで403が返されることを検証
func TestGameHandler_PushLuck_CooldownNotElapsed(t *testing.T) {
	svc := &mockGameService{
		pushLuckFn: func(ctx context.Context, gameID string) (*game.View, error) {
			return nil, model.NewPushNotAllowedError()
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodPut, "/api/games/game-1/push", nil)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// 同時プッシュの競合で409が返されることを検証
func TestGameHandler_PushLuck_Conflict(t *testing.T) {
	svc := &mockGameService{
		pushLuckFn: func(ctx context.Context, gameID string) (*game.View, error) {
			return nil, model.NewPushConflictError()
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodPut, "/api/games/game-1/push", nil)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusConflict)
	}
}

// ゲームキャンセル成功時に204が返されることを検証
func TestGameHandler_CancelGame_Success(t *testing.T) {
	svc := &mockGameService{
		cancelGameFn: func(ctx context.Context, gameID string) error {
			return nil
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodDelete, "/api/games/game-1", nil)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

// 終了済みゲームのキャンセルで409が返されることを検証
func TestGameHandler_CancelGame_AlreadyOver(t *testing.T) {
	svc := &mockGameService{
		cancelGameFn: func(ctx context.Context, gameID string) error {
			return model.NewGameAlreadyOverError()
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodDelete, "/api/games/game-1", nil)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusConflict)
	}
}

// プッシュ履歴が時系列順で返されることを検証
func TestGameHandler_History_Success(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 6, 1, 10, 1, 0, 0, time.UTC)

	svc := &mockGameService{
		historyFn: func(ctx context.Context, gameID string) ([]time.Time, error) {
			return []time.Time{t1, t2}, nil
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodGet, "/api/games/game-1/history", nil)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.GameID != "game-1" {
		t.Errorf("game_id = %q, want %q", got.GameID, "game-1")
	}
	if len(got.Pushes) != 2 {
		t.Fatalf("pushes count = %d, want 2", len(got.Pushes))
	}
	if !got.Pushes[0].Equal(t1) || !got.Pushes[1].Equal(t2) {
		t.Errorf("pushes = %v, want [%v %v]", got.Pushes, t1, t2)
	}
}

// ユーザーのアクティブゲーム一覧が返されることを検証
func TestGameHandler_ListUserGames_Success(t *testing.T) {
	svc := &mockGameService{
		listUserGamesFn: func(ctx context.Context, userName string) ([]game.View, error) {
			return []game.View{
				{ID: "game-1", UserName: userName, Attempts: 2},
				{ID: "game-2", UserName: userName, Attempts: 0},
			}, nil
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodGet, "/api/users/alice/games", nil)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []gameResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("games count = %d, want 2", len(got))
	}
	if got[0].ID != "game-1" {
		t.Errorf("games[0].id = %q, want %q", got[0].ID, "game-1")
	}
}

// limitパラメータがハイスコア取得に渡されることを検証
func TestGameHandler_HighScores_PassesLimit(t *testing.T) {
	var capturedLimit int
	svc := &mockGameService{
		highScoresFn: func(ctx context.Context, limit int) ([]game.View, error) {
			capturedLimit = limit
			return []game.View{
				{ID: "game-9", UserName: "bob", Attempts: 9, GameOver: true},
			}, nil
		},
	}
	h := NewGameHandler(svc)

	w := serveWithChi(h, http.MethodGet, "/api/games/high_scores?limit=5", nil)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if capturedLimit != 5 {
		t.Errorf("limit = %d, want 5", capturedLimit)
	}
}

// limit未指定時にデフォルト値が使われることを検証
func TestGameHandler_HighScores_DefaultLimit(t *testing.T) {
	var capturedLimit int
	svc := &mockGameService{
		highScoresFn: func(ctx context.Context, limit int) ([]game.View, error) {
			capturedLimit = limit
			return nil, nil
		},
	}
	h := NewGameHandler(svc)

	serveWithChi(h, http.MethodGet, "/api/games/high_scores", nil)

	if capturedLimit != defaultHighScoresLimit {
		t.Errorf("limit = %d, want %d", capturedLimit, defaultHighScoresLimit)
	}
}

// 不正なlimitパラメータで400が返されることを検証
func TestGameHandler_HighScores_InvalidLimit(t *testing.T) {
	h := NewGameHandler(&mockGameService{})

	tests := []struct {
		name string
		path string
	}{
		{"数値でない", "/api/games/high_scores?limit=abc"},
		{"ゼロ", "/api/games/high_scores?limit=0"},
		{"負数", "/api/games/high_scores?limit=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveWithChi(h, http.MethodGet, tt.path, nil)
			if w.Result().StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
			}
		})
	}
}
