package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/pushluck/internal/game"
	"github.com/hitoshi/pushluck/internal/model"
)

// defaultHighScoresLimit はランキング取得件数のデフォルト値。
const defaultHighScoresLimit = 10

// GameServiceInterface はゲームハンドラーが必要とするサービスインターフェース。
type GameServiceInterface interface {
	// CreateGame は指定ユーザーの新しいゲームを作成する。
	CreateGame(ctx context.Context, userName string) (*game.View, error)
	// GetGame はゲーム状態を取得する。
	GetGame(ctx context.Context, gameID string) (*game.View, error)
	// PushLuck はゲームのプッシュを1回実行する。
	PushLuck(ctx context.Context, gameID string) (*game.View, error)
	// CancelGame は未終了のゲームをキャンセルする。
	CancelGame(ctx context.Context, gameID string) error
	// History はゲームのプッシュ履歴を時系列順で返す。
	History(ctx context.Context, gameID string) ([]time.Time, error)
	// ListUserGames は指定ユーザーのアクティブなゲーム一覧を返す。
	ListUserGames(ctx context.Context, userName string) ([]game.View, error)
	// HighScores は終了済みゲームをattempts降順で返す。
	HighScores(ctx context.Context, limit int) ([]game.View, error)
}

// GameHandler はゲーム進行のHTTPハンドラー。
type GameHandler struct {
	service GameServiceInterface
}

// NewGameHandler はGameHandlerを生成する。
func NewGameHandler(service GameServiceInterface) *GameHandler {
	return &GameHandler{
		service: service,
	}
}

// createGameRequest はゲーム作成リクエストのボディ。
type createGameRequest struct {
	UserName string `json:"user_name"`
}

// gameResponse はゲーム状態のAPIレスポンス。
type gameResponse struct {
	ID       string `json:"id"`
	UserName string `json:"user_name"`
	Attempts int    `json:"attempts"`
	GameOver bool   `json:"game_over"`
	Message  string `json:"message,omitempty"`
}

// historyResponse はプッシュ履歴のAPIレスポンス。
type historyResponse struct {
	GameID string      `json:"game_id"`
	Pushes []time.Time `json:"pushes"`
}

// CreateGame はゲーム作成を処理する。
// POST /api/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if req.UserName == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("ユーザー名が空です"))
		return
	}

	v, err := h.service.CreateGame(r.Context(), req.UserName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toGameResponse(v))
}

// GetGame はゲーム状態を取得する。
// GET /api/games/:id
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	v, err := h.service.GetGame(r.Context(), gameID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toGameResponse(v))
}

// PushLuck はプッシュの実行を処理する。
// PUT /api/games/:id/push
func (h *GameHandler) PushLuck(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	v, err := h.service.PushLuck(r.Context(), gameID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toGameResponse(v))
}

// CancelGame はゲームのキャンセルを処理する。
// DELETE /api/games/:id
func (h *GameHandler) CancelGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	if err := h.service.CancelGame(r.Context(), gameID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History はプッシュ履歴を取得する。
// GET /api/games/:id/history
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	pushes, err := h.service.History(r.Context(), gameID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(historyResponse{
		GameID: gameID,
		Pushes: pushes,
	})
}

// ListUserGames はユーザーのアクティブなゲーム一覧を取得する。
// GET /api/users/:name/games
func (h *GameHandler) ListUserGames(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "name")

	views, err := h.service.ListUserGames(r.Context(), userName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]gameResponse, len(views))
	for i := range views {
		results[i] = toGameResponse(&views[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// HighScores は終了済みゲームのランキングを取得する。
// GET /api/games/high_scores?limit=N
func (h *GameHandler) HighScores(w http.ResponseWriter, r *http.Request) {
	limit := defaultHighScoresLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("limitは1以上の整数で指定してください"))
			return
		}
		limit = n
	}

	views, err := h.service.HighScores(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]gameResponse, len(views))
	for i := range views {
		results[i] = toGameResponse(&views[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// toGameResponse はgame.ViewからAPIレスポンスに変換する。
func toGameResponse(v *game.View) gameResponse {
	return gameResponse{
		ID:       v.ID,
		UserName: v.UserName,
		Attempts: v.Attempts,
		GameOver: v.GameOver,
		Message:  v.Message,
	}
}
