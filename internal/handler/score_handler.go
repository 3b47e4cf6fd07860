package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/pushluck/internal/score"
)

// ScoreServiceInterface はスコアハンドラーが必要とするサービスインターフェース。
type ScoreServiceInterface interface {
	// Rankings は全ユーザーのスコアをattempts降順で返す。
	Rankings(ctx context.Context) ([]score.Entry, error)
	// ScoreForUser は指定ユーザーの現在のスコアを返す。
	ScoreForUser(ctx context.Context, userName string) (*score.Entry, error)
}

// ScoreHandler はスコア台帳のHTTPハンドラー。
type ScoreHandler struct {
	service ScoreServiceInterface
}

// NewScoreHandler はScoreHandlerを生成する。
func NewScoreHandler(service ScoreServiceInterface) *ScoreHandler {
	return &ScoreHandler{
		service: service,
	}
}

// scoreResponse はスコア情報のAPIレスポンス。
type scoreResponse struct {
	UserName  string    `json:"user_name"`
	Attempts  int       `json:"attempts"`
	ScoreDate time.Time `json:"score_date"`
}

// Rankings はスコアランキングを取得する。
// GET /api/scores
func (h *ScoreHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Rankings(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]scoreResponse, len(entries))
	for i, e := range entries {
		results[i] = toScoreResponse(e)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// ScoreForUser はユーザーの現在のスコアを取得する。
// GET /api/scores/users/:name
func (h *ScoreHandler) ScoreForUser(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "name")

	entry, err := h.service.ScoreForUser(r.Context(), userName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toScoreResponse(*entry))
}

// toScoreResponse はscore.EntryからAPIレスポンスに変換する。
func toScoreResponse(e score.Entry) scoreResponse {
	return scoreResponse{
		UserName:  e.UserName,
		Attempts:  e.Attempts,
		ScoreDate: e.ScoreDate,
	}
}
