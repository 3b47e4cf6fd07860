package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

// StatsCacheReader は統計キャッシュの読み取りインターフェース。
type StatsCacheReader interface {
	// Read はキャッシュされた統計文字列を返す。未設定の場合は空文字列を返す。
	Read(ctx context.Context) (string, error)
}

// StatsHandler は統計キャッシュのHTTPハンドラー。
type StatsHandler struct {
	cache StatsCacheReader
}

// NewStatsHandler はStatsHandlerを生成する。
func NewStatsHandler(cache StatsCacheReader) *StatsHandler {
	return &StatsHandler{
		cache: cache,
	}
}

// statsResponse は統計情報のAPIレスポンス。
// 終了済みゲームが1件もない場合、statisticは空文字列となる。
type statsResponse struct {
	Statistic string `json:"statistic"`
}

// AverageAttempts はキャッシュ済みの平均ストリークスコアを取得する。
// GET /api/stats/average_attempts
func (h *StatsHandler) AverageAttempts(w http.ResponseWriter, r *http.Request) {
	value, err := h.cache.Read(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{Statistic: value})
}
