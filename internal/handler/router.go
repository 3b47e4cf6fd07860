package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/pushluck/internal/middleware"
)

// HealthChecker はヘルスチェックで使用するDB疎通確認インターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	MetricsRecorder   middleware.HTTPMetricsRecorder // nilの場合は記録しない

	// ヘルスチェック
	HealthChecker HealthChecker

	// ドメインサービス
	GameService  GameServiceInterface
	UserService  UserServiceInterface
	ScoreService ScoreServiceInterface
	StatsCache   StatsCacheReader
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → MetricsMiddleware →
//	SecurityHeadersMiddleware → CORSMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// ヘルスチェック（/health）はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	gameHandler := NewGameHandler(deps.GameService)
	userHandler := NewUserHandler(deps.UserService)
	scoreHandler := NewScoreHandler(deps.ScoreService)
	statsHandler := NewStatsHandler(deps.StatsCache)

	// ヘルスチェック（レート制限対象外）
	r.Get("/health", NewHealthHandler(deps.HealthChecker))

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Post("/", userHandler.Register)

			// GET /api/users/{name}/games - ユーザーのアクティブなゲーム一覧
			r.Get("/{name}/games", gameHandler.ListUserGames)
		})

		// ゲーム進行
		r.Route("/api/games", func(r chi.Router) {
			// POST /api/games - ゲーム作成（作成専用レート制限を追加）
			r.With(deps.RateLimiter.GameCreationMiddleware()).Post("/", gameHandler.CreateGame)

			// GET /api/games/high_scores - 終了済みゲームランキング
			r.Get("/high_scores", gameHandler.HighScores)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", gameHandler.GetGame)
				r.Put("/push", gameHandler.PushLuck)
				r.Delete("/", gameHandler.CancelGame)
				r.Get("/history", gameHandler.History)
			})
		})

		// スコア台帳
		r.Route("/api/scores", func(r chi.Router) {
			r.Get("/", scoreHandler.Rankings)
			r.Get("/users/{name}", scoreHandler.ScoreForUser)
		})

		// 統計キャッシュ
		r.Route("/api/stats", func(r chi.Router) {
			r.Get("/average_attempts", statsHandler.AverageAttempts)
		})
	})

	return r
}

// NewHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// checkerがnilの場合はプロセス生存のみを報告する。
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
