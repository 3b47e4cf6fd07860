// Package game はプッシュ・ユア・ラックのゲーム進行のドメインロジックを提供する。
// ゲームの作成・プッシュ・キャンセル・履歴参照を統括し、
// ゲーム状態とスコア台帳を常に1つの単位として更新する唯一の入口となる。
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/pushluck/internal/luck"
	"github.com/hitoshi/pushluck/internal/model"
	"github.com/hitoshi/pushluck/internal/repository"
)

// ゲームの応答メッセージ。
const (
	messageGreeting = "プッシュ・ユア・ラックへようこそ。幸運を祈ります！"
	messageTimeTo   = "プッシュのときが来ました！"
	messageBust     = "残念、ここまでです。"
)

// encouragements は続行成功時にランダムに選ばれる励ましメッセージ。
var encouragements = []string{
	"お見事！",
	"強運の持ち主ですね！",
	"本番でも勝負すべきでは？",
}

// View はゲーム状態の公開用ビュー。
type View struct {
	ID       string
	UserName string
	Attempts int
	GameOver bool
	Message  string
}

// StatsRefresher は統計キャッシュの非同期更新インターフェース。
// Enqueueはブロックせず、失敗してもゲーム操作には影響しない。
type StatsRefresher interface {
	Enqueue()
}

// MetricsRecorder はゲームイベントのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordGameCreated()
	RecordPush()
	RecordBust()
	RecordStreakLength(attempts int)
}

// Service はゲーム進行のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	gameRepo  repository.GameRepository
	roller    luck.Roller
	refresher StatsRefresher  // nilの場合は更新をスキップ
	metrics   MetricsRecorder // nilの場合は記録をスキップ
	cooldown  time.Duration   // 0以下でクールダウン無効
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	gameRepo repository.GameRepository,
	roller luck.Roller,
	refresher StatsRefresher,
	metrics MetricsRecorder,
	cooldown time.Duration,
) *Service {
	return &Service{
		userRepo:  userRepo,
		gameRepo:  gameRepo,
		roller:    roller,
		refresher: refresher,
		metrics:   metrics,
		cooldown:  cooldown,
	}
}

// CreateGame は指定ユーザーの新しいゲームを作成する。
// 統計キャッシュの更新を非同期で予約するが、その成否は作成結果に影響しない。
func (s *Service) CreateGame(ctx context.Context, userName string) (*View, error) {
	user, err := s.userRepo.FindByName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userName)
	}

	now := time.Now()
	g := &model.Game{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Attempts:  0,
		GameOver:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.gameRepo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("ゲームの作成に失敗しました: %w", err)
	}

	slog.Info("ゲームを作成しました",
		slog.String("game_id", g.ID),
		slog.String("user_name", user.Name),
	)

	if s.metrics != nil {
		s.metrics.RecordGameCreated()
	}
	if s.refresher != nil {
		s.refresher.Enqueue()
	}

	return s.view(g, user.Name, messageGreeting), nil
}

// GetGame は現在のゲーム状態を返す。副作用はない。
func (s *Service) GetGame(ctx context.Context, gameID string) (*View, error) {
	g, user, err := s.findGameWithOwner(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return s.view(g, user.Name, messageTimeTo), nil
}

// PushLuck は1回のプッシュを実行する。
//
// 結果は50/50の確率判定で決まり、続行ならattemptsを1増やして台帳に反映し、
// バストならゲームを終了して台帳を0にリセットする。
// 履歴追記・ゲーム更新・クールダウン時刻・台帳の変更は
// 1つのトランザクションで適用される。
func (s *Service) PushLuck(ctx context.Context, gameID string) (*View, error) {
	g, user, err := s.findGameWithOwner(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.GameOver {
		return nil, model.NewGameAlreadyOverError()
	}

	now := time.Now()
	if !user.CanPush(s.cooldown, now) {
		return nil, model.NewPushNotAllowedError()
	}

	outcome := s.roller.Roll()

	params := repository.ApplyPushParams{
		GameID:           g.ID,
		UserID:           user.ID,
		PushedAt:         now,
		ExpectedAttempts: g.Attempts,
	}

	var message string
	switch outcome {
	case luck.OutcomeBust:
		// バストはattemptsを増やさずにゲームを終了し、台帳を今日の日付で0に戻す
		params.NewAttempts = g.Attempts
		params.GameOver = true
		params.ScoreAttempts = 0
		params.ScoreDate = now
		message = messageBust
	default:
		// 続行はattemptsを1増やし、台帳が常に進行中のゲームを映すようにする
		params.NewAttempts = g.Attempts + 1
		params.GameOver = false
		params.ScoreAttempts = g.Attempts + 1
		message = encouragements[s.roller.Pick(len(encouragements))]
	}

	if err := s.gameRepo.ApplyPush(ctx, params); err != nil {
		switch {
		case errors.Is(err, repository.ErrGameNotFound):
			return nil, model.NewGameNotFoundError(gameID)
		case errors.Is(err, repository.ErrGameAlreadyOver):
			return nil, model.NewGameAlreadyOverError()
		case errors.Is(err, repository.ErrPushConflict):
			return nil, model.NewPushConflictError()
		}
		return nil, fmt.Errorf("プッシュの適用に失敗しました: %w", err)
	}

	g.Attempts = params.NewAttempts
	g.GameOver = params.GameOver

	if s.metrics != nil {
		s.metrics.RecordPush()
		if g.GameOver {
			s.metrics.RecordBust()
			s.metrics.RecordStreakLength(g.Attempts)
		}
	}

	if g.GameOver {
		slog.Info("ゲームが終了しました",
			slog.String("game_id", g.ID),
			slog.String("user_name", user.Name),
			slog.Int("attempts", g.Attempts),
		)
		if s.refresher != nil {
			s.refresher.Enqueue()
		}
	}

	return s.view(g, user.Name, message), nil
}

// CancelGame は未終了のゲームを物理削除する。
// 終了済みゲームはキャンセルできない。台帳には触れない。
func (s *Service) CancelGame(ctx context.Context, gameID string) error {
	g, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("ゲームの取得に失敗しました: %w", err)
	}
	if g == nil {
		return model.NewGameNotFoundError(gameID)
	}
	if g.GameOver {
		return model.NewGameAlreadyOverError()
	}

	if err := s.gameRepo.DeleteByID(ctx, gameID); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return model.NewGameNotFoundError(gameID)
		}
		return fmt.Errorf("ゲームの削除に失敗しました: %w", err)
	}

	slog.Info("ゲームをキャンセルしました",
		slog.String("game_id", gameID),
	)

	return nil
}

// History はゲームのプッシュ履歴を時系列順で返す。
func (s *Service) History(ctx context.Context, gameID string) ([]time.Time, error) {
	g, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("ゲームの取得に失敗しました: %w", err)
	}
	if g == nil {
		return nil, model.NewGameNotFoundError(gameID)
	}

	history, err := s.gameRepo.ListHistory(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("履歴の取得に失敗しました: %w", err)
	}
	return history, nil
}

// ListUserGames は指定ユーザーの未終了ゲームの一覧を返す。
func (s *Service) ListUserGames(ctx context.Context, userName string) ([]View, error) {
	user, err := s.userRepo.FindByName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userName)
	}

	games, err := s.gameRepo.ListActiveByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("ゲーム一覧の取得に失敗しました: %w", err)
	}

	views := make([]View, 0, len(games))
	for _, g := range games {
		views = append(views, *s.view(&g.Game, g.UserName, ""))
	}
	return views, nil
}

// HighScores は終了済みゲームをattempts降順で返す。
// limitが0以下の場合は全件を返す。
func (s *Service) HighScores(ctx context.Context, limit int) ([]View, error) {
	games, err := s.gameRepo.ListFinishedByAttempts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ハイスコアの取得に失敗しました: %w", err)
	}

	views := make([]View, 0, len(games))
	for _, g := range games {
		views = append(views, *s.view(&g.Game, g.UserName, ""))
	}
	return views, nil
}

// findGameWithOwner はゲームとそのオーナーを取得する。
func (s *Service) findGameWithOwner(ctx context.Context, gameID string) (*model.Game, *model.User, error) {
	g, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, nil, fmt.Errorf("ゲームの取得に失敗しました: %w", err)
	}
	if g == nil {
		return nil, nil, model.NewGameNotFoundError(gameID)
	}

	user, err := s.userRepo.FindByID(ctx, g.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("オーナーの取得に失敗しました: %w", err)
	}
	if user == nil {
		// ゲームはユーザーの子レコードであり、オーナー不在は整合性違反
		return nil, nil, fmt.Errorf("ゲーム %s のオーナー %s が存在しません", g.ID, g.UserID)
	}

	return g, user, nil
}

func (s *Service) view(g *model.Game, userName, message string) *View {
	return &View{
		ID:       g.ID,
		UserName: userName,
		Attempts: g.Attempts,
		GameOver: g.GameOver,
		Message:  message,
	}
}
