// Package score はスコア台帳の読み取りロジックを提供する。
// 台帳への書き込みはゲーム進行のトランザクションに統合されているため、
// このサービスはランキングと個別スコアの照会のみを担当する。
package score

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/pushluck/internal/model"
	"github.com/hitoshi/pushluck/internal/repository"
)

// Entry はランキング・個別照会用のスコアビュー。
type Entry struct {
	UserName  string
	Attempts  int
	ScoreDate time.Time
}

// Service はスコア台帳のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	scoreRepo repository.ScoreRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, scoreRepo repository.ScoreRepository) *Service {
	return &Service{
		userRepo:  userRepo,
		scoreRepo: scoreRepo,
	}
}

// Rankings は全ユーザーのスコアをattempts降順で返す。
// 各プレイヤーは複数のゲームを持てるが、台帳は最新のスコアのみを保持する。
func (s *Service) Rankings(ctx context.Context) ([]Entry, error) {
	scores, err := s.scoreRepo.ListByAttemptsDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("ランキングの取得に失敗しました: %w", err)
	}

	entries := make([]Entry, 0, len(scores))
	for _, sc := range scores {
		entries = append(entries, Entry{
			UserName:  sc.UserName,
			Attempts:  sc.Attempts,
			ScoreDate: sc.ScoreDate,
		})
	}
	return entries, nil
}

// ScoreForUser は指定ユーザーの現在のスコアを返す。
// ユーザーまたは台帳が存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) ScoreForUser(ctx context.Context, userName string) (*Entry, error) {
	user, err := s.userRepo.FindByName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userName)
	}

	sc, err := s.scoreRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("スコアの取得に失敗しました: %w", err)
	}
	if sc == nil {
		return nil, model.NewUserNotFoundError(userName)
	}

	return &Entry{
		UserName:  user.Name,
		Attempts:  sc.Attempts,
		ScoreDate: sc.ScoreDate,
	}, nil
}
