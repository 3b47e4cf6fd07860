// Package user はユーザー登録のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/pushluck/internal/model"
	"github.com/hitoshi/pushluck/internal/repository"
)

// maxUserNameLength はユーザー名の最大長。
const maxUserNameLength = 64

// Service はユーザー登録のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Register は新しいユーザーとスコア台帳の初期行を作成する。
// ユーザー名は一意で、同名の登録はDUPLICATE_USERで拒否される。
// メールアドレスは任意で、リマインダー通知にのみ使われる。
func (s *Service) Register(ctx context.Context, name, email string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("ユーザー名が空です")
	}
	if len(name) > maxUserNameLength {
		return nil, model.NewValidationError("ユーザー名が長すぎます")
	}

	now := time.Now()
	u := &model.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     strings.TrimSpace(email),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.CreateWithScore(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, model.NewDuplicateUserError(name)
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", u.ID),
		slog.String("user_name", u.Name),
	)

	return u, nil
}
