// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/pushluck/internal/model"
)

// 永続化層のセンチネルエラー。サービス層でAPIErrorに変換される。
var (
	// ErrDuplicateUser は一意制約違反による同名ユーザーの二重登録を示す。
	ErrDuplicateUser = errors.New("repository: duplicate user name")
	// ErrGameNotFound はトランザクション内でゲーム行が見つからなかったことを示す。
	ErrGameNotFound = errors.New("repository: game not found")
	// ErrGameAlreadyOver はロック取得後の再確認で既に終了していたことを示す。
	ErrGameAlreadyOver = errors.New("repository: game already over")
	// ErrPushConflict は判定の前提としたattemptsが別のプッシュにより変化していたことを示す。
	ErrPushConflict = errors.New("repository: concurrent push conflict")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByName は指定名のユーザーを取得する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithScore はユーザーとスコア台帳の初期行を同一トランザクションで作成する。
	// 名前の一意制約違反の場合はErrDuplicateUserを返す。
	CreateWithScore(ctx context.Context, user *model.User) error
}

// ApplyPushParams は1回のプッシュで永続化する変更の一式。
// ゲーム行・履歴・ユーザーのクールダウン時刻・スコア台帳を
// 1つのトランザクションで適用するためのパラメータ。
type ApplyPushParams struct {
	GameID   string
	UserID   string
	PushedAt time.Time

	// ExpectedAttempts は結果判定の前提としたattempts。
	// ロック取得後の値と一致しない場合、プッシュは適用されない。
	ExpectedAttempts int

	NewAttempts int
	GameOver    bool

	// ScoreAttempts は台帳に書き込むattempts。続行時は新しい回数、バスト時は0。
	ScoreAttempts int
	// ScoreDate はバスト時に台帳へ書き込む日付。バスト時のみ使用する。
	ScoreDate time.Time
}

// GameWithUser はゲームとオーナーのユーザー名を結合した読み取り用構造体。
type GameWithUser struct {
	model.Game
	UserName string
}

// ReminderTarget はリマインダー送信対象の未終了ゲームを表す。
type ReminderTarget struct {
	GameID   string
	UserName string
	Email    string
}

// GameRepository はゲームデータの永続化インターフェース。
type GameRepository interface {
	// FindByID は指定IDのゲームを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Game, error)

	// Create はゲームを作成する。
	Create(ctx context.Context, game *model.Game) error

	// DeleteByID は指定IDのゲームを物理削除する。履歴はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// ApplyPush はプッシュによる全変更を1つのトランザクションで適用する。
	// ゲーム行をFOR UPDATEでロックし、game_overとattemptsを再確認してから
	// 履歴追記・ゲーム更新・last_push_at更新・台帳更新を行う。
	// 再確認に失敗した場合はErrGameNotFound / ErrGameAlreadyOver / ErrPushConflictを返す。
	ApplyPush(ctx context.Context, params ApplyPushParams) error

	// ListHistory はゲームのプッシュ履歴を時系列順で返す。
	ListHistory(ctx context.Context, gameID string) ([]time.Time, error)

	// ListActiveByUserID は指定ユーザーの未終了ゲームを作成順で返す。
	ListActiveByUserID(ctx context.Context, userID string) ([]GameWithUser, error)

	// ListFinishedByAttempts は終了済みゲームをattempts降順で返す。
	// limitが0以下の場合は全件を返す。
	ListFinishedByAttempts(ctx context.Context, limit int) ([]GameWithUser, error)

	// FinishedStats は終了済みゲームの件数とattemptsの合計を返す。
	FinishedStats(ctx context.Context) (count int, totalAttempts int, err error)

	// ListActiveWithOwnerEmail はメールアドレス登録済みユーザーの未終了ゲームを返す。
	// リマインダーワーカー用。
	ListActiveWithOwnerEmail(ctx context.Context) ([]ReminderTarget, error)
}

// ScoreWithUser はスコア台帳とユーザー名を結合した読み取り用構造体。
type ScoreWithUser struct {
	model.Score
	UserName string
}

// ScoreRepository はスコア台帳の読み取りインターフェース。
// 台帳への書き込みはゲームのトランザクション（ApplyPush）と
// ユーザー登録（CreateWithScore）に統合されている。
type ScoreRepository interface {
	// FindByUserID は指定ユーザーの台帳を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Score, error)

	// ListByAttemptsDesc は全ユーザーの台帳をattempts降順で返す。ランキング用。
	ListByAttemptsDesc(ctx context.Context) ([]ScoreWithUser, error)
}
