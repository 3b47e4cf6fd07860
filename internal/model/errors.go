// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, game, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeGameNotFound    = "GAME_NOT_FOUND"
	ErrCodeDuplicateUser   = "DUPLICATE_USER"
	ErrCodeGameAlreadyOver = "GAME_ALREADY_OVER"
	ErrCodePushNotAllowed  = "PUSH_NOT_ALLOWED"
	ErrCodePushConflict    = "PUSH_CONFLICT"
	ErrCodeValidation      = "VALIDATION_ERROR"
)

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(userName string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userName),
		Category: "game",
		Action:   "ユーザー名を確認するか、先にユーザー登録を行ってください。",
	}
}

// NewGameNotFoundError はゲーム未検出エラーを生成する。
func NewGameNotFoundError(gameID string) *APIError {
	return &APIError{
		Code:     ErrCodeGameNotFound,
		Message:  fmt.Sprintf("指定されたゲームが見つかりません: %s", gameID),
		Category: "game",
		Action:   "ゲームIDを確認してください。",
	}
}

// NewDuplicateUserError は同名ユーザーの二重登録エラーを生成する。
func NewDuplicateUserError(userName string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  fmt.Sprintf("その名前のユーザーは既に存在します: %s", userName),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewGameAlreadyOverError は終了済みゲームへの操作エラーを生成する。
func NewGameAlreadyOverError() *APIError {
	return &APIError{
		Code:     ErrCodeGameAlreadyOver,
		Message:  "このゲームは既に終了しています。",
		Category: "game",
		Action:   "新しいゲームを開始してください。",
	}
}

// NewPushNotAllowedError はクールダウン未経過エラーを生成する。
func NewPushNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodePushNotAllowed,
		Message:  "まだプッシュできません。クールダウン中です。",
		Category: "game",
		Action:   "しばらく待ってから再度プッシュしてください。",
	}
}

// NewPushConflictError は同時プッシュの競合エラーを生成する。
func NewPushConflictError() *APIError {
	return &APIError{
		Code:     ErrCodePushConflict,
		Message:  "別のプッシュと競合しました。",
		Category: "game",
		Action:   "最新のゲーム状態を取得してから再度お試しください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
