// Package model はドメインモデルを定義する。
package model

import "time"

// Game は1回のプッシュ・ユア・ラックのラン（セッション）を表す。
// 1人のユーザーに属し、game_overは一度trueになると二度とfalseに戻らない。
type Game struct {
	ID        string
	UserID    string
	Attempts  int  // 成功したプッシュの回数。0以上。
	GameOver  bool // バストでtrueになる。単調: false→true。
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Push はゲームへの1回のプッシュ操作の記録を表す。
// ゲームごとに追記専用で、挿入順がそのまま時系列順になる。
type Push struct {
	ID       int64
	GameID   string
	PushedAt time.Time
}
