// Package model はドメインモデルを定義する。
package model

import "time"

// Score はユーザーごとのスコア台帳を表す。
// ユーザー登録時に1行作成され、以後は同じ行を更新し続ける。
// アクティブなゲームの進行中はAttemptsが現在の連続成功回数を反映し、
// バストで0にリセットされてScoreDateがその日の日付になる。
type Score struct {
	UserID    string
	Attempts  int
	ScoreDate time.Time
}
