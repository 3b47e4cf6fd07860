// Package model はドメインモデルを定義する。
package model

import "time"

// User はゲームのプレイヤーを表す。
// Nameは全ユーザー間で一意。Emailはリマインダー通知用の任意項目。
type User struct {
	ID         string
	Name       string
	Email      string
	LastPushAt *time.Time // 最後にプッシュした日時。未プッシュの場合はnil。
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanPush はクールダウン期間が経過しているかを判定する。
// cooldownが0以下の場合はクールダウン無効として常にtrueを返す。
func (u *User) CanPush(cooldown time.Duration, now time.Time) bool {
	if cooldown <= 0 {
		return true
	}
	if u.LastPushAt == nil {
		return true
	}
	return u.LastPushAt.Add(cooldown).Before(now)
}
