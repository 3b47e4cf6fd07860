// Package reminder は未終了ゲームのリマインダー通知ジョブを提供する。
// 通知の配送そのものはSenderコラボレータに委譲し、
// このジョブは対象の抽出とメッセージの組み立てのみを担当する。
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/pushluck/internal/repository"
)

// Message は1通のリマインダー通知を表す。
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender はリマインダーの配送インターフェース。
// 配送の仕組み（メール、webhookなど）はホスティング環境が提供する。
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender は配送の代わりにログ出力のみを行うSender実装。
// 配送基盤が構成されていない環境でのデフォルト。
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender はLogSenderを生成する。
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send はリマインダー内容をログに記録する。
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("リマインダーを記録しました（配送は未構成）",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// TargetLister はリマインダー対象の未終了ゲームを列挙するインターフェース。
type TargetLister interface {
	ListActiveWithOwnerEmail(ctx context.Context) ([]repository.ReminderTarget, error)
}

// Job は未終了ゲームのオーナーへのリマインダージョブ。
// 定期実行のバッチとして設計されており、1件の送信失敗が他を妨げない。
type Job struct {
	games  TargetLister
	sender Sender
	logger *slog.Logger
}

// NewJob は新しいJobを生成する。
func NewJob(games TargetLister, sender Sender, logger *slog.Logger) *Job {
	return &Job{
		games:  games,
		sender: sender,
		logger: logger,
	}
}

// Run はメールアドレス登録済みユーザーの未終了ゲームごとに
// リマインダーを1通ずつ組み立ててSenderに渡す。
func (j *Job) Run(ctx context.Context) error {
	targets, err := j.games.ListActiveWithOwnerEmail(ctx)
	if err != nil {
		return fmt.Errorf("リマインダー対象の取得に失敗しました: %w", err)
	}

	if len(targets) == 0 {
		j.logger.Info("リマインダー対象の未終了ゲームはありません")
		return nil
	}

	sent := 0
	for _, target := range targets {
		msg := Message{
			To:      target.Email,
			Subject: "未終了のゲームがあります",
			Body: fmt.Sprintf(
				"%sさん、やりかけのゲームがあります。ゲーム %s で運試しを続けませんか？",
				target.UserName, target.GameID,
			),
		}

		if err := j.sender.Send(ctx, msg); err != nil {
			j.logger.Error("リマインダーの送信に失敗しました",
				slog.String("game_id", target.GameID),
				slog.String("error", err.Error()),
			)
			continue
		}
		sent++
	}

	j.logger.Info("リマインダージョブが完了しました",
		slog.Int("targets", len(targets)),
		slog.Int("sent", sent),
	)

	return nil
}

// Start は指定間隔でRunを繰り返す。コンテキストがキャンセルされるまでブロックする。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("リマインダーワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("リマインダーワーカーを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("リマインダージョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
