package stats

import (
	"context"
	"log/slog"
	"time"
)

// defaultQueueBuffer は更新要求キューのデフォルトバッファサイズ。
const defaultQueueBuffer = 16

// Queue は統計更新のファイア・アンド・フォーゲットのタスクキュー。
// Enqueueはブロックせず、キューが満杯の場合は要求を破棄する。
// 破棄されても定期実行が次の機会に更新するため、結果整合でよい。
type Queue struct {
	refresher *Refresher
	logger    *slog.Logger
	tasks     chan struct{}
}

// NewQueue はQueueの新しいインスタンスを生成する。
// bufferが0以下の場合はデフォルト値16を使用する。
func NewQueue(refresher *Refresher, logger *slog.Logger, buffer int) *Queue {
	if buffer <= 0 {
		buffer = defaultQueueBuffer
	}
	return &Queue{
		refresher: refresher,
		logger:    logger,
		tasks:     make(chan struct{}, buffer),
	}
}

// Enqueue は統計更新を予約する。ブロックしない。
// キューが満杯の場合は要求を静かに破棄する。
func (q *Queue) Enqueue() {
	select {
	case q.tasks <- struct{}{}:
	default:
	}
}

// Start はキューの消費と定期更新のループを開始する。
// コンテキストがキャンセルされるまでブロックする。
// intervalが0以下の場合は定期更新を行わず、Enqueueされた要求のみを処理する。
func (q *Queue) Start(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	q.logger.Info("統計更新ワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("統計更新ワーカーを停止しました")
			return
		case <-q.tasks:
			q.runRefresh(ctx)
		case <-tick:
			q.runRefresh(ctx)
		}
	}
}

// runRefresh は1回の更新を実行する。失敗はログに記録するだけで伝播しない。
func (q *Queue) runRefresh(ctx context.Context) {
	if err := q.refresher.Refresh(ctx); err != nil {
		q.logger.Error("統計キャッシュの更新に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
