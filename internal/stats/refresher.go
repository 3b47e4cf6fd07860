package stats

import (
	"context"
	"fmt"
	"log/slog"
)

// FinishedStatsSource は終了済みゲームの集計値を提供するインターフェース。
type FinishedStatsSource interface {
	// FinishedStats は終了済みゲームの件数とattemptsの合計を返す。
	FinishedStats(ctx context.Context) (count int, totalAttempts int, err error)
}

// Refresher は平均試行回数の統計を再計算してキャッシュに書き込む。
type Refresher struct {
	source FinishedStatsSource
	cache  Cache
	logger *slog.Logger
}

// NewRefresher はRefresherの新しいインスタンスを生成する。
func NewRefresher(source FinishedStatsSource, cache Cache, logger *slog.Logger) *Refresher {
	return &Refresher{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

// Refresh は終了済み全ゲームの平均attemptsを計算してキャッシュを上書きする。
// 終了済みゲームが1件もない場合は何もしない（エラーではない）。
func (r *Refresher) Refresh(ctx context.Context) error {
	count, total, err := r.source.FinishedStats(ctx)
	if err != nil {
		return fmt.Errorf("統計の集計に失敗しました: %w", err)
	}

	if count == 0 {
		// 終了済みゲームが現れるまでキャッシュには触れない
		return nil
	}

	average := float64(total) / float64(count)
	value := fmt.Sprintf("平均ストリークスコアは%.2fです", average)

	if err := r.cache.Write(ctx, value); err != nil {
		return fmt.Errorf("統計キャッシュの書き込みに失敗しました: %w", err)
	}

	r.logger.Info("統計キャッシュを更新しました",
		slog.Int("finished_games", count),
		slog.Float64("average_attempts", average),
	)

	return nil
}
