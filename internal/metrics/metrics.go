// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やミドルウェアから利用する。
type MetricsCollector interface {
	RecordGameCreated()
	RecordPush()
	RecordBust()
	RecordStreakLength(attempts int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	gamesCreated   prometheus.Counter
	pushes         prometheus.Counter
	busts          prometheus.Counter
	streakLength   prometheus.Histogram
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pushluck_games_created_total",
			Help: "作成されたゲームの合計数",
		}),
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pushluck_pushes_total",
			Help: "実行されたプッシュの合計数",
		}),
		busts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pushluck_busts_total",
			Help: "バストで終了したゲームの合計数",
		}),
		streakLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pushluck_streak_length",
			Help:    "終了したゲームの連続成功回数の分布",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pushluck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pushluck_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.gamesCreated,
		c.pushes,
		c.busts,
		c.streakLength,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordGameCreated はゲーム作成を記録する。
func (c *Collector) RecordGameCreated() {
	c.gamesCreated.Inc()
}

// RecordPush はプッシュ実行を記録する。
func (c *Collector) RecordPush() {
	c.pushes.Inc()
}

// RecordBust はバストを記録する。
func (c *Collector) RecordBust() {
	c.busts.Inc()
}

// RecordStreakLength は終了したゲームの連続成功回数を記録する。
func (c *Collector) RecordStreakLength(attempts int) {
	c.streakLength.Observe(float64(attempts))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
