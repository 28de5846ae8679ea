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
// ハンドラー・キャッシュ・ワーカーの各層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordCacheHit(resource string)
	RecordCacheMiss(resource string)
	RecordGitHubFetchSuccess()
	RecordGitHubFetchFailure(reason string)
	RecordNewsImported(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	cacheHit       *prometheus.CounterVec
	cacheMiss      *prometheus.CounterVec
	githubSuccess  prometheus.Counter
	githubFail     *prometheus.CounterVec
	newsImported   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zemon_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zemon_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zemon_cache_hit_total",
			Help: "リソース種別ごとのキャッシュヒット数",
		}, []string{"resource"}),
		cacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zemon_cache_miss_total",
			Help: "リソース種別ごとのキャッシュミス数",
		}, []string{"resource"}),
		githubSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zemon_github_fetch_success_total",
			Help: "GitHubメタデータ取得成功の合計数",
		}),
		githubFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zemon_github_fetch_fail_total",
			Help: "GitHubメタデータ取得失敗の合計数",
		}, []string{"reason"}),
		newsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zemon_news_imported_total",
			Help: "RSSフィードから取り込まれたニュース記事の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.cacheHit,
		c.cacheMiss,
		c.githubSuccess,
		c.githubFail,
		c.newsImported,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordCacheHit はキャッシュヒットを記録する。
// resourceにはキャッシュキーの先頭セグメント（repos, eventsなど）を指定する。
func (c *Collector) RecordCacheHit(resource string) {
	c.cacheHit.WithLabelValues(resource).Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss(resource string) {
	c.cacheMiss.WithLabelValues(resource).Inc()
}

// RecordGitHubFetchSuccess はGitHubメタデータ取得成功を記録する。
func (c *Collector) RecordGitHubFetchSuccess() {
	c.githubSuccess.Inc()
}

// RecordGitHubFetchFailure はGitHubメタデータ取得失敗を記録する。
func (c *Collector) RecordGitHubFetchFailure(reason string) {
	c.githubFail.WithLabelValues(reason).Inc()
}

// RecordNewsImported は取り込まれたニュース記事数を記録する。
func (c *Collector) RecordNewsImported(count int) {
	c.newsImported.Add(float64(count))
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
