// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordPostCreated()
	RecordPostVisit()
	RecordCommentCreated()
	RecordContactReceived()
	RecordEmailSent()
	RecordEmailFailed()
	RecordWebhookEvent(outcome string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	postsCreated    prometheus.Counter
	postVisits      prometheus.Counter
	commentsCreated prometheus.Counter
	contactsRecv    prometheus.Counter
	emailsSent      prometheus.Counter
	emailsFailed    prometheus.Counter
	webhookEvents   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_posts_created_total",
			Help: "作成された記事の合計数",
		}),
		postVisits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_post_visits_total",
			Help: "記事閲覧の合計数",
		}),
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_comments_created_total",
			Help: "作成されたコメントの合計数",
		}),
		contactsRecv: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_contacts_received_total",
			Help: "受け付けたお問い合わせの合計数",
		}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_emails_sent_total",
			Help: "送信に成功した通知メールの合計数",
		}),
		emailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_emails_failed_total",
			Help: "送信に失敗した通知メールの合計数",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_webhook_events_total",
			Help: "処理結果別のWebhookイベント数",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.postsCreated,
		c.postVisits,
		c.commentsCreated,
		c.contactsRecv,
		c.emailsSent,
		c.emailsFailed,
		c.webhookEvents,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordPostCreated は記事の作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordPostVisit は記事の閲覧を記録する。
func (c *Collector) RecordPostVisit() {
	c.postVisits.Inc()
}

// RecordCommentCreated はコメントの作成を記録する。
func (c *Collector) RecordCommentCreated() {
	c.commentsCreated.Inc()
}

// RecordContactReceived はお問い合わせの受付を記録する。
func (c *Collector) RecordContactReceived() {
	c.contactsRecv.Inc()
}

// RecordEmailSent は通知メールの送信成功を記録する。
func (c *Collector) RecordEmailSent() {
	c.emailsSent.Inc()
}

// RecordEmailFailed は通知メールの送信失敗を記録する。
func (c *Collector) RecordEmailFailed() {
	c.emailsFailed.Inc()
}

// RecordWebhookEvent はWebhookイベントの処理結果を記録する。
func (c *Collector) RecordWebhookEvent(outcome string) {
	c.webhookEvents.WithLabelValues(outcome).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
