package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 业务与 HTTP 指标，nil 接收者上的调用为空操作
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	tasks           *prometheus.CounterVec
	creditsConsumed prometheus.Counter
	intents         *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	rateFetches     *prometheus.CounterVec
}

// NewCollector 创建并注册指标
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prep_http_requests_total",
			Help: "HTTP 请求数",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prep_http_request_duration_seconds",
			Help:    "HTTP 请求耗时（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prep_tasks_total",
			Help: "按类型和结果统计的 AI 任务数",
		}, []string{"kind", "status"}),
		creditsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prep_credits_consumed_total",
			Help: "已扣减的额度",
		}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prep_payment_intents_total",
			Help: "按币种和状态统计的支付意向",
		}, []string{"currency", "status"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prep_llm_request_duration_seconds",
			Help:    "文本生成服务调用耗时（秒）",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}, []string{"result"}),
		rateFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prep_rate_fetch_total",
			Help: "汇率拉取结果",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.tasks,
		c.creditsConsumed,
		c.intents,
		c.providerLatency,
		c.rateFetches,
	)

	return c
}

// ObserveHTTP 记录一次 HTTP 请求
func (c *Collector) ObserveHTTP(method, path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordTask 记录任务结果
func (c *Collector) RecordTask(kind, status string) {
	if c == nil {
		return
	}
	c.tasks.WithLabelValues(kind, status).Inc()
}

// RecordCreditConsumed 记录一次额度扣减
func (c *Collector) RecordCreditConsumed() {
	if c == nil {
		return
	}
	c.creditsConsumed.Inc()
}

// RecordIntent 记录支付意向状态变化
func (c *Collector) RecordIntent(currency, status string) {
	if c == nil {
		return
	}
	c.intents.WithLabelValues(currency, status).Inc()
}

// ObserveProvider 记录文本生成服务调用
func (c *Collector) ObserveProvider(d time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.providerLatency.WithLabelValues(result).Observe(d.Seconds())
}

// RecordRateFetch 记录汇率拉取结果: feed, cache, fallback
func (c *Collector) RecordRateFetch(result string) {
	if c == nil {
		return
	}
	c.rateFetches.WithLabelValues(result).Inc()
}

// Handler Prometheus 抓取入口
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
