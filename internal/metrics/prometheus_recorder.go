package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "mailbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	taskDuration  *prom.HistogramVec
	stageResults  *prom.CounterVec
	taskOutcomes  *prom.CounterVec
	pages         prom.Counter
	uploads       *prom.CounterVec
	mails         *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of whole tasks (build, publish, mail...)",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		taskOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_outcomes_total",
			Help:      "Task outcomes by final status",
		}, []string{"task", "result"}),
		pages: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_rendered_total",
			Help:      "Pages rendered to HTML",
		}),
		uploads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "bucket_uploads_total",
			Help:      "Bucket uploads by result",
		}, []string{"result"}),
		mails: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "mails_sent_total",
			Help:      "Mail sends by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.stageDuration, pr.taskDuration, pr.stageResults, pr.taskOutcomes, pr.pages, pr.uploads, pr.mails)
	return pr
}

func resultOf(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncTaskOutcome(task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskOutcomes.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) IncPagesRendered(n int) {
	if p == nil {
		return
	}
	p.pages.Add(float64(n))
}

func (p *PrometheusRecorder) IncUpload(success bool) {
	if p == nil {
		return
	}
	p.uploads.WithLabelValues(resultOf(success)).Inc()
}

func (p *PrometheusRecorder) IncMail(success bool) {
	if p == nil {
		return
	}
	p.mails.WithLabelValues(resultOf(success)).Inc()
}
