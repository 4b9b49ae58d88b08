package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики потоков и этапов. Экспортируются через /metrics сервиса.
var (
	// FlowsStarted — количество принятых потоков по идентификатору потока.
	FlowsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoeda_flows_started_total",
		Help: "Total flow executions started, by flow id",
	}, []string{"flow"})

	// FlowsFinished — завершённые потоки по терминальному состоянию.
	FlowsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoeda_flows_finished_total",
		Help: "Total flow executions finished, by terminal state",
	}, []string{"flow", "state"})

	// StageInvocations — вызовы сервисов этапов по статусу результата.
	StageInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoeda_stage_invocations_total",
		Help: "Total stage service invocations, by stage and result status",
	}, []string{"stage", "status"})

	// StageDuration — длительность вызовов этапов.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autoeda_stage_duration_seconds",
		Help:    "Stage service invocation duration",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"stage"})

	// ResolutionFailures — отказы разрешения параметров по категории.
	ResolutionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoeda_resolution_failures_total",
		Help: "Parameter resolution failures, by kind",
	}, []string{"kind"})
)
