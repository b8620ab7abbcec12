// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"time"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	stepExecutionsCounter       *prometheus.CounterVec
	gatewayErrorsCounter        *prometheus.CounterVec
	policyFallbacksCounter      prometheus.Counter
	recordsExtractedCounter     *prometheus.CounterVec
	stepExecutionDurationMetric prometheus.Histogram
	runnerPassDurationMetric    prometheus.Histogram
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		stepExecutionsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "step_executions_total",
				Help: "Total number of step executions by committed status.",
			},
			[]string{"status"},
		)

		gatewayErrorsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_errors_total",
				Help: "Total number of verification gateway failures by check type.",
			},
			[]string{"check"},
		)

		policyFallbacksCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "policy_fallbacks_total",
				Help: "Total number of fallback decisions substituted for policy failures.",
			},
		)

		recordsExtractedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_extracted_total",
				Help: "Total number of structured records merged into step instances by form kind.",
			},
			[]string{"kind"},
		)

		stepExecutionDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "step_execution_duration_seconds",
				Help:    "Duration of full step executions in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		runnerPassDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "runner_pass_duration_seconds",
				Help:    "Duration of one workflow runner pass in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		prometheus.MustRegister(
			stepExecutionsCounter,
			gatewayErrorsCounter,
			policyFallbacksCounter,
			recordsExtractedCounter,
			stepExecutionDurationMetric,
			runnerPassDurationMetric,
		)

		// Ensure counter vectors are visible at /metrics before first increment.
		for _, status := range []domain.StepStatus{
			domain.StepNotStarted,
			domain.StepInProgress,
			domain.StepCompleted,
			domain.StepFailed,
			domain.StepRequiresReview,
		} {
			stepExecutionsCounter.WithLabelValues(string(status))
		}
	})
}

func IncStepExecution(status domain.StepStatus) {
	Init()
	stepExecutionsCounter.WithLabelValues(string(status)).Inc()
}

func IncGatewayError(check string) {
	Init()
	gatewayErrorsCounter.WithLabelValues(check).Inc()
}

func IncPolicyFallback() {
	Init()
	policyFallbacksCounter.Inc()
}

func IncRecordsExtracted(kind domain.FormKind, n int) {
	Init()
	recordsExtractedCounter.WithLabelValues(string(kind)).Add(float64(n))
}

func ObserveStepExecutionDuration(d time.Duration) {
	Init()
	stepExecutionDurationMetric.Observe(d.Seconds())
}

func ObserveRunnerPassDuration(d time.Duration) {
	Init()
	runnerPassDurationMetric.Observe(d.Seconds())
}
