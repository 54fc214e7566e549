package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mastery"

// Recorder holds the engine and HTTP instruments.
type Recorder struct {
	attemptsFolded     *prometheus.CounterVec
	adjustments        *prometheus.CounterVec
	masteryTransitions *prometheus.CounterVec
	reviewInterval     prometheus.Histogram
	questionsGenerated *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewRecorder registers all instruments on reg, which Handler later serves.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		attemptsFolded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_folded_total",
				Help:      "Total number of graded attempts folded into performance records",
			},
			[]string{"subject"},
		),
		adjustments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "difficulty_adjustments_total",
				Help:      "Total number of difficulty decisions by direction",
			},
			[]string{"direction"},
		),
		masteryTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mastery_transitions_total",
				Help:      "Total number of mastery level changes",
			},
			[]string{"from", "to"},
		),
		reviewInterval: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "review_interval_days",
				Help:      "Scheduled spaced-repetition intervals in days",
				Buckets:   []float64{1, 2, 3, 5, 7, 14, 30, 60, 90, 180},
			},
		),
		questionsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "questions_generated_total",
				Help:      "Total number of question generation tasks by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Time spent serving HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		gatherer: reg,
	}
}

// ObserveFoldIn records one folded attempt and the decisions it produced.
func (r *Recorder) ObserveFoldIn(
	subject string,
	adj domain.DifficultyAdjustment,
	before, after domain.MasteryLevel,
	intervalDays int,
) {
	r.attemptsFolded.WithLabelValues(subject).Inc()
	r.adjustments.WithLabelValues(string(adj.Direction())).Inc()
	if before != after {
		r.masteryTransitions.WithLabelValues(string(before), string(after)).Inc()
	}
	r.reviewInterval.Observe(float64(intervalDays))
}

// ObserveQuestionTask records the outcome of a question generation task.
func (r *Recorder) ObserveQuestionTask(err error) {
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	r.questionsGenerated.WithLabelValues(outcome).Inc()
}

// Middleware records request latency labelled by chi route pattern, so
// learner IDs in paths do not explode label cardinality.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.requestDuration.
			WithLabelValues(req.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registered instruments in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
