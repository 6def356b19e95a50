// Package observe provides application-wide observability primitives for
// Vocalis: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Vocalis metrics.
const meterName = "github.com/vocalis-app/vocalis"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// SpeechCheckDuration tracks speech-recognition round trips behind the
	// speech-check endpoint.
	SpeechCheckDuration metric.Float64Histogram

	// --- Counters ---

	// AttemptsScored counts scored pronunciation attempts. Use with attributes:
	//   attribute.String("level", ...), attribute.Bool("mastered", ...)
	AttemptsScored metric.Int64Counter

	// AchievementGrants counts newly granted achievements. Use with attribute:
	//   attribute.String("achievement_id", ...)
	AchievementGrants metric.Int64Counter

	// ScoreSubmissions counts accepted Time-Attack score submissions.
	ScoreSubmissions metric.Int64Counter

	// --- Gauges ---

	// ActivePracticeSessions tracks the number of live practice gateway
	// connections.
	ActivePracticeSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// recognizer round trips and request handling.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.SpeechCheckDuration, err = m.Float64Histogram("vocalis.speech_check.duration",
		metric.WithDescription("Latency of speech-recognition round trips."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.AttemptsScored, err = m.Int64Counter("vocalis.attempts.scored",
		metric.WithDescription("Total scored pronunciation attempts by level and mastery outcome."),
	); err != nil {
		return nil, err
	}
	if met.AchievementGrants, err = m.Int64Counter("vocalis.achievement.grants",
		metric.WithDescription("Total newly granted achievements by achievement ID."),
	); err != nil {
		return nil, err
	}
	if met.ScoreSubmissions, err = m.Int64Counter("vocalis.score.submissions",
		metric.WithDescription("Total accepted Time-Attack score submissions."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActivePracticeSessions, err = m.Int64UpDownCounter("vocalis.active_practice_sessions",
		metric.WithDescription("Number of live practice gateway connections."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("vocalis.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordAttempt is a convenience method that records a scored attempt with
// the standard attribute set.
func (m *Metrics) RecordAttempt(ctx context.Context, level string, mastered bool) {
	m.AttemptsScored.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("level", level),
			attribute.Bool("mastered", mastered),
		),
	)
}

// RecordGrant is a convenience method that records a granted achievement.
func (m *Metrics) RecordGrant(ctx context.Context, achievementID string) {
	m.AchievementGrants.Add(ctx, 1,
		metric.WithAttributes(attribute.String("achievement_id", achievementID)),
	)
}

// RecordScoreSubmission is a convenience method that records an accepted
// score submission.
func (m *Metrics) RecordScoreSubmission(ctx context.Context) {
	m.ScoreSubmissions.Add(ctx, 1)
}
