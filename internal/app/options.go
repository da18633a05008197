package app

import (
	"time"

	"contest-scoring-service/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Metrics receives operational signals from the use cases.
type Metrics interface {
	ParticipantScored(category domain.Category, points int)
	KeyUpdated(category domain.Category)
	ObserveOperation(operation string, err error, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ParticipantScored(domain.Category, int) {}
func (nopMetrics) KeyUpdated(domain.Category) {}
func (nopMetrics) ObserveOperation(string, error, time.Duration) {}

// Option customizes AnswerKeyStore and ContestService.
type Option func(*options)

type options struct {
	now             func() time.Time
	newID           func() string
	log             logrus.FieldLogger
	metrics         Metrics
	historyLimit    int
	reportSize      int
	recognitionSize int
}

// DefaultHistoryLimit is the audit log page size when callers pass no limit.
const DefaultHistoryLimit = 50

func defaultOptions() options {
	return options{
		now:             time.Now,
		newID:           func() string { return uuid.NewString() },
		log:             logrus.StandardLogger(),
		metrics:         nopMetrics{},
		historyLimit:    DefaultHistoryLimit,
		reportSize:      DefaultReportSize,
		recognitionSize: DefaultRecognitionSize,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithIDGenerator replaces the uuid generator of audit events.
func WithIDGenerator(newID func() string) Option { return func(o *options) { o.newID = newID } }

func WithLogger(log logrus.FieldLogger) Option { return func(o *options) { o.log = log } }

func WithMetrics(m Metrics) Option { return func(o *options) { o.metrics = m } }

func WithHistoryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historyLimit = n
		}
	}
}

func WithReportSizes(top, recognitions int) Option {
	return func(o *options) {
		if top > 0 {
			o.reportSize = top
		}
		if recognitions > 0 {
			o.recognitionSize = recognitions
		}
	}
}
