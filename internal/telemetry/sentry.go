// Package telemetry wraps Sentry tracing and error reporting for the
// answer, exercise and ingestion paths.
package telemetry

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/getsentry/sentry-go"
)

const (
	serviceName  = "studyrag"
	flushTimeout = 5 * time.Second
)

type Config struct {
	DSN         string
	Environment string
	Release     string
	// Zero picks 1.0 in development and 0.1 elsewhere.
	TracesSampleRate float64
	Debug            bool
}

// Init starts the Sentry client and returns a flush func for shutdown.
// Without a DSN it does nothing. A client that fails to start is logged
// and the daemon keeps running without tracing.
func Init(cfg Config) func() {
	if cfg.DSN == "" {
		return func() {}
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 0.1
		if cfg.Environment == "development" {
			cfg.TracesSampleRate = 1.0
		}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       serviceName,
		Debug:            cfg.Debug,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		TracesSampler: func(ctx sentry.SamplingContext) float64 {
			if ctx.Span.Name == "GET /health" {
				return 0
			}
			if ctx.Parent != nil {
				if ctx.Parent.Sampled.Bool() {
					return 1
				}
				return 0
			}
			return cfg.TracesSampleRate
		},
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if hint != nil && hint.OriginalException != nil && !Reportable(hint.OriginalException) {
				return nil
			}
			return event
		},
	})
	if err != nil {
		log.Printf("sentry: disabled, client failed to start: %v", err)
		return func() {}
	}

	log.Printf("sentry: tracing on (environment: %s, sample rate: %.2f)", cfg.Environment, cfg.TracesSampleRate)
	return func() { sentry.Flush(flushTimeout) }
}

// Reportable is false for failures caused by the caller rather than the
// service: bad input, unknown ids, an empty knowledge base, oversize
// uploads and cancelled requests.
func Reportable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return true
	}
	switch de.Code {
	case domain.ErrCodeValidation, domain.ErrCodeNotFound, domain.ErrCodeUnauthorized,
		domain.ErrCodeUnsupportedFormat, domain.ErrCodeEmptyIndex, domain.ErrCodePayloadTooLarge:
		return false
	}
	return true
}

// SpanAttributes become span tags. Empty fields are skipped.
type SpanAttributes struct {
	Intent     string
	DocumentID string
	SessionID  string
	Operation  string
}

// Span is nil-safe so callers need not check whether tracing is on.
type Span struct {
	inner *sentry.Span
}

func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span failed and reports err when it is Reportable.
func (s *Span) SetError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	if !Reportable(err) {
		s.inner.Status = sentry.SpanStatusInvalidArgument
		return
	}
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

// StartSpan opens a child of the span already in ctx, or a new
// transaction when there is none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	tags := map[string]string{
		"intent":      attrs.Intent,
		"document_id": attrs.DocumentID,
		"session_id":  attrs.SessionID,
	}
	for k, v := range tags {
		if v != "" {
			span.SetTag(k, v)
		}
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}
	return span.Context(), &Span{inner: span}
}

// CaptureError reports err on the request hub, or the global one.
func CaptureError(ctx context.Context, err error) {
	if !Reportable(err) {
		return
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

func AddBreadcrumb(ctx context.Context, category, message string) {
	crumb := &sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.AddBreadcrumb(crumb, nil)
		return
	}
	sentry.AddBreadcrumb(crumb)
}
