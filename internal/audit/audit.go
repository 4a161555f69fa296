// Package audit records admin mutations to an append-only log.
//
// Record never returns an error and never panics: a failed write is logged,
// counted, and dropped, so an audit problem can not fail the mutation that
// triggered it. Each entry is written once with no retry.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/portfolio-backend/internal/domain"
)

// MaxUserAgentLength caps the stored user-agent, in characters.
const MaxUserAgentLength = 500

// writeTimeout bounds one append.
const writeTimeout = 5 * time.Second

var errMissingFields = errors.New("audit: user email, action and resource type are required")

var writeFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Audit entries that could not be persisted.",
	},
	[]string{"resource_type"},
)

func init() {
	prometheus.MustRegister(writeFailures)
}

// Appender persists one entry. Implementations only ever insert.
type Appender interface {
	AppendAudit(ctx context.Context, e *domain.AuditLog) error
}

// AppenderFunc adapts a function to Appender.
type AppenderFunc func(ctx context.Context, e *domain.AuditLog) error

// AppendAudit calls f.
func (f AppenderFunc) AppendAudit(ctx context.Context, e *domain.AuditLog) error { return f(ctx, e) }

// Params describes one mutation. UserEmail, Action and ResourceType are
// required; the rest may be left zero. Request, when set, supplies the client
// IP and user-agent.
type Params struct {
	UserEmail    string
	UserID       *string
	Action       domain.AuditAction
	ResourceType domain.ResourceType
	ResourceID   *string
	Details      any
	Request      *http.Request
}

// Logger writes audit entries through an Appender.
type Logger struct {
	sink  Appender
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

// New returns a Logger that persists through sink and reports failures on
// lg. A nil lg uses the global logger.
func New(sink Appender, lg *zerolog.Logger) *Logger {
	l := &Logger{sink: sink, log: log.Logger, now: time.Now, newID: uuid.NewString}
	if lg != nil {
		l.log = *lg
	}
	return l
}

// Record builds the entry for p and appends it once. Failures are logged to
// the operational logger and swallowed.
func (l *Logger) Record(ctx context.Context, p Params) {
	if l == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			l.fail(p, fmt.Errorf("audit: panic: %v", rec))
		}
	}()

	if p.UserEmail == "" || !p.Action.Valid() || !p.ResourceType.Valid() {
		l.fail(p, errMissingFields)
		return
	}
	if l.sink == nil {
		l.fail(p, errors.New("audit: no appender configured"))
		return
	}

	e := l.Build(p)

	// The mutation already happened; finish the write even if the request
	// is cancelled meanwhile.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := l.sink.AppendAudit(wctx, e); err != nil {
		l.fail(p, err)
	}
}

// Build returns the entry Record would persist for p.
func (l *Logger) Build(p Params) *domain.AuditLog {
	e := &domain.AuditLog{
		ID:           l.newID(),
		UserEmail:    p.UserEmail,
		UserID:       nonEmpty(p.UserID),
		Action:       p.Action,
		ResourceType: p.ResourceType,
		ResourceID:   nonEmpty(p.ResourceID),
		CreatedAt:    l.now().UTC(),
	}
	if p.Details != nil {
		if b, err := json.Marshal(p.Details); err == nil {
			s := string(b)
			e.Details = &s
		} else {
			l.log.Warn().Err(err).Str("resource_type", string(p.ResourceType)).Msg("audit details not serializable; dropped")
		}
	}
	if p.Request != nil {
		e.IPAddress = ClientIP(p.Request.Header)
		e.UserAgent = UserAgent(p.Request.Header)
	}
	return e
}

func (l *Logger) fail(p Params, err error) {
	writeFailures.WithLabelValues(string(p.ResourceType)).Inc()
	ev := l.log.Error().Err(err).
		Str("action", string(p.Action)).
		Str("resource_type", string(p.ResourceType))
	if p.ResourceID != nil {
		ev = ev.Str("resource_id", *p.ResourceID)
	}
	ev.Msg("audit log write failed")
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
