// Package suggest proposes resolution steps for a ticket query. It is an
// optional collaborator: every failure degrades to an empty list.
package suggest

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// MaxSteps caps how many steps are returned.
const MaxSteps = 5

// Suggester proposes short resolution steps for a free-text query.
type Suggester interface {
	SuggestResolutionSteps(ctx context.Context, query string) ([]string, error)
}

// Noop never suggests anything. It is used when no backend is configured.
type Noop struct{}

// SuggestResolutionSteps returns an empty list.
func (Noop) SuggestResolutionSteps(context.Context, string) ([]string, error) {
	return []string{}, nil
}

// Degrading bounds the inner suggester by timeout and turns every failure
// into an empty result with a warning log.
type Degrading struct {
	inner   Suggester
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDegrading wraps inner.
func NewDegrading(inner Suggester, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Degrading {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Degrading{inner: inner, timeout: timeout, logger: logger, metrics: metrics}
}

// SuggestResolutionSteps never returns an error.
func (d *Degrading) SuggestResolutionSteps(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	steps, err := d.inner.SuggestResolutionSteps(ctx, query)
	if err != nil {
		d.logger.Warn("suggestions unavailable", zap.Error(err))
		d.metrics.RecordSuggestionFailure()
		return []string{}, nil
	}
	return normalize(steps), nil
}

func normalize(steps []string) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == MaxSteps {
			break
		}
	}
	return out
}
