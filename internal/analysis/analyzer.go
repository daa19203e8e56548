package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"narrate/internal/logging"
	"narrate/internal/segments"
	"narrate/internal/services"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second
)

// Provider is the external analysis capability. Analyze may fail
// transiently; all failures are treated as retryable unless the provider
// wraps them with a non-retryable marker.
type Provider interface {
	Analyze(ctx context.Context, unit segments.Unit, contentRef string) (UnitAnalysis, error)
}

// Analyzer calls a provider per unit with bounded retry and a deterministic
// fallback once attempts are exhausted.
type Analyzer struct {
	provider Provider
	logger   *slog.Logger

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	failFast    bool
	sleeper     func(time.Duration)
}

// Option customizes the analyzer.
type Option func(*Analyzer)

// WithMaxAttempts overrides the retry attempt cap (defaults to 3).
func WithMaxAttempts(attempts int) Option {
	return func(a *Analyzer) {
		if attempts > 0 {
			a.maxAttempts = attempts
		}
	}
}

// WithBackoff overrides the retry backoff delays.
func WithBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(a *Analyzer) {
		if baseDelay > 0 {
			a.baseDelay = baseDelay
		}
		if maxDelay > 0 {
			a.maxDelay = maxDelay
		}
	}
}

// WithFailFast makes retry exhaustion abort the job instead of substituting
// a fallback analysis.
func WithFailFast(enabled bool) Option {
	return func(a *Analyzer) {
		a.failFast = enabled
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(a *Analyzer) {
		a.sleeper = sleeper
	}
}

// New constructs an analyzer around the supplied provider.
func New(provider Provider, logger *slog.Logger, opts ...Option) *Analyzer {
	analyzer := &Analyzer{
		provider:    provider,
		logger:      logging.NewComponentLogger(logger, "analysis"),
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(analyzer)
	}
	return analyzer
}

// Analyze produces the unit's analysis. Transient provider failures are
// retried with exponential backoff; on exhaustion a zero-confidence
// fallback is substituted so synthesis can proceed, unless fail-fast is
// enabled, in which case exhaustion surfaces as an analysis failure.
func (a *Analyzer) Analyze(ctx context.Context, unit segments.Unit, contentRef string) (UnitAnalysis, error) {
	if a.provider == nil {
		return UnitAnalysis{}, services.Wrap(services.ErrValidation, "analysis", "analyze", "provider not configured", nil)
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		result, err := a.provider.Analyze(ctx, unit, contentRef)
		if err == nil {
			result.UnitID = unit.ID
			return result, nil
		}
		lastErr = err

		a.logger.Warn("analysis attempt failed",
			logging.String(logging.FieldUnitID, unit.ID),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", a.maxAttempts),
			logging.Error(err),
		)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return UnitAnalysis{}, err
		}
		if attempt == a.maxAttempts {
			break
		}
		if err := a.sleep(ctx, a.backoffDelay(attempt)); err != nil {
			return UnitAnalysis{}, err
		}
	}

	if a.failFast {
		return UnitAnalysis{}, services.Wrap(
			services.ErrAnalysis,
			"analysis", "analyze",
			fmt.Sprintf("unit %s failed after %d attempts", unit.ID, a.maxAttempts),
			lastErr,
		)
	}

	a.logger.Warn("substituting fallback analysis",
		logging.String(logging.FieldUnitID, unit.ID),
		logging.Int("attempts", a.maxAttempts),
		logging.Error(lastErr),
	)
	return Fallback(unit), nil
}

// Fallback builds the deterministic degraded analysis for a unit whose
// retries were exhausted. Confidence zero marks it distinguishable.
func Fallback(unit segments.Unit) UnitAnalysis {
	return UnitAnalysis{
		UnitID:      unit.ID,
		Description: fmt.Sprintf("Content from %s could not be analyzed.", unit.Label()),
		Confidence:  0,
	}
}

// backoffDelay doubles from the base each attempt, capped at the max.
// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
func (a *Analyzer) backoffDelay(attempt int) time.Duration {
	delay := a.baseDelay
	for i := 1; i < attempt; i++ {
		if delay > a.maxDelay/2 {
			return a.maxDelay
		}
		delay *= 2
	}
	if delay > a.maxDelay {
		return a.maxDelay
	}
	return delay
}

func (a *Analyzer) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if a.sleeper != nil {
		a.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
