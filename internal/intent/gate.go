package intent

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"atlas/internal/retry"
)

// DefaultMaxAttempts bounds classifier round-trips per message.
const DefaultMaxAttempts = 2

// Classifier turns a free-text message into untrusted intent JSON.
type Classifier interface {
	Classify(ctx context.Context, message string) (string, error)
}

// Result is the outcome of a classification. Degraded marks the placeholder
// fallback; callers must then leave conversation state untouched.
type Result struct {
	Intents  []Intent
	Degraded bool
	Attempts int
}

// Gate validates classifier output and retries bad responses.
type Gate struct {
	classifier Classifier
	policy     retry.Policy
	logger     *zap.Logger
}

// NewGate builds a Gate. maxAttempts < 1 falls back to DefaultMaxAttempts.
func NewGate(classifier Classifier, maxAttempts int, logger *zap.Logger) *Gate {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Gate{
		classifier: classifier,
		policy: retry.Policy{
			MaxAttempts: maxAttempts,
			Retryable: func(err error) bool {
				return !errors.Is(err, context.Canceled)
			},
		},
		logger: logger,
	}
}

// Classify returns validated intents, or the placeholder once every attempt
// has failed. An error is returned only when ctx ends.
func (g *Gate) Classify(ctx context.Context, message string) (Result, error) {
	var res Result
	err := g.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		res.Attempts = attempt
		text, err := g.classifier.Classify(ctx, message)
		if err != nil {
			g.logger.Warn("classifier call failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		intents, err := Parse(text)
		if err != nil {
			g.logger.Warn("classifier output rejected",
				zap.Int("attempt", attempt), zap.String("raw", text), zap.Error(err))
			return err
		}
		res.Intents = intents
		return nil
	})
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}

	g.logger.Warn("intent classification exhausted; degrading", zap.Int("attempts", res.Attempts), zap.Error(err))
	return Result{Intents: Placeholder(), Degraded: true, Attempts: res.Attempts}, nil
}
