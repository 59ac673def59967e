package decoder

import (
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// BatchOption configures DecodeBatch.
type BatchOption func(*batchOptions)

type batchOptions struct {
	logger *slog.Logger
}

// WithLogger attaches a structured logger used to report per-utterance
// failures as they occur. Never called on the per-frame hot path — only at
// task-failure boundaries.
func WithLogger(logger *slog.Logger) BatchOption {
	return func(o *batchOptions) { o.logger = logger }
}

// DecodeBatch runs DecodeOne over each utterance in probsBatch concurrently,
// up to cfg.NumProcesses at a time, and returns results in input order. A
// failure decoding one utterance is captured in that utterance's
// BatchResult.Err and never aborts the others (spec.md §7).
func DecodeBatch(probsBatch [][][]float64, vocab *Vocabulary, cfg Config, scorer Scorer, opts ...BatchOption) ([]BatchResult, error) {
	var o batchOptions
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.NumProcesses <= 0 {
		return nil, errInvalidParameterf("num processes must be positive, got %d", cfg.NumProcesses)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(probsBatch))

	var g errgroup.Group
	g.SetLimit(cfg.NumProcesses)

	for i, probs := range probsBatch {
		i, probs := i, probs
		g.Go(func() error {
			hyps, err := DecodeOne(probs, vocab, cfg, scorer)
			if err != nil {
				if o.logger != nil {
					o.logger.Error("batch utterance failed", "index", i, "error", err)
				}
				results[i] = BatchResult{Err: err}
				return nil
			}
			results[i] = BatchResult{Hypotheses: hyps}
			return nil
		})
	}

	// Every task above returns nil regardless of its own decode error — a
	// per-utterance failure is captured in results, not propagated here.
	_ = g.Wait()
	return results, nil
}
