package decoder

import (
	"log/slog"
	"strings"
)

// StreamingDecoder persists its prefix trie across successive calls to
// Decode, so a long utterance can be fed in chunks as audio arrives. It
// additionally tracks word-level time offsets, which the one-shot decoder
// does not.
type StreamingDecoder struct {
	vocab  *Vocabulary
	cfg    Config
	scorer Scorer
	logger *slog.Logger

	root     *PathTrie
	prefixes []*PathTrie

	// prevTimeOffset is the running frame-count carried across Reset calls
	// when keepOffset is requested; timeOffset is the count consumed by all
	// Decode calls since the last Reset (each Decode adds its chunk length;
	// Reset folds it into prevTimeOffset or drops it, then zeroes it).
	prevTimeOffset int
	timeOffset     int

	wordlist     []WordTimestamp
	prevWordlist []WordTimestamp
}

// StreamingOption configures NewStreamingDecoder.
type StreamingOption func(*StreamingDecoder)

// WithStreamingLogger attaches a structured logger reporting session resets
// — a coarse lifecycle event, never the per-frame hot path.
func WithStreamingLogger(logger *slog.Logger) StreamingOption {
	return func(d *StreamingDecoder) { d.logger = logger }
}

// NewStreamingDecoder constructs a streaming decoder against vocab and cfg,
// using whatever blank and word-end conventions vocab carries (the streaming
// convention is BlankIsLastSymbol / WordEndIsSpace). scorer may be nil.
func NewStreamingDecoder(vocab *Vocabulary, cfg Config, scorer Scorer, opts ...StreamingOption) *StreamingDecoder {
	d := &StreamingDecoder{vocab: vocab, cfg: cfg, scorer: scorer}
	for _, opt := range opts {
		opt(d)
	}
	d.Reset(false, false)
	return d
}

// Decode advances the persisted trie through probs and returns the current
// top-K ranking. Unlike DecodeOne, no final-word rescoring happens: the
// trailing word of an in-progress prefix is left unscored since it may still
// be extended by the next chunk.
func (d *StreamingDecoder) Decode(probs [][]float64) ([]Hypothesis, error) {
	if err := validateFrames(probs, d.vocab); err != nil {
		return nil, err
	}

	d.prefixes = runFrames(d.root, d.prefixes, probs, d.vocab, d.cfg, d.scorer, d.prevTimeOffset+d.timeOffset, false)
	d.timeOffset += len(probs)

	sortPrefixes(d.prefixes)
	k := d.cfg.BeamSize
	if k > len(d.prefixes) {
		k = len(d.prefixes)
	}
	top := d.prefixes[:k]

	hyps := make([]Hypothesis, 0, len(top))
	for _, p := range top {
		symbols, _ := p.GetPathVec(d.vocab)
		text := renderSymbols(symbols, d.vocab)
		hyps = append(hyps, Hypothesis{Score: p.score, Text: text, ApproxCTCScore: p.score})
	}

	if len(top) > 0 {
		d.updateWordlist(top[0])
	}
	return hyps, nil
}

// updateWordlist rebuilds the word-timestamp list from the best-ranked
// prefix: its full symbol path is rendered and split on spaces, paired off
// against the trailing (start, end) offsets get_path_vec produces — one
// pair per word, in order.
func (d *StreamingDecoder) updateWordlist(best *PathTrie) {
	symbols, timestamps := best.GetPathVec(d.vocab)
	text := renderSymbols(symbols, d.vocab)
	if text == "" {
		d.wordlist = nil
		return
	}
	words := strings.Fields(text)
	wl := make([]WordTimestamp, 0, len(words))
	for i, w := range words {
		start, end := 0, 0
		if 2*i < len(timestamps) {
			start = timestamps[2*i]
		}
		if 2*i+1 < len(timestamps) {
			end = timestamps[2*i+1]
		}
		wl = append(wl, WordTimestamp{Word: w, StartFrame: start, EndFrame: end})
	}
	d.wordlist = wl
}

// WordTimestamps returns previously-retained words (from a Reset that kept
// them) followed by the words emitted since.
func (d *StreamingDecoder) WordTimestamps() []WordTimestamp {
	out := make([]WordTimestamp, 0, len(d.prevWordlist)+len(d.wordlist))
	out = append(out, d.prevWordlist...)
	out = append(out, d.wordlist...)
	return out
}

// Reset rebuilds the trie to a fresh, empty root.
//
// keepOffset carries the cumulative frame count forward so that timestamps
// in the next session continue the same timeline instead of restarting at
// zero; this implementation's chosen semantics (spec.md §9, open question
// (c)) is that prevTimeOffset accumulates the *entire* elapsed frame count
// of the session just ended (prevTimeOffset + timeOffset, i.e. however many
// frames Decode consumed in total since the last Reset), not just the last
// chunk. That matches the field's purpose — a running clock — and means
// repeated keepOffset=true Resets without any intervening Decode calls are
// idempotent (timeOffset is 0, so nothing is added).
//
// keepWords appends the session's word list (in order) to the carried
// history returned by WordTimestamps; otherwise that history is dropped.
func (d *StreamingDecoder) Reset(keepOffset, keepWords bool) {
	if d.logger != nil {
		d.logger.Debug("streaming decoder reset", "keep_offset", keepOffset, "keep_words", keepWords, "prev_time_offset", d.prevTimeOffset, "time_offset", d.timeOffset)
	}

	root := NewRoot()
	attachScorerDictionary(root, d.scorer)
	d.root = root
	d.prefixes = []*PathTrie{root}

	if keepOffset {
		d.prevTimeOffset += d.timeOffset
	} else {
		d.prevTimeOffset = 0
	}
	d.timeOffset = 0

	if keepWords {
		d.prevWordlist = append(d.prevWordlist, d.wordlist...)
	} else {
		d.prevWordlist = nil
	}
	d.wordlist = nil
}
