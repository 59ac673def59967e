package decoder

import (
	"math"
	"sort"
	"strings"

	"github.com/ieee0824/ctcbeam/internal/mathutil"
	"github.com/ieee0824/ctcbeam/lexicon"
)

// stepFrame advances every live prefix by one probability frame: pre-sort
// and compute the pruning floor (if a scorer is present), prune the symbol
// alphabet, expand each surviving (prefix, symbol) pair, then roll and
// truncate the beam to cfg.BeamSize. offset is the absolute frame index
// recorded on newly created nodes (streaming decode threads its running
// time offset through here; one-shot decode just passes the frame index).
// skipEmptyPrefix, when true, additionally requires prefix.character != ROOT
// before applying shallow-fusion scoring — the one-shot decoder's rule. The
// streaming decoder does not apply this extra guard (neither does the
// reference source's streaming variant).
func stepFrame(root *PathTrie, prefixes []*PathTrie, prob []float64, vocab *Vocabulary, cfg Config, scorer Scorer, offset int, skipEmptyPrefix bool) []*PathTrie {
	minCutoff := negInf
	full := false
	if scorer != nil {
		m := len(prefixes)
		if m > cfg.BeamSize {
			m = cfg.BeamSize
		}
		sortPrefixes(prefixes[:m])
		minCutoff = prefixes[m-1].score + math.Log(prob[vocab.BlankIndex()]) - math.Max(0, scorer.Beta())
		full = m == cfg.BeamSize
	}

	pruned := mathutil.GetPrunedLogProbs(prob, cfg.CutoffProb, cfg.CutoffTopN)

	limit := len(prefixes)
	if limit > cfg.BeamSize {
		limit = cfg.BeamSize
	}

	for _, cand := range pruned {
		c, logPc := cand.Index, cand.LogProb
		wordEnd := c != vocab.BlankIndex() && vocab.IsWordEnd(c)

		for i := 0; i < limit; i++ {
			prefix := prefixes[i]
			if full && logPc+prefix.score < minCutoff {
				break
			}

			if c == vocab.BlankIndex() {
				prefix.logProbBCur = mathutil.LogSumExp(prefix.logProbBCur, logPc+prefix.score)
				continue
			}

			if c == prefix.character {
				prefix.logProbNBCur = mathutil.LogSumExp(prefix.logProbNBCur, logPc+prefix.logProbNBPrev)
			}

			child := prefix.GetPathTrie(c, wordEnd)
			if child == nil {
				continue
			}

			logP := negInf
			switch {
			case c == prefix.character && prefix.logProbBPrev > negInf:
				logP = logPc + prefix.logProbBPrev
			case c != prefix.character:
				logP = logPc + prefix.score
			}

			rootOK := !skipEmptyPrefix || prefix.character != rootCharacter
			if scorer != nil && rootOK && (wordEnd || scorer.IsCharacterBased()) {
				target := prefix
				if scorer.IsCharacterBased() {
					target = child
				}
				ngram := scorer.MakeNGram(target)
				logP += scorer.Alpha()*scorer.GetLogCondProb(ngram) + scorer.Beta()
			}

			child.logProbNBCur = mathutil.LogSumExp(child.logProbNBCur, logP)
			if !child.offsetSet {
				child.offset = offset
				child.offsetSet = true
			}
		}
	}

	next := make([]*PathTrie, 0, len(prefixes))
	root.IterateToVec(&next)
	if len(next) >= cfg.BeamSize {
		sortPrefixes(next)
		for _, p := range next[cfg.BeamSize:] {
			p.Remove()
		}
		next = next[:cfg.BeamSize]
	}
	return next
}

func sortPrefixes(prefixes []*PathTrie) {
	sort.Slice(prefixes, func(i, j int) bool { return PrefixCompare(prefixes[i], prefixes[j]) })
}

// runFrames advances prefixes through every row of probs in order. baseOffset
// is added to the in-sequence frame index before recording a node's offset.
func runFrames(root *PathTrie, prefixes []*PathTrie, probs [][]float64, vocab *Vocabulary, cfg Config, scorer Scorer, baseOffset int, skipEmptyPrefix bool) []*PathTrie {
	for t, prob := range probs {
		prefixes = stepFrame(root, prefixes, prob, vocab, cfg, scorer, baseOffset+t, skipEmptyPrefix)
	}
	return prefixes
}

// attachScorerDictionary clones the scorer's lexicon (if any) into root, the
// way a fresh decoding session picks up a read-only FST and a session-local
// matcher cursor (spec.md §5: "the matcher is not safe to share across
// concurrent decoders"). A character-based scorer's lexicon is not attached.
func attachScorerDictionary(root *PathTrie, scorer Scorer) {
	if scorer == nil || scorer.IsCharacterBased() {
		return
	}
	dict := scorer.Dictionary()
	if dict == nil {
		return
	}
	clone := dict.Clone()
	root.SetDictionary(clone)
	root.SetMatcher(lexicon.NewSortedMatcher(clone))
}

func validateFrames(probs [][]float64, vocab *Vocabulary) error {
	if len(probs) == 0 {
		return ErrEmptyInput
	}
	width := vocab.FrameWidth()
	for t, row := range probs {
		if len(row) != width {
			return errShapeMismatchf("frame %d has width %d, want %d", t, len(row), width)
		}
	}
	return nil
}

// DecodeOne runs the one-shot beam search over a complete probability
// sequence and returns up to cfg.BeamSize ranked hypotheses.
func DecodeOne(probs [][]float64, vocab *Vocabulary, cfg Config, scorer Scorer) ([]Hypothesis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateFrames(probs, vocab); err != nil {
		return nil, err
	}

	root := NewRoot()
	attachScorerDictionary(root, scorer)

	prefixes := runFrames(root, []*PathTrie{root}, probs, vocab, cfg, scorer, 0, true)

	if scorer != nil && !scorer.IsCharacterBased() {
		for _, p := range prefixes {
			if p.character == rootCharacter {
				continue
			}
			ngram := scorer.MakeNGram(p)
			p.score += scorer.Alpha()*scorer.GetLogCondProb(ngram) + scorer.Beta()
		}
	}

	sortPrefixes(prefixes)
	k := cfg.BeamSize
	if k > len(prefixes) {
		k = len(prefixes)
	}
	top := prefixes[:k]

	hyps := make([]Hypothesis, 0, len(top))
	for _, p := range top {
		symbols, _ := p.GetPathVec(nil)
		text := renderSymbols(symbols, vocab)

		approx := p.score
		if scorer != nil {
			words := scorer.SplitLabels(symbols)
			approx -= float64(len(symbols)) * scorer.Beta()
			approx -= scorer.Alpha() * scorer.GetSentLogProb(words)
		}

		hyps = append(hyps, Hypothesis{Score: p.score, Text: text, ApproxCTCScore: approx})
	}
	return hyps, nil
}

// Words renders the trailing words ending at this node, oldest-first; the
// last entry may be a word still in progress (not yet followed by a
// word-boundary symbol). maxWords <= 0 returns every word on the path. This
// is the scoring context handed to a language-model scorer's n-gram lookup.
func (t *PathTrie) Words(vocab *Vocabulary, maxWords int) []string {
	symbols, _ := t.GetPathVec(vocab)
	text := renderSymbols(symbols, vocab)
	if text == "" {
		return nil
	}
	words := strings.Fields(text)
	if maxWords > 0 && len(words) > maxWords {
		words = words[len(words)-maxWords:]
	}
	return words
}

// RenderWords splits a raw symbol-index path into its word sequence, using
// the same continuation/unknown-token rules as rendering a hypothesis's
// text. Exposed for callers (such as a scorer's SplitLabels) that only have
// flattened symbol indices, not a live trie node.
func RenderWords(symbols []int, vocab *Vocabulary) []string {
	return strings.Fields(renderSymbols(symbols, vocab))
}

// Characters returns the trailing maxChars UTF-8 characters of the text
// rendered from this node's path, oldest-first — the scoring context a
// character-based language-model scorer uses in place of whole words (e.g.
// scoring CJK text, where there is no space delimiter to split words on).
// maxChars <= 0 returns every character on the path.
func (t *PathTrie) Characters(vocab *Vocabulary, maxChars int) []string {
	symbols, _ := t.GetPathVec(vocab)
	text := renderSymbols(symbols, vocab)
	if text == "" {
		return nil
	}
	chars := mathutil.SplitUTF8Chars(text)
	if maxChars > 0 && len(chars) > maxChars {
		chars = chars[len(chars)-maxChars:]
	}
	return chars
}

// RenderCharacters is RenderWords' character-based counterpart: it splits a
// raw symbol-index path into individual UTF-8 characters instead of
// whitespace-delimited words.
func RenderCharacters(symbols []int, vocab *Vocabulary) []string {
	return mathutil.SplitUTF8Chars(renderSymbols(symbols, vocab))
}

// renderSymbols concatenates a symbol-index path into transcript text:
// sub-word continuations merge into the preceding token with their marker
// stripped, and the unknown token is elided (though it still accounts for the
// separating space before it). Under WordEndNotContinuation every other
// token is its own word and tokens are space-separated; under WordEndIsSpace
// only the space symbol ends a word, so tokens are concatenated and a single
// space is written where a space symbol stood. A literal space token is
// elided entirely (not just its text but also its own separator) since it
// marks a word boundary that the following token's separator already
// renders — without this, an explicit " " symbol in the path would double up
// as two adjacent spaces.
func renderSymbols(symbols []int, vocab *Vocabulary) string {
	var sb strings.Builder
	for i, idx := range symbols {
		if vocab.IsContinuation(idx) {
			sb.WriteString(strings.TrimPrefix(vocab.Token(idx), ContinuationMarker))
			continue
		}
		tok := vocab.Token(idx)
		if tok == " " {
			continue
		}
		if i != 0 && (vocab.WordEnd != WordEndIsSpace || vocab.Token(symbols[i-1]) == " ") {
			sb.WriteByte(' ')
		}
		if tok != UnknownToken {
			sb.WriteString(tok)
		}
	}
	return sb.String()
}
