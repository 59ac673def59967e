package mathutil

import (
	"math"
	"sort"
)

// logProbFloor is added to every probability before taking its log, so that
// a zero-probability symbol contributes a large-but-finite penalty instead
// of -Inf.
const logProbFloor = 1e-30

// cumProbTolerance absorbs floating-point rounding in the running sum, so a
// cumulative mass that equals cutoffProb mathematically (0.7+0.2 against
// 0.9) still counts as reaching it.
const cumProbTolerance = 1e-9

// IndexedLogProb is one surviving (symbol index, log-probability) pair from
// GetPrunedLogProbs.
type IndexedLogProb struct {
	Index   int
	LogProb float64
}

// GetPrunedLogProbs prunes a per-frame probability vector down to the
// shortest prefix, by descending probability, whose cumulative mass reaches
// cutoffProb or whose length reaches cutoffTopN, whichever comes first. The
// input is not mutated. Surviving probabilities are converted to log space
// with an additive floor so log(0) never occurs.
func GetPrunedLogProbs(prob []float64, cutoffProb float64, cutoffTopN int) []IndexedLogProb {
	idx := make([]int, len(prob))
	for i := range prob {
		idx[i] = i
	}

	cutoffLen := len(prob)
	if cutoffProb < 1.0 || cutoffTopN < cutoffLen {
		sort.Slice(idx, func(i, j int) bool {
			return prob[idx[i]] > prob[idx[j]]
		})
		if cutoffProb < 1.0 {
			cum := 0.0
			cutoffLen = 0
			for _, i := range idx {
				cum += prob[i]
				cutoffLen++
				if cum+cumProbTolerance >= cutoffProb || cutoffLen >= cutoffTopN {
					break
				}
			}
		}
		if cutoffTopN < cutoffLen {
			cutoffLen = cutoffTopN
		}
		idx = idx[:cutoffLen]
	}

	out := make([]IndexedLogProb, len(idx))
	for i, symbol := range idx {
		out[i] = IndexedLogProb{
			Index:   symbol,
			LogProb: math.Log(prob[symbol] + logProbFloor),
		}
	}
	return out
}
