package decoder

import "github.com/ieee0824/ctcbeam/lexicon"

// Scorer is the shallow-fusion language-model contract the beam search
// invokes. The decoder never imports a concrete implementation — language.Scorer
// satisfies this by duck typing, same as any other caller-supplied scorer.
type Scorer interface {
	// IsCharacterBased reports whether scoring happens after every symbol
	// extension (true) or once per completed word (false).
	IsCharacterBased() bool

	Alpha() float64
	Beta() float64

	// Dictionary returns the lexicon FST to constrain expansion, or nil if
	// the scorer does not bound the vocabulary to a closed lexicon.
	Dictionary() *lexicon.Acceptor

	// MakeNGram builds the scoring context for node: the trailing n-gram
	// history ending at node, oldest-first.
	MakeNGram(node *PathTrie) []string

	// GetLogCondProb returns the conditional log-probability of the last
	// element of ngram given the rest as history.
	GetLogCondProb(ngram []string) float64

	// GetSentLogProb and SplitLabels back the one-shot decoder's
	// approximate-CTC-score reporting only.
	GetSentLogProb(words []string) float64
	SplitLabels(symbolIndices []int) []string
}
