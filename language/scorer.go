package language

import (
	"github.com/ieee0824/ctcbeam/decoder"
	"github.com/ieee0824/ctcbeam/lexicon"
)

// Scorer is a shallow-fusion language-model scorer backed by an n-gram
// model. It satisfies decoder.Scorer by duck typing: decoder never imports
// this package, so there is no cycle between the beam-search core and its
// concrete language-model backend.
type Scorer struct {
	Model         *NGramModel
	Vocab         *decoder.Vocabulary
	Lexicon       *lexicon.Acceptor // optional; nil means no lexicon constraint
	AlphaWeight   float64           // language-model weight
	BetaWeight    float64           // word-insertion bonus
	CharacterMode bool              // score after every symbol instead of once per word
}

// NewScorer builds a Scorer over model, scoped to vocab's word-boundary and
// continuation conventions.
func NewScorer(model *NGramModel, vocab *decoder.Vocabulary, alpha, beta float64, characterMode bool) *Scorer {
	return &Scorer{Model: model, Vocab: vocab, AlphaWeight: alpha, BetaWeight: beta, CharacterMode: characterMode}
}

func (s *Scorer) IsCharacterBased() bool { return s.CharacterMode }
func (s *Scorer) Alpha() float64         { return s.AlphaWeight }
func (s *Scorer) Beta() float64          { return s.BetaWeight }

func (s *Scorer) Dictionary() *lexicon.Acceptor { return s.Lexicon }

// MakeNGram builds the scoring context from node: up to Model.Order
// trailing units (oldest-first), the last of which is the unit being
// scored. In CharacterMode the units are individual UTF-8 characters
// (there is no space delimiter to split words on); otherwise they are
// whitespace-delimited words.
func (s *Scorer) MakeNGram(node *decoder.PathTrie) []string {
	if s.CharacterMode {
		return node.Characters(s.Vocab, s.Model.Order)
	}
	return node.Words(s.Vocab, s.Model.Order)
}

// GetLogCondProb scores the last element of ngram conditioned on the rest.
func (s *Scorer) GetLogCondProb(ngram []string) float64 {
	if len(ngram) == 0 {
		return s.Model.LogProb(nil, "")
	}
	history := ngram[:len(ngram)-1]
	word := ngram[len(ngram)-1]
	return s.Model.LogProb(history, word)
}

// GetSentLogProb scores a full word sequence, used only to compute the
// one-shot decoder's reportable approximate-CTC score.
func (s *Scorer) GetSentLogProb(words []string) float64 {
	return s.Model.SentenceLogProb(words)
}

// SplitLabels renders a raw symbol-index path into its scoring-unit
// sequence (words, or characters in CharacterMode), independent of any trie
// node — used by the one-shot decoder once the winning prefixes are already
// flattened to plain indices.
func (s *Scorer) SplitLabels(symbolIndices []int) []string {
	if s.CharacterMode {
		return decoder.RenderCharacters(symbolIndices, s.Vocab)
	}
	return decoder.RenderWords(symbolIndices, s.Vocab)
}
