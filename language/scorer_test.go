package language

import (
	"math"
	"testing"

	"github.com/ieee0824/ctcbeam/decoder"
)

func tinyModel() *NGramModel {
	m := NewNGramModel(2)
	m.Unigrams["<s>"] = ngramEntry{LogProb: math.Log(0.3), LogBackoff: math.Log(0.5)}
	m.Unigrams["hello"] = ngramEntry{LogProb: math.Log(0.2)}
	m.Unigrams["world"] = ngramEntry{LogProb: math.Log(0.1)}
	m.Unigrams["</s>"] = ngramEntry{LogProb: math.Log(0.2)}
	m.Bigrams[[2]string{"<s>", "hello"}] = ngramEntry{LogProb: math.Log(0.9)}
	m.Bigrams[[2]string{"hello", "world"}] = ngramEntry{LogProb: math.Log(0.8)}
	return m
}

func TestScorer_GetLogCondProb_UsesBigramWhenHistoryPresent(t *testing.T) {
	vocab := decoder.NewVocabulary([]string{"a"}, decoder.BlankAfterVocab, decoder.WordEndNotContinuation)
	s := NewScorer(tinyModel(), &vocab, 1.0, 0.0, false)

	got := s.GetLogCondProb([]string{"<s>", "hello"})
	want := math.Log(0.9)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("GetLogCondProb([<s> hello]) = %f, want %f", got, want)
	}
}

func TestScorer_GetLogCondProb_EmptyNGramFallsBackToBareUnigram(t *testing.T) {
	vocab := decoder.NewVocabulary([]string{"a"}, decoder.BlankAfterVocab, decoder.WordEndNotContinuation)
	model := tinyModel()
	s := NewScorer(model, &vocab, 1.0, 0.0, false)

	got := s.GetLogCondProb(nil)
	want := model.LogProb(nil, "")
	if got != want {
		t.Errorf("GetLogCondProb(nil) = %f, want %f (Model.LogProb(nil, \"\"))", got, want)
	}
}

func TestScorer_GetSentLogProb_AddsSentenceBoundaries(t *testing.T) {
	vocab := decoder.NewVocabulary([]string{"a"}, decoder.BlankAfterVocab, decoder.WordEndNotContinuation)
	model := tinyModel()
	s := NewScorer(model, &vocab, 1.0, 0.0, false)

	got := s.GetSentLogProb([]string{"hello", "world"})
	want := model.SentenceLogProb([]string{"hello", "world"})
	if got != want {
		t.Errorf("GetSentLogProb = %f, want %f", got, want)
	}
}

func TestScorer_SplitLabels_RendersWordsFromSymbolIndices(t *testing.T) {
	vocab := decoder.NewVocabulary([]string{"hel", "#lo", " ", "world"}, decoder.BlankAfterVocab, decoder.WordEndIsSpace)
	s := NewScorer(tinyModel(), &vocab, 1.0, 0.0, false)

	words := s.SplitLabels([]int{0, 1, 2, 3})
	if len(words) != 2 || words[0] != "hello" || words[1] != "world" {
		t.Errorf("SplitLabels = %v, want [hello world]", words)
	}
}

func TestScorer_MakeNGram_WalksTrailingWordsUpToModelOrder(t *testing.T) {
	vocab := decoder.NewVocabulary([]string{"hel", "#lo", " ", "world"}, decoder.BlankAfterVocab, decoder.WordEndIsSpace)
	model := tinyModel()
	s := NewScorer(model, &vocab, 1.0, 0.0, false)

	root := decoder.NewRoot()
	n := root.GetPathTrie(0, false) // "hel"
	n = n.GetPathTrie(1, false)     // "#lo" -> "hello"
	n = n.GetPathTrie(2, true)      // " " ends the word "hello"
	n = n.GetPathTrie(3, true)      // "world" ends at leaf

	ngram := s.MakeNGram(n)
	if len(ngram) == 0 || ngram[len(ngram)-1] != "world" {
		t.Fatalf("MakeNGram(n) = %v, want last element \"world\"", ngram)
	}
}

func TestScorer_Accessors_ReportConstructorValues(t *testing.T) {
	vocab := decoder.NewVocabulary([]string{"a"}, decoder.BlankAfterVocab, decoder.WordEndNotContinuation)
	s := NewScorer(tinyModel(), &vocab, 1.5, 0.25, true)

	if s.Alpha() != 1.5 {
		t.Errorf("Alpha() = %f, want 1.5", s.Alpha())
	}
	if s.Beta() != 0.25 {
		t.Errorf("Beta() = %f, want 0.25", s.Beta())
	}
	if !s.IsCharacterBased() {
		t.Error("IsCharacterBased() = false, want true")
	}
	if s.Dictionary() != nil {
		t.Error("Dictionary() = non-nil, want nil (no lexicon attached)")
	}
}
