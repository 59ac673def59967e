package decoder

import (
	"math"
	"testing"

	"github.com/ieee0824/ctcbeam/lexicon"
)

func threeLetterVocab() Vocabulary {
	return NewVocabulary([]string{"a", "b", "c"}, BlankAfterVocab, WordEndNotContinuation)
}

func baseConfig(beamSize int) Config {
	return Config{BeamSize: beamSize, CutoffProb: 1.0, CutoffTopN: 10, NumProcesses: 1}
}

func TestDecodeOne_SingleFrameTopSymbol(t *testing.T) {
	vocab := threeLetterVocab()
	frames := [][]float64{{0.9, 0.05, 0.0, 0.05}}
	hyps, err := DecodeOne(frames, &vocab, baseConfig(5), nil)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	if len(hyps) == 0 || hyps[0].Text != "a" {
		t.Fatalf("top-1 = %+v, want text \"a\"", hyps)
	}
	if math.Abs(hyps[0].Score-math.Log(0.9)) > 1e-6 {
		t.Errorf("top-1 score = %f, want ~log(0.9) = %f", hyps[0].Score, math.Log(0.9))
	}
}

func TestDecodeOne_RepeatsCollapseThroughBlank(t *testing.T) {
	vocab := threeLetterVocab()
	frames := [][]float64{
		{0.6, 0, 0, 0.4},
		{0.6, 0, 0, 0.4},
	}
	hyps, err := DecodeOne(frames, &vocab, baseConfig(5), nil)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	if len(hyps) == 0 || hyps[0].Text != "a" {
		t.Fatalf("top-1 = %+v, want text \"a\" (two unseparated 'a' emissions collapse)", hyps)
	}
}

func TestDecodeOne_InterveningBlankPreservesRepeat(t *testing.T) {
	vocab := threeLetterVocab()
	frames := [][]float64{
		{0.8, 0, 0, 0.2},
		{0, 0, 0, 1.0},
		{0.8, 0, 0, 0.2},
	}
	hyps, err := DecodeOne(frames, &vocab, baseConfig(5), nil)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	if len(hyps) == 0 || hyps[0].Text != "aa" {
		t.Fatalf("top-1 = %+v, want text \"aa\" (a blank frame between repeats keeps both)", hyps)
	}
}

func TestDecodeOne_TopKRanksSingleSymbolsAboveTwoSymbolVariants(t *testing.T) {
	vocab := threeLetterVocab()
	frames := [][]float64{
		{0.5, 0.5, 0, 0},
		{0.5, 0.5, 0, 0},
	}
	hyps, err := DecodeOne(frames, &vocab, baseConfig(2), nil)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	if len(hyps) != 2 {
		t.Fatalf("len(hyps) = %d, want 2", len(hyps))
	}
	if hyps[0].Text != "a" || hyps[1].Text != "b" {
		t.Fatalf("top-2 = [%q %q], want [\"a\" \"b\"]", hyps[0].Text, hyps[1].Text)
	}
}

func TestDecodeOne_LexiconBlocksDisallowedRepeat(t *testing.T) {
	vocab := NewVocabulary([]string{"a", "b"}, BlankAfterVocab, WordEndIsSpace)
	dict := lexicon.NewAcceptor()
	lexicon.AddWordToFST([]int{1, 2}, dict) // only "ab" (labels a=1, b=2) is accepted

	frames := [][]float64{
		{0.9, 0.05, 0.05}, // favors starting with 'a'
		{0, 0, 1.0},       // blank: lets the 'a' repeat re-form via log_prob_b_prev
		{0.45, 0.45, 0.05},
	}
	scorer := &fakeLexiconScorer{dict: dict}
	hyps, err := DecodeOne(frames, &vocab, baseConfig(5), scorer)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	if len(hyps) == 0 || hyps[0].Text != "ab" {
		t.Fatalf("top-1 = %+v, want text \"ab\" (the lexicon blocks \"aa\", leaving \"ab\" as the best surviving path)", hyps)
	}
}

func TestStreaming_SubWordVocabRendersWordsWithTimestamps(t *testing.T) {
	vocab := NewVocabulary([]string{"hel", "#lo", "ne", "#twork", " "}, BlankAfterVocab, WordEndIsSpace)
	d := NewStreamingDecoder(&vocab, baseConfig(5), nil)

	// one high-confidence frame per symbol, in order: hel #lo <space> ne #twork
	frames := [][]float64{
		{0.97, 0.006, 0.006, 0.006, 0.006, 0.006},
		{0.006, 0.97, 0.006, 0.006, 0.006, 0.006},
		{0.006, 0.006, 0.006, 0.006, 0.97, 0.006},
		{0.006, 0.006, 0.97, 0.006, 0.006, 0.006},
		{0.006, 0.006, 0.006, 0.97, 0.006, 0.006},
	}
	hyps, err := d.Decode(frames)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(hyps) == 0 || hyps[0].Text != "hello network" {
		t.Fatalf("top-1 = %+v, want text \"hello network\"", hyps)
	}

	words := d.WordTimestamps()
	if len(words) != 2 {
		t.Fatalf("WordTimestamps() = %+v, want 2 words", words)
	}
	if words[0].Word != "hello" || words[1].Word != "network" {
		t.Fatalf("words = %+v, want [hello network]", words)
	}
	if words[0].EndFrame < words[0].StartFrame || words[1].EndFrame < words[1].StartFrame {
		t.Errorf("each word's EndFrame must not precede its StartFrame: %+v", words)
	}
}

func TestLaw_BlankOnlyTrailingFrameDoesNotChangeTopText(t *testing.T) {
	vocab := threeLetterVocab()
	base := [][]float64{{0.9, 0.05, 0.0, 0.05}}
	withTrailingBlank := append(append([][]float64{}, base...), []float64{0, 0, 0, 1.0})

	h1, err := DecodeOne(base, &vocab, baseConfig(5), nil)
	if err != nil {
		t.Fatalf("DecodeOne(base): %v", err)
	}
	h2, err := DecodeOne(withTrailingBlank, &vocab, baseConfig(5), nil)
	if err != nil {
		t.Fatalf("DecodeOne(withTrailingBlank): %v", err)
	}
	if h1[0].Text != h2[0].Text {
		t.Errorf("a trailing blank-only frame changed the top-1 text: %q vs %q", h1[0].Text, h2[0].Text)
	}
}

func TestLaw_StreamingOverTwoChunksMatchesOneShotWithNoScorer(t *testing.T) {
	vocab := threeLetterVocab()
	frames := [][]float64{
		{0.8, 0, 0, 0.2},
		{0, 0, 0, 1.0},
		{0.8, 0, 0, 0.2},
	}

	oneShot, err := DecodeOne(frames, &vocab, baseConfig(5), nil)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}

	d := NewStreamingDecoder(&vocab, baseConfig(5), nil)
	if _, err := d.Decode(frames[:1]); err != nil {
		t.Fatalf("Decode(chunk 1): %v", err)
	}
	streamed, err := d.Decode(frames[1:])
	if err != nil {
		t.Fatalf("Decode(chunk 2): %v", err)
	}

	if oneShot[0].Text != streamed[0].Text {
		t.Errorf("streaming over two chunks gave %q, one-shot gave %q", streamed[0].Text, oneShot[0].Text)
	}
}

// fakeLexiconScorer is a minimal decoder.Scorer that only constrains
// expansion via a lexicon FST; alpha/beta are zero so it never perturbs
// acoustic scores, isolating the dictionary-constraint behavior under test.
type fakeLexiconScorer struct {
	dict *lexicon.Acceptor
}

func (s *fakeLexiconScorer) IsCharacterBased() bool                    { return false }
func (s *fakeLexiconScorer) Alpha() float64                            { return 0 }
func (s *fakeLexiconScorer) Beta() float64                             { return 0 }
func (s *fakeLexiconScorer) Dictionary() *lexicon.Acceptor             { return s.dict }
func (s *fakeLexiconScorer) MakeNGram(node *PathTrie) []string         { return nil }
func (s *fakeLexiconScorer) GetLogCondProb(ngram []string) float64     { return 0 }
func (s *fakeLexiconScorer) GetSentLogProb(words []string) float64    { return 0 }

func (s *fakeLexiconScorer) SplitLabels(symbolIndices []int) []string { return nil }
