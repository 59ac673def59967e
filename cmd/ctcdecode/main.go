// Command ctcdecode is a thin driver over the decoder package: it loads a
// probability matrix and vocabulary from disk and prints the top-K
// hypotheses. Producing the probability matrix (running an acoustic model)
// and building a production lexicon/ARPA file are both out of scope here —
// see the decoder package itself for the actual engine.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ieee0824/ctcbeam/decoder"
	"github.com/ieee0824/ctcbeam/language"
	"github.com/ieee0824/ctcbeam/lexicon"
)

func main() {
	probsPath := flag.String("probs", "", "path to a JSON file holding a [][]float64 probability matrix")
	vocabPath := flag.String("vocab", "", "path to a newline-delimited vocabulary file")
	lmPath := flag.String("lm", "", "optional path to an ARPA language model")
	lexiconPath := flag.String("lexicon", "", "optional path to a newline-delimited lexicon word list, one space-separated token sequence per line")
	beamSize := flag.Int("beam-size", 100, "beam width")
	cutoffProb := flag.Float64("cutoff-prob", 1.0, "cumulative-probability cutoff")
	cutoffTopN := flag.Int("cutoff-top-n", 40, "hard cap on symbols considered per frame")
	alpha := flag.Float64("alpha", 0.0, "language-model weight")
	beta := flag.Float64("beta", 0.0, "word-insertion bonus")

	flag.Parse()

	if *probsPath == "" || *vocabPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: ctcdecode -probs FILE -vocab FILE [-lm FILE] [-lexicon FILE]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	probs, err := loadProbs(*probsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load probs: %v\n", err)
		os.Exit(1)
	}

	symbols, err := loadLines(*vocabPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load vocab: %v\n", err)
		os.Exit(1)
	}
	vocab := decoder.NewVocabulary(symbols, decoder.BlankAfterVocab, decoder.WordEndNotContinuation)

	var scorer decoder.Scorer
	if *lmPath != "" {
		f, err := os.Open(*lmPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open lm: %v\n", err)
			os.Exit(1)
		}
		model, err := language.LoadARPA(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load lm: %v\n", err)
			os.Exit(1)
		}

		s := language.NewScorer(model, &vocab, *alpha, *beta, false)
		if *lexiconPath != "" {
			dict, err := loadLexicon(*lexiconPath, symbols)
			if err != nil {
				fmt.Fprintf(os.Stderr, "load lexicon: %v\n", err)
				os.Exit(1)
			}
			s.Lexicon = dict
		}
		scorer = s
	}

	cfg := decoder.Config{BeamSize: *beamSize, CutoffProb: *cutoffProb, CutoffTopN: *cutoffTopN, NumProcesses: 1}
	hyps, err := decoder.DecodeOne(probs, &vocab, cfg, scorer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode: %v\n", err)
		os.Exit(1)
	}

	for _, h := range hyps {
		fmt.Printf("%.4f\t%s\n", h.Score, h.Text)
	}
}

func loadProbs(path string) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probs [][]float64
	if err := json.Unmarshal(data, &probs); err != nil {
		return nil, err
	}
	return probs, nil
}

func loadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			if line := trimCR(data[start:i]); len(line) > 0 {
				lines = append(lines, string(line))
			}
			start = i + 1
		}
	}
	if line := trimCR(data[start:]); len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines, nil
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// loadLexicon builds an FST dictionary from a word list: each line is a
// whitespace-separated sequence of vocabulary tokens (already in the
// decoder's own #-continuation form, e.g. "h e l #lo"). A line containing a
// token absent from the vocabulary is skipped.
func loadLexicon(path string, vocabSymbols []string) (*lexicon.Acceptor, error) {
	lines, err := loadLines(path)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(vocabSymbols))
	for i, s := range vocabSymbols {
		index[s] = i
	}

	dict := lexicon.NewAcceptor()
	for _, line := range lines {
		tokens := splitFields(line)
		word := make([]int, 0, len(tokens))
		ok := true
		for _, tok := range tokens {
			id, found := index[tok]
			if !found {
				ok = false
				break
			}
			word = append(word, id+1) // labels are 1-indexed; 0 is epsilon
		}
		if ok && len(word) > 0 {
			lexicon.AddWordToFST(word, dict)
		}
	}
	return dict, nil
}

func splitFields(s string) []string {
	var fields []string
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' {
			if start >= 0 {
				fields = append(fields, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, s[start:])
	}
	return fields
}
