// Package lexicon implements the weighted-acceptor contract the decoder
// expects from a pronunciation/lexicon FST: a sorted-input matcher that
// answers "is there an arc labelled l from state s?" Input labels are
// 1-indexed (symbol_index+1), reserving 0 for epsilon, matching the
// convention of the reference decoder's OpenFST dictionaries.
//
// This is a minimal in-process acceptor, not a general FST library — no
// library in the example corpus provides OpenFST bindings for Go, so the
// handful of operations the decoder actually calls (SetState, Find, arc
// construction) are implemented directly against a state/arc table.
package lexicon

import (
	"fmt"
	"sort"
)

// Epsilon is the reserved label meaning "no symbol consumed".
const Epsilon = 0

// StateID identifies a state in an Acceptor.
type StateID int

// NoState is returned by Start() for an empty acceptor.
const NoState StateID = -1

type arc struct {
	label int
	next  StateID
}

// Acceptor is a deterministic, sorted-arc weighted acceptor over integer
// labels. Every word accepted by the lexicon is a path from Start() to a
// final state.
type Acceptor struct {
	arcs  [][]arc // arcs[state] sorted by label
	final []bool
	start StateID
}

// NewAcceptor returns an empty acceptor with no states.
func NewAcceptor() *Acceptor {
	return &Acceptor{start: NoState}
}

// NumStates returns the number of states currently allocated.
func (a *Acceptor) NumStates() int {
	return len(a.arcs)
}

// AddState allocates a new state and returns its ID.
func (a *Acceptor) AddState() StateID {
	a.arcs = append(a.arcs, nil)
	a.final = append(a.final, false)
	return StateID(len(a.arcs) - 1)
}

// SetStart marks s as the start state.
func (a *Acceptor) SetStart(s StateID) {
	a.start = s
}

// Start returns the start state, or NoState if the acceptor is empty.
func (a *Acceptor) Start() StateID {
	return a.start
}

// SetFinal marks s as an accepting state.
func (a *Acceptor) SetFinal(s StateID) {
	a.final[s] = true
}

// IsFinal reports whether s is an accepting state.
func (a *Acceptor) IsFinal(s StateID) bool {
	return int(s) < len(a.final) && a.final[s]
}

// AddArc adds an arc from src to dst labelled label. Arcs are kept sorted by
// label so the matcher can do a deterministic lookup; duplicate labels from
// the same state are avoided by AddWordToFST's construction discipline (it
// follows an existing arc instead of adding a second one with the same
// label), not enforced here.
func (a *Acceptor) AddArc(src StateID, label int, dst StateID) {
	arcs := a.arcs[src]
	i := sort.Search(len(arcs), func(i int) bool { return arcs[i].label > label })
	arcs = append(arcs, arc{})
	copy(arcs[i+1:], arcs[i:])
	arcs[i] = arc{label: label, next: dst}
	a.arcs[src] = arcs
}

// Clone returns a deep copy of the acceptor, safe to hand to an independent
// decoding task. The arc tables themselves never change after construction,
// so in a systems rewrite this could be a shared reference; we copy here to
// keep the ownership story simple and match the "clone on handoff" wording
// of the spec (the matcher, not the acceptor, is the part that must not be
// shared — see Matcher).
func (a *Acceptor) Clone() *Acceptor {
	clone := &Acceptor{
		start: a.start,
		arcs:  make([][]arc, len(a.arcs)),
		final: append([]bool(nil), a.final...),
	}
	for i, arcs := range a.arcs {
		clone.arcs[i] = append([]arc(nil), arcs...)
	}
	return clone
}

// Matcher is a per-session cursor over an Acceptor. It carries mutable
// positional state (the current state) and so must not be shared across
// concurrently decoding utterances, even though the underlying Acceptor can
// be.
type Matcher struct {
	fst   *Acceptor
	state StateID
}

// NewSortedMatcher returns a matcher positioned at fst's start state.
func NewSortedMatcher(fst *Acceptor) *Matcher {
	return &Matcher{fst: fst, state: fst.Start()}
}

// SetState repositions the matcher.
func (m *Matcher) SetState(s StateID) {
	m.state = s
}

// Find looks for an arc labelled label from the matcher's current state. It
// reports the destination state and whether a match was found.
func (m *Matcher) Find(label int) (next StateID, found bool) {
	arcs := m.fst.arcs[m.state]
	for _, a := range arcs {
		if a.label == label {
			return a.next, true
		}
	}
	return NoState, false
}

// AddWordToFST adds a path accepting exactly the given sequence of (already
// 1-indexed) labels, starting from the acceptor's start state. Arcs already
// present for a shared prefix of an earlier word are followed rather than
// duplicated, so the acceptor stays deterministic. If the acceptor is empty,
// a start state is allocated first.
func AddWordToFST(word []int, dict *Acceptor) {
	if dict.NumStates() == 0 {
		dict.SetStart(dict.AddState())
	}
	src := dict.Start()
	for _, label := range word {
		next, found := (&Matcher{fst: dict, state: src}).Find(label)
		if !found {
			next = dict.AddState()
			dict.AddArc(src, label, next)
		}
		src = next
	}
	dict.SetFinal(src)
}

// AddWordToDictionary maps each token of a word to an integer label via
// charMap and appends the resulting path to dict. The mapping rule:
//   - unkToken (the reserved unknown/padding token) passes through unchanged
//   - a token beginning with wordStartMarker has that marker stripped
//   - any other token is prefixed with "##" to mark sub-word continuation
//
// If any mapped token is absent from charMap, the word is rejected (no
// partial path is added) and false is returned.
func AddWordToDictionary(tokens []string, charMap map[string]int, unkToken, wordStartMarker string, dict *Acceptor) (ok bool) {
	word := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		mapped := tok
		switch {
		case tok == unkToken:
			mapped = tok
		case len(tok) >= len(wordStartMarker) && tok[:len(wordStartMarker)] == wordStartMarker:
			mapped = tok[len(wordStartMarker):]
		default:
			mapped = "##" + tok
		}
		id, found := charMap[mapped]
		if !found {
			return false
		}
		word = append(word, id)
	}
	AddWordToFST(word, dict)
	return true
}

func (a *Acceptor) String() string {
	return fmt.Sprintf("Acceptor{states=%d, start=%d}", a.NumStates(), a.start)
}
