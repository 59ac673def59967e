package decoder

import (
	"math"

	"github.com/ieee0824/ctcbeam/internal/mathutil"
	"github.com/ieee0824/ctcbeam/lexicon"
)

// rootCharacter is the sentinel "this is the root" label; only the root
// ever carries it.
const rootCharacter = -1

var negInf = math.Inf(-1)

// pathTrieChild is one entry of a node's ordered child list. Children are
// stored in an ordered slice rather than a map: per spec.md §4.2 the
// expected fan-out at any node is small (bounded by cutoffTopN), and a
// linear scan over a handful of entries is cache-friendly and avoids a map's
// per-entry overhead.
type pathTrieChild struct {
	symbol int
	node   *PathTrie
}

// PathTrie is one node of the shared hypothesis tree: a prefix ending at
// this node's symbol, with its own blank/non-blank DP accumulators.
type PathTrie struct {
	character int
	parent    *PathTrie
	children  []pathTrieChild
	exists    bool

	logProbBPrev  float64
	logProbNBPrev float64
	logProbBCur   float64
	logProbNBCur  float64
	score         float64

	offset    int
	offsetSet bool

	dictionary      *lexicon.Acceptor
	matcher         *lexicon.Matcher
	dictionaryState lexicon.StateID
	hasDictionary   bool
}

// NewRoot returns a fresh root node: character=ROOT, log_prob_b_prev=0 (the
// empty prefix starts fully in the "ended in blank" state), everything else
// at -Inf.
func NewRoot() *PathTrie {
	return &PathTrie{
		character:     rootCharacter,
		exists:        true,
		logProbBPrev:  0,
		logProbNBPrev: negInf,
		logProbBCur:   negInf,
		logProbNBCur:  negInf,
		score:         0,
	}
}

// IsRoot reports whether this node is the tree's root.
func (t *PathTrie) IsRoot() bool { return t.character == rootCharacter }

// Character returns this node's symbol index (rootCharacter at the root).
func (t *PathTrie) Character() int { return t.character }

// Parent returns this node's parent, or nil at the root.
func (t *PathTrie) Parent() *PathTrie { return t.parent }

// Score returns the node's most recently refreshed summary score.
func (t *PathTrie) Score() float64 { return t.score }

// SetDictionary attaches a lexicon FST to the root. Called once per
// decoding session, before the first frame.
func (t *PathTrie) SetDictionary(dict *lexicon.Acceptor) {
	t.dictionary = dict
	t.dictionaryState = dict.Start()
	t.hasDictionary = true
}

// SetMatcher attaches a per-session matcher cursor to the root.
func (t *PathTrie) SetMatcher(m *lexicon.Matcher) {
	t.matcher = m
}

// GetPathTrie returns the child node for symbol, allocating (or reviving) it
// if necessary. wordEnd indicates whether this extension begins a fresh
// word, which matters only when a dictionary is attached: a fresh word
// repositions the matcher at the dictionary's start state rather than this
// node's cached dictionary state. Returns nil if a dictionary is attached
// and no arc matches symbol+1 — the expansion is rejected, not an error.
func (t *PathTrie) GetPathTrie(symbol int, wordEnd bool) *PathTrie {
	for _, c := range t.children {
		if c.symbol == symbol {
			if !c.node.exists {
				c.node.revive()
			}
			return c.node
		}
	}

	if !t.hasDictionary {
		child := &PathTrie{character: symbol, parent: t, exists: true,
			logProbBPrev: negInf, logProbNBPrev: negInf,
			logProbBCur: negInf, logProbNBCur: negInf, score: negInf}
		t.children = append(t.children, pathTrieChild{symbol: symbol, node: child})
		return child
	}

	if wordEnd {
		t.matcher.SetState(t.dictionary.Start())
	} else {
		t.matcher.SetState(t.dictionaryState)
	}
	next, found := t.matcher.Find(symbol + 1)
	if !found {
		return nil
	}

	child := &PathTrie{
		character: symbol, parent: t, exists: true,
		logProbBPrev: negInf, logProbNBPrev: negInf,
		logProbBCur: negInf, logProbNBCur: negInf, score: negInf,
		dictionary: t.dictionary, dictionaryState: next,
		hasDictionary: true, matcher: t.matcher,
	}
	t.children = append(t.children, pathTrieChild{symbol: symbol, node: child})
	return child
}

func (t *PathTrie) revive() {
	t.exists = true
	t.logProbBPrev = negInf
	t.logProbNBPrev = negInf
	t.logProbBCur = negInf
	t.logProbNBCur = negInf
}

// IterateToVec performs a depth-first traversal, rolling each live node's
// _cur fields into _prev, refreshing score, and appending it to out.
// Tombstoned nodes are skipped but their subtrees are still visited, since a
// tombstoned node with live descendants must keep propagating their frame
// rolls even though it contributes no probability mass itself.
func (t *PathTrie) IterateToVec(out *[]*PathTrie) {
	if t.exists {
		t.logProbBPrev = t.logProbBCur
		t.logProbNBPrev = t.logProbNBCur
		t.logProbBCur = negInf
		t.logProbNBCur = negInf
		t.score = mathutil.LogSumExp(t.logProbBPrev, t.logProbNBPrev)
		*out = append(*out, t)
	}
	for _, c := range t.children {
		c.node.IterateToVec(out)
	}
}

// Remove tombstones this node and, if it has no live children, unlinks it
// from its parent and cascades the same check upward. The root never
// removes itself.
func (t *PathTrie) Remove() {
	t.exists = false
	if len(t.children) != 0 {
		return
	}
	if t.parent == nil {
		return
	}
	parent := t.parent
	for i, c := range parent.children {
		if c.symbol == t.character {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	if len(parent.children) == 0 && !parent.exists {
		parent.Remove()
	}
}

// GetPathVec walks from this node to the root, collecting symbol indices
// (and, if vocab is non-nil, word-boundary time offsets) in prefix order. A
// timestamp is recorded at three kinds of position: the very last symbol of
// the path (so the final word always gets a closing offset), any symbol that
// starts a new word (its parent is the root or itself ended a word), and any
// symbol that itself ends a word (e.g. the space token). Together these
// produce exactly two offsets per word — (start, end) — which is what the
// word-timestamp pairing in the streaming decoder expects.
func (t *PathTrie) GetPathVec(vocab *Vocabulary) (symbols []int, timestamps []int) {
	node := t
	for !node.IsRoot() {
		symbols = append(symbols, node.character)
		if vocab != nil {
			parent := node.parent
			atWordStart := parent.IsRoot() || vocab.IsWordEnd(parent.character)
			atWordEnd := vocab.IsWordEnd(node.character)
			if len(timestamps) == 0 || atWordStart || atWordEnd {
				timestamps = append(timestamps, node.offset)
			}
		}
		node = node.parent
	}
	reverseInts(symbols)
	reverseInts(timestamps)
	return symbols, timestamps
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// PrefixCompare defines the total order used for beam ranking: higher score
// first, ties broken by smaller character. Exact ties (equal score, equal
// character — i.e. the same node) return false, matching the reference
// comparator's antisymmetric, non-strict contract for sort/partition use.
func PrefixCompare(x, y *PathTrie) bool {
	if x.score == y.score {
		return x.character < y.character
	}
	return x.score > y.score
}
