// Package ranking provides an order-statistics board used to place a team's
// score among its peers.
package ranking

import (
	"hash/fnv"
	"math"
	"strconv"
	"sync"

	"github.com/okian/pulse/internal/domain/types"
)

// Treap-based, in-memory board.
//
// Ordering: score DESC, then id ASC (deterministic). "less" means ranks
// earlier, so in-order traversal yields the board from best to worst.
// Priorities come from an FNV hash of the id, so the tree shape depends only
// on the set of entries and never on ambient randomness.

// scoreScale controls fixed-point scaling from float64. Nine decimals keep
// scores that differ only by float noise from comparing unequal.
const scoreScale = 1_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled >= float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func idPriority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: idPriority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countAbove counts nodes whose score is strictly greater than s.
func countAbove(n *node, s scoreFP) int {
	c := 0
	for n != nil {
		if n.score > s {
			c += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

// countBelow counts nodes whose score is strictly less than s.
func countBelow(n *node, s scoreFP) int {
	c := 0
	for n != nil {
		if n.score < s {
			c += nsize(n.right) + 1
			n = n.left
		} else {
			n = n.right
		}
	}
	return c
}

// collect appends up to limit entries in board order.
func collect(n *node, limit int, scores map[string]float64, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, scores, out)
	if len(*out) < limit {
		*out = append(*out, types.Entry{TeamID: n.id, Score: scores[n.id]})
	}
	if len(*out) < limit {
		collect(n.right, limit, scores, out)
	}
}

// Board ranks ids by score. Writers must not race with each other; once
// populated a Board is safe for concurrent readers.
type Board struct {
	mu     sync.RWMutex
	root   *node
	scores map[string]float64
	fixed  map[string]scoreFP
	// levels holds one node per distinct score; ties counts ids per score.
	levels *node
	ties   map[scoreFP]int
}

// New returns an empty board.
func New() *Board {
	return &Board{
		scores: make(map[string]float64),
		fixed:  make(map[string]scoreFP),
		ties:   make(map[scoreFP]int),
	}
}

func levelID(s scoreFP) string {
	return strconv.FormatInt(int64(s), 10)
}

// Insert places id on the board, replacing any previous score.
func (b *Board) Insert(id string, score float64) {
	ns := toFixedPoint(score)
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.fixed[id]; ok {
		b.root = deleteNode(b.root, id, old)
		b.ties[old]--
		if b.ties[old] == 0 {
			delete(b.ties, old)
			b.levels = deleteNode(b.levels, levelID(old), old)
		}
	}
	b.fixed[id] = ns
	b.scores[id] = score
	b.root = insert(b.root, id, ns)
	if b.ties[ns] == 0 {
		b.levels = insert(b.levels, levelID(ns), ns)
	}
	b.ties[ns]++
}

// Len returns the number of ids on the board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return nsize(b.root)
}

// Score returns the score recorded for id.
func (b *Board) Score(id string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.scores[id]
	return s, ok
}

// CountAbove counts entries scoring strictly higher than score.
func (b *Board) CountAbove(score float64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return countAbove(b.root, toFixedPoint(score))
}

// CountBelow counts entries scoring strictly lower than score.
func (b *Board) CountBelow(score float64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return countBelow(b.root, toFixedPoint(score))
}

// CountEqual counts entries tied with score.
func (b *Board) CountEqual(score float64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := toFixedPoint(score)
	return nsize(b.root) - countAbove(b.root, s) - countBelow(b.root, s)
}

// PercentileRank returns the mid-rank percentile of score on the board:
// 100·(below + 0.5·equal)/n. An empty board yields 50.
func (b *Board) PercentileRank(score float64) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := nsize(b.root)
	if n == 0 {
		return 50
	}
	s := toFixedPoint(score)
	below := countBelow(b.root, s)
	equal := n - below - countAbove(b.root, s)
	return 100 * (float64(below) + 0.5*float64(equal)) / float64(n)
}

// Rank returns the board entry for id. Tied scores share a rank and the next
// distinct score takes the following rank.
func (b *Board) Rank(id string) (types.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.fixed[id]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	return types.Entry{
		Rank:   countAbove(b.levels, s) + 1,
		TeamID: id,
		Score:  b.scores[id],
	}, nil
}

// TopN returns the first n entries in board order with ranks assigned.
func (b *Board) TopN(n int) ([]types.Entry, error) {
	if n < 0 {
		return nil, ErrInvalidLimit
	}
	entries := b.Entries()
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

// Entries returns every entry in board order with ranks assigned.
func (b *Board) Entries() []types.Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.Entry, 0, nsize(b.root))
	collect(b.root, nsize(b.root), b.scores, &out)
	b.assignRanksWithTies(out)
	return out
}

// assignRanksWithTies gives equal scores the same rank and consecutive ranks
// to distinct scores.
func (b *Board) assignRanksWithTies(entries []types.Entry) {
	currentRank := 0
	var prev scoreFP
	for i := range entries {
		s := b.fixed[entries[i].TeamID]
		if i == 0 || s != prev {
			currentRank++
			prev = s
		}
		entries[i].Rank = currentRank
	}
}
