// Package intervalstore indexes half-open time intervals with string payloads
// and answers overlap queries in start order.
//
// The index is an augmented AVL tree. Each node carries the largest end of
// its subtree, which lets a query skip subtrees that end before the range.
// A Store is not safe for concurrent use.
package intervalstore

import (
	"cmp"
	"fmt"
	"math"
	"strings"

	"github.com/kbukum/speakline/errors"
)

// Epsilon widens zero-width intervals so they can still overlap a query.
const Epsilon = 0.001

// Interval is a stored [Start, End) range and its payload.
type Interval struct {
	Start float64
	End   float64
	Data  string
}

// Store is an ordered multiset of intervals.
type Store struct {
	root *node
	size int
	seq  uint64
}

type node struct {
	iv     Interval
	seq    uint64
	maxEnd float64
	height int
	left   *node
	right  *node
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Store inserts [from, to) with data and returns the receiver.
// Equal bounds are widened by Epsilon and inverted bounds are swapped.
// Duplicates are kept.
func (s *Store) Store(from, to float64, data string) *Store {
	if from > to {
		from, to = to, from
	}
	if from == to {
		to += Epsilon
	}
	if !(from < to) {
		panic(errors.StoreInvariantViolation(fmt.Sprintf("interval [%v, %v) has no positive width", from, to)))
	}

	s.seq++
	s.root = insert(s.root, &node{
		iv:     Interval{Start: from, End: to, Data: data},
		seq:    s.seq,
		maxEnd: to,
		height: 1,
	})
	s.size++
	return s
}

// Get returns the payloads of every interval with start < to and end > from,
// ordered by start, then end, then payload, then insertion order.
// The result is never nil.
func (s *Store) Get(from, to float64) []string {
	out := make([]string, 0)
	if !(from < to) {
		return out
	}
	visit(s.root, from, to, func(iv Interval) {
		out = append(out, iv.Data)
	})
	return out
}

// Len returns the number of stored intervals.
func (s *Store) Len() int {
	return s.size
}

// Intervals returns every stored interval in query order.
func (s *Store) Intervals() []Interval {
	out := make([]Interval, 0, s.size)
	visit(s.root, math.Inf(-1), math.Inf(1), func(iv Interval) {
		out = append(out, iv)
	})
	return out
}

// visit walks nodes overlapping [from, to) in order.
func visit(n *node, from, to float64, fn func(Interval)) {
	if n == nil || n.maxEnd <= from {
		return
	}
	visit(n.left, from, to, fn)
	if n.iv.Start >= to {
		// right subtree starts no earlier than this node
		return
	}
	if n.iv.End > from {
		fn(n.iv)
	}
	visit(n.right, from, to, fn)
}

func compare(a, b *node) int {
	if c := cmp.Compare(a.iv.Start, b.iv.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.iv.End, b.iv.End); c != 0 {
		return c
	}
	if c := strings.Compare(a.iv.Data, b.iv.Data); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

func insert(root, n *node) *node {
	if root == nil {
		return n
	}
	if compare(n, root) < 0 {
		root.left = insert(root.left, n)
	} else {
		root.right = insert(root.right, n)
	}
	return rebalance(root)
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func update(n *node) {
	n.height = 1 + max(height(n.left), height(n.right))
	n.maxEnd = n.iv.End
	if n.left != nil && n.left.maxEnd > n.maxEnd {
		n.maxEnd = n.left.maxEnd
	}
	if n.right != nil && n.right.maxEnd > n.maxEnd {
		n.maxEnd = n.right.maxEnd
	}
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	update(n)
	update(l)
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	update(n)
	update(r)
	return r
}

func rebalance(n *node) *node {
	update(n)
	switch balance := height(n.left) - height(n.right); {
	case balance > 1:
		if height(n.left.left) < height(n.left.right) {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case balance < -1:
		if height(n.right.right) < height(n.right.left) {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}
