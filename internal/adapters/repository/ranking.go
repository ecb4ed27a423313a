package repository

import (
	"math/rand/v2"
)

// jetKey identifies one jet of one stored event.
type jetKey struct {
	eventID  string
	jetIndex int
}

// Treap ordered by chi DESC, then event id ASC, then jet index ASC, so an
// in-order walk yields the ranking from most to least signal-like.
type node struct {
	key   jetKey
	chi   float64
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

// less reports whether (aChi, a) ranks before (bChi, b).
func less(aChi float64, a jetKey, bChi float64, b jetKey) bool {
	if aChi != bChi {
		return aChi > bChi
	}
	if a.eventID != b.eventID {
		return a.eventID < b.eventID
	}
	return a.jetIndex < b.jetIndex
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

func insert(n *node, key jetKey, chi float64) *node {
	if n == nil {
		return &node{key: key, chi: chi, prio: rand.Uint64(), size: 1} //nolint:gosec // treap priorities need no crypto
	}
	if less(chi, key, n.chi, n.key) {
		n.left = insert(n.left, key, chi)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, key, chi)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, key jetKey, chi float64) *node {
	if n == nil {
		return nil
	}
	if chi == n.chi && key == n.key {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, key, chi)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, key, chi)
		}
	} else if less(chi, key, n.chi, n.key) {
		n.left = deleteNode(n.left, key, chi)
	} else {
		n.right = deleteNode(n.right, key, chi)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit keys in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// assignRanksWithTies gives equal chi the same rank; ranks are consecutive.
func assignRanksWithTies(entries []Candidate) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Chi != entries[i-1].Chi {
			rank++
		}
		entries[i].Rank = rank
	}
}
