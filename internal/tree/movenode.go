//
// rsishogi - distributed shogi search client
//
// MIT License
//
// Copyright (c) 2020-2026 rsishogi contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

// Package tree holds the client's local projection of the distributed
// search: one row of candidate moves per ply along the current PV,
// the bounds-propagation bookkeeping that lets a deeper discovery
// tighten shallower windows, and the pick-next-task logic the worker
// draws from. Moves are carried as opaque coordinate strings (the
// wire format, e.g. "7g7f", "G*5b", "8h2b+"); the tree never parses or
// plays them; the engine adapter does that once the worker has picked
// a task.
package tree

// DepthOnePly is the engine's depth granularity: one full ply of
// search corresponds to this many depth units. Using 2 (rather than
// 1) gives search_depth always an integer result for both even and
// odd (2*itd - pld).
const DepthOnePly = 2

// DecisiveDepth marks a node whose value is certain regardless of any
// further search (e.g. the mate-in-one corner case of the worker
// evaluator). It must compare >= any depth a real search can reach.
const DecisiveDepth = 1 << 30

// NegInf and PosInf bound the open search window before any concrete
// value has been established for a node or row.
const (
	NegInf = -(1 << 30)
	PosInf = 1 << 30
)

// ULE (upper/lower/exact) tags how a returned value relates to the
// window it was searched with.
type ULE int

const (
	ULENone ULE = iota
	ULEExact
	ULELower
	ULEUpper
)

func (u ULE) String() string {
	switch u {
	case ULEExact:
		return "EXACT"
	case ULELower:
		return "LOWER"
	case ULEUpper:
		return "UPPER"
	default:
		return "NONE"
	}
}

// ValueKind selects which of a row's three tracked bounds an update
// applies to.
type ValueKind int

const (
	KindAlpha ValueKind = iota
	KindBeta
	KindGamma
)

// DetectValueType classifies value against the open window (lo, hi):
// EXACT if strictly inside, LOWER if it met or exceeded hi, UPPER if
// it fell at or below lo.
func DetectValueType(value, lo, hi int) ULE {
	switch {
	case value <= lo:
		return ULEUpper
	case value >= hi:
		return ULELower
	default:
		return ULEExact
	}
}

// MoveNode is one candidate move's search record at some
// (positionId, iterationDepth, plyDepth). The zero value is not
// usable; construct with NewMoveNode.
type MoveNode struct {
	Move      string
	BestMove  string
	Depth     int
	Nodes     uint64
	Lower     int
	Upper     int
}

// NewMoveNode returns a node for move with the initial open window
// and no completed search.
func NewMoveNode(move string) *MoveNode {
	return &MoveNode{
		Move:  move,
		Lower: NegInf,
		Upper: PosInf,
	}
}

// Done reports whether this node's search is complete relative to a
// parent-perspective (depth, alpha, beta): the node has reached at
// least that depth, and either its window has collapsed to a point or
// one of the parent bounds already prunes it.
func (n *MoveNode) Done(depth, alpha, beta int) bool {
	return n.Depth >= depth && (n.Upper == n.Lower || -beta >= n.Upper || -alpha <= n.Lower)
}

// Update applies a (depth, value, ule) search result per the table in
// the design: EXACT collapses the window to value; UPPER/LOWER at a
// new (greater) depth resets the other bound to infinity before
// applying, at the same depth they only tighten the one bound they
// address. bestMove is retained only for EXACT/LOWER results - an
// UPPER result means this move was refuted, so its child's reply is
// not a credible continuation.
func (n *MoveNode) Update(depth, value int, ule ULE, nodes uint64, bestMove string) {
	switch ule {
	case ULEExact:
		n.Upper, n.Lower = value, value
	case ULEUpper:
		if depth > n.Depth {
			n.Upper = value
			n.Lower = NegInf
		} else {
			n.Upper = value
		}
	case ULELower:
		if depth > n.Depth {
			n.Upper = PosInf
			n.Lower = value
		} else {
			n.Lower = value
		}
	}

	if ule == ULEExact || ule == ULELower {
		n.BestMove = bestMove
	} else {
		n.BestMove = ""
	}
	n.Nodes = nodes
	n.Depth = depth
}

// UpdateWindow is the (depth, value, lower, upper, nodes, bestMove)
// convenience form used by the worker: it classifies value against
// (lower, upper) itself before delegating to Update.
func (n *MoveNode) UpdateWindow(depth, value, lower, upper int, nodes uint64, bestMove string) {
	ule := DetectValueType(value, lower, upper)
	switch ule {
	case ULEUpper:
		value = lower
	case ULELower:
		value = upper
	}
	n.Update(depth, value, ule, nodes, bestMove)
}
