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

package tree

// MoveRow is the ordered set of MoveNodes the server has assigned to
// a single (positionId, iterationDepth, plyDepth). It also carries
// the row's own alpha/beta/gamma window and the best line found so
// far at this ply.
type MoveRow struct {
	PositionID     int
	IterationDepth int
	PlyDepth       int

	// Left is the PV move that put the position at this ply; it is
	// not itself a candidate, just identifies the row.
	Left string

	Alpha int
	Beta  int
	Gamma int

	BestValue int
	BestULE   ULE
	BestPV    []string

	nodes []*MoveNode
}

// NewMoveRow returns an empty row for (pid, itd, pld) whose left-edge
// PV move is left, with the widest possible window and no best line
// yet.
func NewMoveRow(pid, itd, pld int, left string) *MoveRow {
	return &MoveRow{
		PositionID:     pid,
		IterationDepth: itd,
		PlyDepth:       pld,
		Left:           left,
		Alpha:          NegInf,
		Beta:           PosInf,
		Gamma:          NegInf,
		BestValue:      NegInf,
		BestULE:        ULENone,
	}
}

// EffectiveAlpha is the alpha actually used as a search bound: the
// row's own alpha if set, else the aspirational gamma pushed down
// from a shallower row's propagation.
func (r *MoveRow) EffectiveAlpha() int {
	if r.Alpha > NegInf {
		return r.Alpha
	}
	return r.Gamma
}

// BetaCut reports whether the best value found at this row already
// meets or exceeds beta.
func (r *MoveRow) BetaCut() bool {
	return r.BestValue >= r.Beta
}

// Nodes returns the row's candidate nodes in server-assigned order.
func (r *MoveRow) Nodes() []*MoveNode {
	return r.nodes
}

// SetMoveList installs the server-ordered candidate moves for this
// row, replacing whatever was there before. Order is authoritative -
// the server has already ranked these moves, the row must not
// reorder them.
func (r *MoveRow) SetMoveList(moves []string) {
	r.nodes = make([]*MoveNode, len(moves))
	for i, m := range moves {
		r.nodes[i] = NewMoveNode(m)
	}
}

// FindUndone returns the first node (in list order) that is not yet
// done relative to (depth, alpha, beta), or nil if every node is
// done.
func (r *MoveRow) FindUndone(depth, alpha, beta int) *MoveNode {
	for _, n := range r.nodes {
		if !n.Done(depth, alpha, beta) {
			return n
		}
	}
	return nil
}

// UpdateValue applies value to the row bound selected by kind. Alpha
// only ever increases, beta only ever decreases, gamma is always
// overwritten (it is a transient aspiration, not a running bound).
func (r *MoveRow) UpdateValue(value int, kind ValueKind) {
	switch kind {
	case KindAlpha:
		if value > r.Alpha {
			r.Alpha = value
		}
	case KindBeta:
		if value < r.Beta {
			r.Beta = value
		}
	case KindGamma:
		r.Gamma = value
	}
}

// SetValue forces the row bound selected by kind to value, bypassing
// the monotonic max/min that UpdateValue applies. Used by start and
// commit, which reset a row's window rather than tighten it.
func (r *MoveRow) SetValue(value int, kind ValueKind) {
	switch kind {
	case KindAlpha:
		r.Alpha = value
	case KindBeta:
		r.Beta = value
	case KindGamma:
		r.Gamma = value
	}
}

// UpdateBest records a newly discovered best line at this row: value,
// move, and the child's PV. move must be non-empty. The ULE recorded
// is LOWER if value already meets or exceeds the row's beta (the
// search only proved "at least this good"), EXACT otherwise. Also
// folds value into the row's running alpha.
func (r *MoveRow) UpdateBest(value int, move string, childPV []string) {
	if move == "" {
		return
	}
	r.BestValue = value
	if value >= r.Beta {
		r.BestULE = ULELower
	} else {
		r.BestULE = ULEExact
	}
	r.BestPV = append([]string{move}, childPV...)
	r.UpdateValue(value, KindAlpha)
}
