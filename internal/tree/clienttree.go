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

import (
	"fmt"

	"github.com/op/go-logging"

	rsilog "github.com/kakiage/rsishogi/internal/logging"
	"github.com/kakiage/rsishogi/internal/util"
)

// MinIterativeDepth is the iteration depth a fresh tree starts at
// after SetPosition, before any setpv has advanced it.
const MinIterativeDepth = 6

// Position is the slice of the external shogi engine the tree needs
// in order to own a root position: legality checks and scoped
// do/undo. Everything else about the engine (evaluation, full move
// generation for the worker's own search) lives behind the separate
// search() adapter in the worker/engine packages.
type Position interface {
	SFEN() string
	SetSFEN(sfen string) error
	IsLegal(moveSFEN string) bool
	DoMove(moveSFEN string) error
	UndoMove()

	// InCheck reports whether the side to move is in check. The worker
	// evaluator uses it after playing its own candidate move to detect
	// the "opponent is in mate" corner case (see design §4.6 step 3).
	InCheck() bool
}

// SearchDepth is search_depth(d, p) = (2d - p) * DepthOnePly / 2: the
// per-node search depth for iteration itd at ply pld.
func SearchDepth(itd, pld int) int {
	return (2*itd - pld) * DepthOnePly / 2
}

// ClientTree is the coherent state for one (positionId, iterationDepth)
// generation: the root position, the rows of candidate moves along
// the current PV, and the propagation logic that keeps their windows
// consistent. It holds no reference back to whatever owns it; every
// method either mutates the tree or returns a value for the caller to
// act on.
type ClientTree struct {
	pos Position

	positionID     int
	iterationDepth int
	lastPlyDepth   int

	rows       []*MoveRow
	pvFromRoot []string

	log *logging.Logger
}

// NewClientTree returns a tree rooted at pos, initially with no
// position id, no PV, and no rows.
func NewClientTree(pos Position) *ClientTree {
	return &ClientTree{
		pos:            pos,
		positionID:     -1,
		iterationDepth: -1,
		lastPlyDepth:   -1,
		log:            rsilog.GetLog(),
	}
}

// PositionID, IterationDepth, LastPlyDepth and PVFromRoot expose the
// tree's addressing state for the scheduler's pid/itd validation and
// for tests.
func (t *ClientTree) PositionID() int        { return t.positionID }
func (t *ClientTree) IterationDepth() int    { return t.iterationDepth }
func (t *ClientTree) LastPlyDepth() int      { return t.lastPlyDepth }
func (t *ClientTree) PVFromRoot() []string   { return append([]string{}, t.pvFromRoot...) }
func (t *ClientTree) RowCount() int          { return len(t.rows) }

// Row returns row pld, or nil if pld is out of range.
func (t *ClientTree) Row(pld int) *MoveRow {
	if pld < 0 || pld >= len(t.rows) {
		return nil
	}
	return t.rows[pld]
}

// SetPosition resets the tree to a brand new root: either the literal
// startpos shorthand or an explicit sfen, a fresh positionId, the
// minimum iteration depth, and no rows or PV.
func (t *ClientTree) SetPosition(sfen string, startpos bool, pid int) error {
	if startpos {
		sfen = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"
	}
	if err := t.pos.SetSFEN(sfen); err != nil {
		return fmt.Errorf("tree: set_position: %w", err)
	}
	t.positionID = pid
	t.iterationDepth = MinIterativeDepth
	t.lastPlyDepth = -1
	t.rows = nil
	t.pvFromRoot = nil
	t.log.Noticef("set_position: pid=%d", pid)
	return nil
}

// MakeMoveRoot validates move against the current root and, on
// success, advances the root one ply. Illegal moves are logged and
// dropped, leaving the tree exactly as it was (transactional
// rollback) - SetSFEN/DoMove are never reached on the illegal path.
func (t *ClientTree) MakeMoveRoot(move string, newPid int) error {
	if !t.pos.IsLegal(move) {
		t.log.Errorf("make_move_root: illegal move %s at pid=%d", move, t.positionID)
		return fmt.Errorf("tree: illegal move %q", move)
	}
	if err := t.pos.DoMove(move); err != nil {
		t.log.Errorf("make_move_root: do_move failed for %s: %v", move, err)
		return fmt.Errorf("tree: do_move %q: %w", move, err)
	}
	prevPid := t.positionID
	t.positionID = newPid
	t.lastPlyDepth = -1
	t.rows = nil
	t.pvFromRoot = nil
	t.log.Noticef("makemoveroot pid=%d->%d, move=%s", prevPid, newPid, move)
	return nil
}

// SetPV replaces the row vector with one fresh row per ply of pv, the
// row's left edge being the corresponding PV move, and advances the
// tree's iteration depth to itd. From this point the worker may be
// asked to produce candidates at any row.
func (t *ClientTree) SetPV(itd int, pv []string) {
	rows := make([]*MoveRow, len(pv))
	for pld, move := range pv {
		rows[pld] = NewMoveRow(t.positionID, itd, pld, move)
	}
	t.rows = rows
	t.iterationDepth = itd
	t.pvFromRoot = append([]string{}, pv...)
	t.lastPlyDepth = len(pv) - 1
	t.log.Noticef("setpv pid=%d, itd=%d, pv=%v", t.positionID, itd, pv)
}

// MoveListFromSFEN walks the root PV to ply pld, then checks each of
// sfenMoves for legality in that position. Moves that fail to parse
// or are illegal there are logged and dropped; the rest are returned
// in order. The position is left exactly as found - every DoMove is
// paired with an UndoMove on every exit path, including the early
// return below.
func (t *ClientTree) MoveListFromSFEN(pld int, sfenMoves []string) ([]string, error) {
	if pld >= len(t.pvFromRoot) {
		return nil, fmt.Errorf("tree: pld %d too large for pv of length %d", pld, len(t.pvFromRoot))
	}

	played := 0
	defer func() {
		for ; played > 0; played-- {
			t.pos.UndoMove()
		}
	}()
	for i := 0; i < pld; i++ {
		if err := t.pos.DoMove(t.pvFromRoot[i]); err != nil {
			return nil, fmt.Errorf("tree: replay pv move %q at ply %d: %w", t.pvFromRoot[i], i, err)
		}
		played++
	}

	moves := make([]string, 0, len(sfenMoves))
	for _, m := range sfenMoves {
		if !t.pos.IsLegal(m) {
			t.log.Errorf("move_list_from_sfen: illegal or unparseable move %q at pld=%d", m, pld)
			continue
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// WithNode walks the root PV to ply pld, plays move, then runs fn
// against the resulting position before unwinding back to the root -
// the scoped do/undo acquisition the worker evaluator needs to run a
// search at one candidate node without disturbing the tree's root.
// Every DoMove this makes is paired with an UndoMove on every exit
// path, including fn returning an error or PositionID/IterationDepth
// having moved since the caller last checked.
func (t *ClientTree) WithNode(pld int, move string, fn func(pos Position) error) error {
	if pld > len(t.pvFromRoot) {
		return fmt.Errorf("tree: pld %d too large for pv of length %d", pld, len(t.pvFromRoot))
	}

	played := 0
	defer func() {
		for ; played > 0; played-- {
			t.pos.UndoMove()
		}
	}()
	for i := 0; i < pld; i++ {
		if err := t.pos.DoMove(t.pvFromRoot[i]); err != nil {
			return fmt.Errorf("tree: replay pv move %q at ply %d: %w", t.pvFromRoot[i], i, err)
		}
		played++
	}
	if err := t.pos.DoMove(move); err != nil {
		return fmt.Errorf("tree: play candidate move %q: %w", move, err)
	}
	played++

	return fn(t.pos)
}

// SetMoveList installs the server-supplied candidate moves (already
// converted by MoveListFromSFEN) into row pld.
func (t *ClientTree) SetMoveList(pld int, moves []string) error {
	row := t.Row(pld)
	if row == nil {
		return fmt.Errorf("tree: pld %d has no row", pld)
	}
	row.SetMoveList(moves)
	t.log.Noticef("setmovelist: pid=%d, itd=%d, pld=%d, moves=%v", t.positionID, t.iterationDepth, pld, moves)
	return nil
}

// Start seeds search at row pld: its alpha is raised to alpha (never
// lowered - UpdateValue is monotone), gamma resets to -inf, and if
// pld is not the root ply the aspirational -alpha is propagated
// upward through every shallower row.
func (t *ClientTree) Start(pld, alpha, beta int) error {
	row := t.Row(pld)
	if row == nil {
		return fmt.Errorf("tree: pld %d has no row", pld)
	}
	row.UpdateValue(alpha, KindAlpha)
	row.SetValue(NegInf, KindGamma)
	t.log.Noticef("start: pid=%d, itd=%d, pld=%d, alpha=%d, beta=%d", t.positionID, t.iterationDepth, pld, alpha, beta)
	if pld > 0 {
		t.propagateUp(pld-1, -alpha)
	}
	return nil
}

// Notify announces an improved alpha at row pld. A stale
// announcement (value no better than the row's current alpha) is
// ignored; otherwise the row's alpha is raised and the improvement is
// propagated both upward (as a gamma aspiration) and downward (as a
// tightened beta), with the negamax sign flip at each step.
func (t *ClientTree) Notify(pld, value int) error {
	row := t.Row(pld)
	if row == nil {
		return fmt.Errorf("tree: pld %d has no row", pld)
	}
	t.log.Noticef("notify itd=%d, pld=%d, value=%d", t.iterationDepth, pld, value)
	if value <= row.Alpha {
		return nil
	}
	row.UpdateValue(value, KindAlpha)
	if pld > 0 {
		t.propagateUp(pld-1, -value)
	}
	if pld < t.lastPlyDepth {
		t.propagateDown(pld+1, -value, KindBeta)
	}
	return nil
}

// propagateUp pushes an aspirational gamma from row pld up to the
// root, tightening it at each shallower row by the row's own alpha:
// value <- -max(row.alpha, value).
func (t *ClientTree) propagateUp(pld, value int) {
	if pld >= len(t.rows) {
		t.log.Errorf("propagate_up: invalid pld %d", pld)
		return
	}
	for k := pld; k >= 0; k-- {
		row := t.rows[k]
		row.UpdateValue(value, KindGamma)
		alpha := row.Alpha
		if value > alpha {
			alpha = value
		}
		value = -alpha
	}
}

// propagateDown pushes a confirmed bound from row pld toward the
// deepest row, flipping both sign and kind (alpha<->beta) at each
// step, stopping early if an alpha propagation would not actually
// improve the row it reaches.
func (t *ClientTree) propagateDown(pld, value int, kind ValueKind) {
	if pld >= len(t.rows) {
		t.log.Errorf("propagate_down: invalid pld %d", pld)
		return
	}
	for k := pld; k <= t.lastPlyDepth; k++ {
		row := t.rows[k]
		if kind == KindAlpha && value <= row.Alpha {
			break
		}
		row.UpdateValue(value, kind)
		if kind == KindAlpha {
			kind = KindBeta
		} else {
			kind = KindAlpha
		}
		value = -value
	}
}

// Commit declares row pld's search complete: the tree's active
// frontier retreats to pld-1, and (if pld > 0) that row's alpha
// absorbs the completed row's negated alpha and that row's gamma is
// cleared. The completed row itself is left as it is.
func (t *ClientTree) Commit(pld int) error {
	if pld >= len(t.rows) {
		return fmt.Errorf("tree: pld %d too large", pld)
	}
	t.lastPlyDepth = pld - 1
	if pld > 0 {
		row := t.rows[pld-1]
		oldRow := t.rows[pld]
		alpha := util.Max(row.Alpha, -oldRow.Alpha)
		row.SetValue(alpha, KindAlpha)
		row.SetValue(NegInf, KindGamma)
	}
	return nil
}

// GetSearchTask scans rows from the deepest toward the root and
// returns a task for the first undone node it finds; an empty row
// window (alpha >= beta) is skipped entirely. Returns an empty
// SearchTask if every row is either pruned or fully done.
func (t *ClientTree) GetSearchTask() SearchTask {
	for pld := t.lastPlyDepth; pld >= 0; pld-- {
		row := t.rows[pld]
		depth := SearchDepth(t.iterationDepth, pld)
		alpha := row.EffectiveAlpha()
		beta := row.Beta
		if alpha >= beta {
			continue
		}
		if node := row.FindUndone(depth, alpha, beta); node != nil {
			return SearchTask{
				PositionID:     t.positionID,
				IterationDepth: t.iterationDepth,
				PlyDepth:       pld,
				Alpha:          row.Alpha,
				Beta:           row.Beta,
				Gamma:          row.Gamma,
				node:           node,
			}
		}
	}
	return SearchTask{}
}
