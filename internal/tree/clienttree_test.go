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
	"os"
	"path"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kakiage/rsishogi/internal/config"
)

func init() {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "../..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
	config.Setup()
}

// fakePosition is a minimal stand-in for the real engine.Position: it
// tracks only a stack of played moves and a set of moves considered
// illegal, enough to exercise ClientTree's legality checks and
// scoped do/undo without a real shogi rules engine.
type fakePosition struct {
	sfen     string
	stack    []string
	illegal  map[string]bool
}

func newFakePosition() *fakePosition {
	return &fakePosition{sfen: "startpos", illegal: map[string]bool{}}
}

func (p *fakePosition) SFEN() string { return p.sfen }

func (p *fakePosition) SetSFEN(sfen string) error {
	p.sfen = sfen
	p.stack = nil
	return nil
}

func (p *fakePosition) IsLegal(move string) bool {
	return !p.illegal[move]
}

func (p *fakePosition) DoMove(move string) error {
	if p.illegal[move] {
		return fmt.Errorf("illegal move %q", move)
	}
	p.stack = append(p.stack, move)
	return nil
}

func (p *fakePosition) UndoMove() {
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

func (p *fakePosition) InCheck() bool { return false }

func TestSearchDepth(t *testing.T) {
	assert.Equal(t, 12, SearchDepth(6, 0))
	assert.Equal(t, 11, SearchDepth(6, 1))
	assert.Equal(t, 10, SearchDepth(6, 2))
}

func TestSetPositionResetsTree(t *testing.T) {
	pos := newFakePosition()
	tr := NewClientTree(pos)

	require.NoError(t, tr.SetPosition("", true, 1))
	assert.Equal(t, 1, tr.PositionID())
	assert.Equal(t, MinIterativeDepth, tr.IterationDepth())
	assert.Equal(t, 0, tr.RowCount())
}

// scenario 2: setposition followed by setpv populates one row per PV
// ply, each row's Left holding the corresponding PV move.
func TestSetPVPopulatesRows(t *testing.T) {
	pos := newFakePosition()
	tr := NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))

	tr.SetPV(7, []string{"7g7f", "3c3d", "2g2f"})

	require.Equal(t, 3, tr.RowCount())
	assert.Equal(t, 7, tr.IterationDepth())
	assert.Equal(t, 2, tr.LastPlyDepth())
	assert.Equal(t, "7g7f", tr.Row(0).Left)
	assert.Equal(t, "3c3d", tr.Row(1).Left)
	assert.Equal(t, "2g2f", tr.Row(2).Left)
	for pld := 0; pld < 3; pld++ {
		row := tr.Row(pld)
		assert.Equal(t, NegInf, row.Alpha)
		assert.Equal(t, PosInf, row.Beta)
	}
}

// scenario 3: after a move list and a start at the deepest row, a
// notify at that row propagates an aspirational gamma up through
// every shallower row with alternating sign.
func TestStartAndNotifyPropagateGamma(t *testing.T) {
	pos := newFakePosition()
	tr := NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))
	tr.SetPV(6, []string{"7g7f", "3c3d"})

	require.NoError(t, tr.SetMoveList(0, []string{"7g7f"}))
	require.NoError(t, tr.SetMoveList(1, []string{"3c3d"}))

	require.NoError(t, tr.Start(1, NegInf, PosInf))
	require.NoError(t, tr.Notify(1, 100))

	assert.Equal(t, 100, tr.Row(1).Alpha)
	assert.Equal(t, -100, tr.Row(0).Gamma)
}

func TestGetSearchTaskPicksDeepestUndoneRow(t *testing.T) {
	pos := newFakePosition()
	tr := NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))
	tr.SetPV(6, []string{"7g7f", "3c3d"})
	require.NoError(t, tr.SetMoveList(0, []string{"7g7f", "2g2f"}))
	require.NoError(t, tr.SetMoveList(1, []string{"3c3d", "8c8d"}))

	task := tr.GetSearchTask()
	require.False(t, task.Empty())
	assert.Equal(t, 1, task.PlyDepth)
	assert.Equal(t, "3c3d", task.Move())

	task.Node().Update(SearchDepth(6, 1), 50, ULEExact, 10, "")
	second := tr.GetSearchTask()
	require.False(t, second.Empty())
	assert.Equal(t, 1, second.PlyDepth)
	assert.Equal(t, "8c8d", second.Move())
}

func TestGetSearchTaskEmptyWhenAllDone(t *testing.T) {
	pos := newFakePosition()
	tr := NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))
	tr.SetPV(6, []string{"7g7f"})
	require.NoError(t, tr.SetMoveList(0, []string{"7g7f"}))

	task := tr.GetSearchTask()
	require.False(t, task.Empty())
	depth := SearchDepth(6, 0)
	task.Node().Update(depth, 0, ULEExact, 1, "")

	assert.True(t, tr.GetSearchTask().Empty())
}

func TestMakeMoveRootAdvancesRootAndResetsRows(t *testing.T) {
	pos := newFakePosition()
	tr := NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))
	tr.SetPV(6, []string{"7g7f"})
	require.NoError(t, tr.SetMoveList(0, []string{"7g7f"}))

	require.NoError(t, tr.MakeMoveRoot("7g7f", 2))

	assert.Equal(t, 2, tr.PositionID())
	assert.Equal(t, 0, tr.RowCount())
	assert.Equal(t, []string{"7g7f"}, pos.stack)
}

// MakeMoveRoot on an illegal move must roll back entirely: no state
// change to the tree and no partial mutation of the position.
func TestMakeMoveRootRejectsIllegalMove(t *testing.T) {
	pos := newFakePosition()
	pos.illegal["9i9h"] = true
	tr := NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))
	tr.SetPV(6, []string{"7g7f"})

	err := tr.MakeMoveRoot("9i9h", 2)
	require.Error(t, err)
	assert.Equal(t, 1, tr.PositionID())
	assert.Equal(t, 1, tr.RowCount())
	assert.Empty(t, pos.stack)
}

func TestMoveListFromSFENDropsIllegalAndLeavesPositionUnchanged(t *testing.T) {
	pos := newFakePosition()
	pos.illegal["8c8d"] = true
	tr := NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))
	tr.SetPV(6, []string{"7g7f", "3c3d"})

	moves, err := tr.MoveListFromSFEN(1, []string{"3c3d", "8c8d"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3c3d"}, moves)
	assert.Empty(t, pos.stack, "position must be restored after the scoped replay")
}

func TestCommitRetiresRowAndPullsAlphaUp(t *testing.T) {
	pos := newFakePosition()
	tr := NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))
	tr.SetPV(6, []string{"7g7f", "3c3d"})
	require.NoError(t, tr.SetMoveList(0, []string{"7g7f"}))
	require.NoError(t, tr.SetMoveList(1, []string{"3c3d"}))

	tr.Row(1).UpdateValue(42, KindAlpha)
	require.NoError(t, tr.Commit(1))

	assert.Equal(t, 0, tr.LastPlyDepth())
	assert.Equal(t, -42, tr.Row(0).Alpha)
	assert.Equal(t, NegInf, tr.Row(0).Gamma)
}

func TestNotifyIgnoresStaleValue(t *testing.T) {
	pos := newFakePosition()
	tr := NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))
	tr.SetPV(6, []string{"7g7f", "3c3d"})
	require.NoError(t, tr.Start(1, 50, PosInf))

	require.NoError(t, tr.Notify(1, 10))
	assert.Equal(t, 50, tr.Row(1).Alpha, "a stale notify must not move alpha backward")
}
