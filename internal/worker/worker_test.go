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

package worker

import (
	"context"
	"os"
	"path"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kakiage/rsishogi/internal/config"
	"github.com/kakiage/rsishogi/internal/protocol"
	"github.com/kakiage/rsishogi/internal/tree"
)

func init() {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "../..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
	config.Setup()
}

type fakePosition struct {
	stack   []string
	inCheck bool
}

func (p *fakePosition) SFEN() string             { return "fake" }
func (p *fakePosition) SetSFEN(string) error      { return nil }
func (p *fakePosition) IsLegal(string) bool       { return true }
func (p *fakePosition) DoMove(move string) error  { p.stack = append(p.stack, move); return nil }
func (p *fakePosition) UndoMove()                 { p.stack = p.stack[:len(p.stack)-1] }
func (p *fakePosition) InCheck() bool             { return p.inCheck }

// scriptedEngine returns one canned result per call, in order.
type scriptedEngine struct {
	results []scriptedResult
	calls   int
}

type scriptedResult struct {
	value     int
	pv        []string
	completed bool
}

func (e *scriptedEngine) Search(_ context.Context, _ tree.Position, _, _, _ int) (int, []string, bool) {
	r := e.results[e.calls]
	e.calls++
	return r.value, r.pv, r.completed
}

func newTestTree(t *testing.T, inCheck bool) (*tree.ClientTree, *fakePosition) {
	t.Helper()
	pos := &fakePosition{inCheck: inCheck}
	tr := tree.NewClientTree(pos)
	require.NoError(t, tr.SetPosition("", true, 1))
	tr.SetPV(6, []string{"7g7f"})
	require.NoError(t, tr.SetMoveList(0, []string{"3c3d"}))
	return tr, pos
}

func TestEvaluateNullWindowHoldsReturnsUnupdatedReply(t *testing.T) {
	tr, _ := newTestTree(t, false)
	require.NoError(t, tr.Start(0, 50, tree.PosInf))
	// null-window probe fails to beat alpha: v = -10 <= alpha = 50.
	eng := &scriptedEngine{results: []scriptedResult{{value: 10, completed: true}}}
	ev := NewEvaluator(tr, eng)

	task := tr.GetSearchTask()
	require.False(t, task.Empty())

	reply, ok := ev.Evaluate(context.Background(), task)
	require.True(t, ok)
	assert.Equal(t, protocol.ReplyUpdateValue, reply.Kind)
	assert.Equal(t, 10, reply.Value)
	assert.Empty(t, reply.PV)
}

func TestEvaluateResearchImprovesAndNotifies(t *testing.T) {
	tr, _ := newTestTree(t, false)
	require.NoError(t, tr.Start(0, tree.NegInf, tree.PosInf))
	// null-window probe: value=-200 (from child perspective) -> v = 200 > alpha(-inf effectively via row.EffectiveAlpha==NegInf)
	// research: value=-300 -> v=300
	eng := &scriptedEngine{results: []scriptedResult{
		{value: -200, completed: true},
		{value: -300, pv: []string{"8c8d"}, completed: true},
	}}
	ev := NewEvaluator(tr, eng)

	task := tr.GetSearchTask()
	require.False(t, task.Empty())

	reply, ok := ev.Evaluate(context.Background(), task)
	require.True(t, ok)
	assert.Equal(t, -300, reply.Value)
	assert.Equal(t, []string{"8c8d"}, reply.PV)
}

func TestEvaluateAbortedProbeReturnsNotOk(t *testing.T) {
	tr, _ := newTestTree(t, false)
	eng := &scriptedEngine{results: []scriptedResult{{completed: false}}}
	ev := NewEvaluator(tr, eng)

	task := tr.GetSearchTask()
	require.False(t, task.Empty())

	_, ok := ev.Evaluate(context.Background(), task)
	assert.False(t, ok)
}

func TestEvaluateStaleTaskReturnsNotOk(t *testing.T) {
	tr, _ := newTestTree(t, false)
	ev := NewEvaluator(tr, &scriptedEngine{})

	task := tr.GetSearchTask()
	require.False(t, task.Empty())

	// tree moves on to a new position before the worker gets to run.
	require.NoError(t, tr.SetPosition("", true, 2))

	_, ok := ev.Evaluate(context.Background(), task)
	assert.False(t, ok)
}

func TestEvaluateMateInOneCornerCase(t *testing.T) {
	tr, _ := newTestTree(t, true)
	ev := NewEvaluator(tr, &scriptedEngine{})

	task := tr.GetSearchTask()
	require.False(t, task.Empty())

	reply, ok := ev.Evaluate(context.Background(), task)
	require.True(t, ok)
	mate := mateIn(1)
	assert.Equal(t, mate, reply.Value)
	assert.Equal(t, mate, reply.Alpha)
	assert.Equal(t, mate+1, reply.Beta)

	// UpdateWindow classifies (mate, mate, mate+1) as an UPPER result
	// (value <= lower), which at a fresh depth resets Lower to -inf
	// rather than collapsing the window - this mirrors the reference
	// implementation's MoveNode::update exactly.
	node := task.Node()
	assert.Equal(t, tree.DecisiveDepth, node.Depth)
	assert.Equal(t, tree.NegInf, node.Lower)
	assert.Equal(t, mate, node.Upper)
}

func TestEvaluateRestoresPositionAfterScopedPlay(t *testing.T) {
	tr, pos := newTestTree(t, false)
	eng := &scriptedEngine{results: []scriptedResult{{value: 10, completed: true}}}
	ev := NewEvaluator(tr, eng)

	task := tr.GetSearchTask()
	require.False(t, task.Empty())

	_, _ = ev.Evaluate(context.Background(), task)
	assert.Empty(t, pos.stack, "worker must undo every move it played")
}
