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

// SearchTask is a non-owning handle into one row's undone node,
// produced by ClientTree.GetSearchTask. It is only valid for the
// scheduler tick that produced it: any SetPosition, SetPV or
// MakeMoveRoot on the owning tree invalidates every outstanding task
// by discarding the rows it pointed into.
type SearchTask struct {
	PositionID     int
	IterationDepth int
	PlyDepth       int

	// Alpha, Beta, Gamma are a snapshot of the row's window at the
	// moment the task was produced. The worker does not search against
	// this snapshot: Evaluate re-reads the live row's window.
	Alpha int
	Beta  int
	Gamma int

	node *MoveNode
}

// Empty reports whether the task carries no node, i.e. the tree had
// nothing left to search.
func (t SearchTask) Empty() bool {
	return t.node == nil
}

// Node returns the task's move node. Calling it on an empty task
// panics, mirroring the source's null-pointer-dereference contract:
// callers must check Empty first.
func (t SearchTask) Node() *MoveNode {
	if t.node == nil {
		panic("tree: Node called on empty SearchTask")
	}
	return t.node
}

// Move is a convenience accessor for the task's candidate move.
func (t SearchTask) Move() string {
	return t.Node().Move
}

// EffectiveAlpha mirrors MoveRow.EffectiveAlpha over the task's frozen
// snapshot rather than the live row.
func (t SearchTask) EffectiveAlpha() int {
	if t.Alpha > NegInf {
		return t.Alpha
	}
	return t.Gamma
}
