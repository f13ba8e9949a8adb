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

// Package worker implements the client's single evaluation step: given
// a non-empty tree.SearchTask, play the candidate move in a scoped
// position, probe it with a null-window search and (if that probe
// beats alpha) a full-window research, then fold the result back into
// the node and produce the updatevalue reply.
package worker

import (
	"context"
	"time"

	"github.com/op/go-logging"
	"golang.org/x/sync/semaphore"

	rsilog "github.com/kakiage/rsishogi/internal/logging"
	"github.com/kakiage/rsishogi/internal/protocol"
	"github.com/kakiage/rsishogi/internal/tree"
	"github.com/kakiage/rsishogi/internal/util"
)

// MateValue anchors the worker's mate-distance scale: a forced mate in
// n plies is reported as MateValue-n.
const MateValue = 30000

func mateIn(plies int) int { return MateValue - plies }

// Engine is the single synchronous call the worker needs from the
// search backend: evaluate pos within [alpha, beta] to depth, honoring
// ctx cancellation. completed is false when ctx was cancelled (or the
// engine otherwise aborted) before finishing; the caller must then
// discard the result rather than trust value/pv.
type Engine interface {
	Search(ctx context.Context, pos tree.Position, alpha, beta, depth int) (value int, pv []string, completed bool)
}

// Evaluator runs the worker procedure against one ClientTree using one
// Engine. A semaphore guards against re-entrant Evaluate calls - the
// scheduler only ever runs one at a time, but the guard costs nothing
// and documents the invariant.
type Evaluator struct {
	tr  *tree.ClientTree
	eng Engine
	sem *semaphore.Weighted
	log *logging.Logger
}

// NewEvaluator returns an Evaluator operating on tr via eng.
func NewEvaluator(tr *tree.ClientTree, eng Engine) *Evaluator {
	return &Evaluator{
		tr:  tr,
		eng: eng,
		sem: semaphore.NewWeighted(1),
		log: rsilog.GetLog(),
	}
}

// Evaluate implements scheduler.Worker.
func (e *Evaluator) Evaluate(ctx context.Context, task tree.SearchTask) (protocol.Reply, bool) {
	defer util.TimeTrack(time.Now(), "worker: evaluate")
	if !e.sem.TryAcquire(1) {
		e.log.Warning("worker: evaluate called while already running")
		return protocol.Reply{}, false
	}
	defer e.sem.Release(1)

	if e.tr.PositionID() != task.PositionID || e.tr.IterationDepth() != task.IterationDepth {
		e.log.Noticef("worker: stale task pid=%d itd=%d, tree is now pid=%d itd=%d",
			task.PositionID, task.IterationDepth, e.tr.PositionID(), e.tr.IterationDepth())
		return protocol.Reply{}, false
	}
	row := e.tr.Row(task.PlyDepth)
	if row == nil {
		e.log.Errorf("worker: no row at pld=%d", task.PlyDepth)
		return protocol.Reply{}, false
	}

	alpha := row.EffectiveAlpha()
	beta := row.Beta
	depth := tree.SearchDepth(task.IterationDepth, task.PlyDepth) - tree.DepthOnePly
	move := task.Move()
	node := task.Node()

	var out evalResult
	err := e.tr.WithNode(task.PlyDepth, move, func(pos tree.Position) error {
		out = e.evaluateNode(ctx, pos, alpha, beta, depth)
		return nil
	})
	if err != nil {
		e.log.Errorf("worker: scoped node acquisition failed for move %q: %v", move, err)
		return protocol.Reply{}, false
	}
	if !out.completed {
		return protocol.Reply{}, false
	}

	if out.updated {
		if err := e.tr.Notify(task.PlyDepth, out.value); err != nil {
			e.log.Errorf("worker: notify: %v", err)
		}
	}

	if out.decisive {
		node.UpdateWindow(tree.DecisiveDepth, out.value, out.value, out.value+1, 0, "")
		return protocol.Reply{
			Kind:           protocol.ReplyUpdateValue,
			PositionID:     task.PositionID,
			IterationDepth: task.IterationDepth,
			PlyDepth:       task.PlyDepth,
			MoveSFEN:       move,
			Value:          out.value,
			Alpha:          out.value,
			Beta:           out.value + 1,
			Nodes:          0,
		}, true
	}

	parentValue := -out.value
	parentAlpha := -beta
	parentBeta := -alpha
	bestMove := ""
	if len(out.pv) > 0 {
		bestMove = out.pv[0]
	}
	node.UpdateWindow(depth+tree.DepthOnePly, parentValue, parentAlpha, parentBeta, 0, bestMove)

	return protocol.Reply{
		Kind:           protocol.ReplyUpdateValue,
		PositionID:     task.PositionID,
		IterationDepth: task.IterationDepth,
		PlyDepth:       task.PlyDepth,
		MoveSFEN:       move,
		Value:          parentValue,
		Alpha:          parentAlpha,
		Beta:           parentBeta,
		Nodes:          0,
		PV:             out.pv,
	}, true
}

type evalResult struct {
	completed bool
	decisive  bool
	updated   bool
	value     int
	pv        []string
}

// evaluateNode runs steps 3-5 of the worker procedure against pos,
// which is already the position with the candidate move played.
func (e *Evaluator) evaluateNode(ctx context.Context, pos tree.Position, alpha, beta, depth int) evalResult {
	if pos.InCheck() {
		return evalResult{completed: true, decisive: true, value: mateIn(1)}
	}

	r0Value, _, r0Completed := e.eng.Search(ctx, pos, -alpha-1, -alpha, depth)
	if !r0Completed {
		return evalResult{completed: false}
	}
	v := -r0Value

	if v > alpha {
		r1Value, r1PV, r1Completed := e.eng.Search(ctx, pos, -beta, -alpha, depth)
		if !r1Completed {
			return evalResult{completed: false}
		}
		v = -r1Value
		if alpha < v {
			return evalResult{completed: true, updated: true, value: v, pv: filterNullMoves(r1PV)}
		}
	}
	return evalResult{completed: true, value: v}
}

func filterNullMoves(pv []string) []string {
	out := make([]string, 0, len(pv))
	for _, m := range pv {
		if m == "" || m == "none" {
			continue
		}
		out = append(out, m)
	}
	return out
}
