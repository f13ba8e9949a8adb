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

package engine

import (
	"context"
	"time"

	"github.com/kakiage/rsishogi/internal/util"
)

// BenchDepth is the fixed search depth Bench runs on the start
// position. It is deliberately shallow - the number it produces is
// wire content for the login handshake, not a tuning target.
const BenchDepth = 3

// BenchResult is the outcome of a one-shot startup benchmark: node
// count and elapsed time on the start position, the two figures the
// login handshake reports upstream.
type BenchResult struct {
	Nodes   uint64
	Elapsed time.Duration
}

// NPS returns nodes per second.
func (r BenchResult) NPS() uint64 {
	return util.Nps(r.Nodes, r.Elapsed)
}

// Bench runs a fixed-depth search from the start position and reports
// how long it took, mirroring the teacher's perft-style
// "time it, count it" startup self-check.
func Bench() (BenchResult, error) {
	pos, err := NewPosition(StartSFEN)
	if err != nil {
		return BenchResult{}, err
	}
	s := NewSearcher()
	counting := &countingSearcher{inner: s}

	start := time.Now()
	counting.Search(context.Background(), pos, NegInfinity, PosInfinity, BenchDepth)
	elapsed := time.Since(start)
	searchLog.Debug(util.GcWithStats())

	return BenchResult{Nodes: counting.nodes, Elapsed: elapsed}, nil
}

// NegInfinity and PosInfinity bound a full-width root search window.
const (
	NegInfinity = -1 << 20
	PosInfinity = 1 << 20
)

// countingSearcher wraps a Searcher to count visited nodes for Bench,
// without burdening the hot negamax loop with a counter it doesn't
// otherwise need.
type countingSearcher struct {
	inner *Searcher
	nodes uint64
}

func (c *countingSearcher) Search(ctx context.Context, pos *Position, alpha, beta, depth int) (int, []string, bool) {
	return c.negamax(ctx, pos, alpha, beta, depth)
}

func (c *countingSearcher) negamax(ctx context.Context, p *Position, alpha, beta, depth int) (int, []string, bool) {
	c.nodes++
	select {
	case <-ctx.Done():
		return 0, nil, false
	default:
	}
	if depth <= 0 {
		return evaluate(p), nil, true
	}
	moves := p.GenerateLegalMoves()
	if len(moves) == 0 {
		if p.InCheck() {
			return -mateIn(0), nil, true
		}
		return 0, nil, true
	}
	best := minInt
	var bestPV []string
	for _, m := range moves {
		move := m.String()
		if err := p.DoMove(move); err != nil {
			continue
		}
		value, childPV, completed := c.negamax(ctx, p, -beta, -alpha, depth-1)
		p.UndoMove()
		if !completed {
			return 0, nil, false
		}
		value = -value
		if value > best {
			best = value
			bestPV = append([]string{move}, childPV...)
		}
		if value > alpha {
			alpha = value
		}
		if alpha >= beta {
			break
		}
	}
	return best, bestPV, true
}
