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
	"fmt"

	rsilog "github.com/kakiage/rsishogi/internal/logging"
	"github.com/kakiage/rsishogi/internal/tree"
	"github.com/kakiage/rsishogi/internal/util"
)

var searchLog = rsilog.GetSearchLog()

// pieceValue is a plain material table, promoted pieces worth more
// than their base form. Good enough to give the search something to
// maximize; not a tuned evaluation.
var pieceValue = map[Kind]int{
	Pawn: 100, Lance: 300, Knight: 320, Silver: 500, Gold: 550,
	Bishop: 800, Rook: 900, King: 0,
	ProPawn: 500, ProLance: 550, ProKnight: 550, ProSilver: 550,
	Horse: 1100, Dragon: 1200,
}

// handValue counts captured material at a discount to the board
// value of the same piece, mirroring the usual shogi heuristic that a
// piece in hand is worth slightly less than one on the board.
func handValue(h Hand) int {
	total := 0
	for i, n := range h {
		total += n * pieceValue[handKindByIndex[i]] * 9 / 10
	}
	return total
}

// evaluate scores pos from the side-to-move's perspective: positive
// favors the mover.
func evaluate(p *Position) int {
	score := 0
	for sq := Square(0); sq < boardSize; sq++ {
		pc := p.board[sq]
		if pc.isEmpty() {
			continue
		}
		v := pieceValue[pc.Kind]
		if pc.Color == p.sideToMove {
			score += v
		} else {
			score -= v
		}
	}
	score += handValue(p.hand[p.sideToMove])
	score -= handValue(p.hand[p.sideToMove.Opponent()])
	return score
}

// Searcher is a plain negamax searcher with alpha-beta pruning. It
// implements worker.Engine. No transposition table, no quiescence,
// no move ordering beyond generation order - a working stand-in for
// the evaluator the distributed search treats as an opaque external
// collaborator.
type Searcher struct{}

// NewSearcher returns a ready-to-use Searcher.
func NewSearcher() *Searcher { return &Searcher{} }

// Search implements worker.Engine. pos must be a *Position; any other
// tree.Position implementation is a programming error.
func (s *Searcher) Search(ctx context.Context, pos tree.Position, alpha, beta, depth int) (int, []string, bool) {
	p, ok := pos.(*Position)
	if !ok {
		panic(fmt.Sprintf("engine: Search given unsupported position type %T", pos))
	}
	return s.negamax(ctx, p, alpha, beta, depth)
}

func (s *Searcher) negamax(ctx context.Context, p *Position, alpha, beta, depth int) (int, []string, bool) {
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
		value, childPV, completed := s.negamax(ctx, p, -beta, -alpha, depth-1)
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
	if isMateScore(best) {
		searchLog.Debug(rsilog.Out.Sprintf("engine: mate score %d at depth %d", best, depth))
	}
	return best, bestPV, true
}

// mateIn mirrors worker.MateValue's scale without importing the
// worker package (which itself depends on tree, not engine) - a
// forced mate in n plies is worth MateValue-n.
func mateIn(plies int) int { return 30000 - plies }

// mateScoreThreshold is the magnitude above which a value is reported
// as a forced mate rather than a material score.
const mateScoreThreshold = 29000

// isMateScore reports whether v falls in the mate-distance band
// mateIn produces, the same magnitude test FrankyGo's own
// types.Value uses to classify a search score as a mate score.
func isMateScore(v int) bool {
	return util.Abs(v) > mateScoreThreshold
}

const minInt = -1 << 31
