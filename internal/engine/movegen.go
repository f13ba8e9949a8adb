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
	"fmt"
	"strings"

	"github.com/kakiage/rsishogi/internal/util"
)

// Move is a parsed board move or drop. Promote applies only to board
// moves; drops are never promoted.
type Move struct {
	IsDrop   bool
	DropKind Kind
	From     Square
	To       Square
	Promote  bool
}

func (m Move) String() string {
	if m.IsDrop {
		return fmt.Sprintf("%s*%s", string(kindLetters[m.DropKind]), m.To)
	}
	s := m.From.String() + m.To.String()
	if m.Promote {
		s += "+"
	}
	return s
}

func parseMove(text string) (Move, error) {
	if strings.Contains(text, "*") {
		parts := strings.SplitN(text, "*", 2)
		if len(parts) != 2 || len(parts[0]) != 1 || !util.IsAlpha(parts[0][0]) {
			return Move{}, fmt.Errorf("engine: malformed drop %q", text)
		}
		kind, ok := letterKinds[parts[0][0]]
		if !ok {
			return Move{}, fmt.Errorf("engine: unknown drop piece %q", text)
		}
		to, err := parseSquare(parts[1])
		if err != nil {
			return Move{}, err
		}
		return Move{IsDrop: true, DropKind: kind, To: to}, nil
	}

	promote := false
	if strings.HasSuffix(text, "+") {
		promote = true
		text = text[:len(text)-1]
	}
	if len(text) != 4 {
		return Move{}, fmt.Errorf("engine: malformed move %q", text)
	}
	from, err := parseSquare(text[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := parseSquare(text[2:])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to, Promote: promote}, nil
}

// forwardSign is +1 for White (ranks increase) and -1 for Black
// (ranks decrease), matching this package's SFEN rank orientation.
func forwardSign(c Color) int {
	if c == Black {
		return -1
	}
	return 1
}

type step struct{ df, dr int }

var goldSteps = []step{{0, 1}, {1, 1}, {-1, 1}, {1, 0}, {-1, 0}, {0, -1}}
var silverSteps = []step{{0, 1}, {1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
var kingSteps = []step{{0, 1}, {0, -1}, {1, 0}, {-1, 0}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = []step{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
var bishopDirs = []step{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

// destinations returns the pseudo-legal destination squares of a
// piece of kind k, color c, sitting at sq - board blocking respected,
// check safety not. Gold-pattern and stepping pieces use forward-
// relative steps; Bishop/Rook/their promotions use absolute
// directions since diagonals and files don't depend on color.
func (p *Position) destinations(sq Square, pc Piece) []Square {
	fwd := forwardSign(pc.Color)
	var out []Square

	stepTo := func(s step) (Square, bool) {
		file := sq.file() + s.df
		rank := sq.rank() + s.dr*fwd
		if file < 1 || file > 9 || rank < 1 || rank > 9 {
			return 0, false
		}
		return square(file, rank), true
	}

	addStep := func(s step) {
		to, ok := stepTo(s)
		if !ok {
			return
		}
		if occ := p.board[to]; occ.isEmpty() || occ.Color != pc.Color {
			out = append(out, to)
		}
	}

	slide := func(df, dr int) {
		file, rank := sq.file(), sq.rank()
		for {
			file += df
			rank += dr
			if file < 1 || file > 9 || rank < 1 || rank > 9 {
				return
			}
			to := square(file, rank)
			occ := p.board[to]
			if occ.isEmpty() {
				out = append(out, to)
				continue
			}
			if occ.Color != pc.Color {
				out = append(out, to)
			}
			return
		}
	}

	switch pc.Kind {
	case Pawn:
		addStep(step{0, 1})
	case Lance:
		slide(0, fwd)
	case Knight:
		addStep(step{1, 2})
		addStep(step{-1, 2})
	case Silver:
		for _, s := range silverSteps {
			addStep(s)
		}
	case Gold, ProPawn, ProLance, ProKnight, ProSilver:
		for _, s := range goldSteps {
			addStep(s)
		}
	case King:
		for _, s := range kingSteps {
			addStep(s)
		}
	case Bishop:
		for _, d := range bishopDirs {
			slide(d.df, d.dr)
		}
	case Rook:
		for _, d := range rookDirs {
			slide(d.df, d.dr)
		}
	case Horse:
		for _, d := range bishopDirs {
			slide(d.df, d.dr)
		}
		for _, d := range rookDirs {
			addStep(d)
		}
	case Dragon:
		for _, d := range rookDirs {
			slide(d.df, d.dr)
		}
		for _, d := range bishopDirs {
			addStep(d)
		}
	}
	return out
}

// attacked reports whether sq is reachable by any byColor piece,
// ignoring whose turn it is - used for check detection.
func (p *Position) attacked(sq Square, byColor Color) bool {
	for from := Square(0); from < boardSize; from++ {
		pc := p.board[from]
		if pc.isEmpty() || pc.Color != byColor {
			continue
		}
		for _, to := range p.destinations(from, pc) {
			if to == sq {
				return true
			}
		}
	}
	return false
}

// InCheck reports whether the side to move's king is attacked.
func (p *Position) InCheck() bool {
	return p.attacked(p.kingSquare[p.sideToMove], p.sideToMove.Opponent())
}

// promotionZone reports whether rank is in c's promotion zone (the
// far three ranks).
func promotionZone(c Color, rank int) bool {
	if c == Black {
		return rank <= 3
	}
	return rank >= 7
}

// mustPromote reports whether a piece of kind k belonging to c
// stranded on rank would have no legal further moves unpromoted
// (Pawn/Lance on the far rank, Knight on the far two ranks).
func mustPromote(c Color, k Kind, rank int) bool {
	lastRank, secondLastRank := 1, 2
	if c == White {
		lastRank, secondLastRank = 9, 8
	}
	switch k {
	case Pawn, Lance:
		return rank == lastRank
	case Knight:
		return rank == lastRank || rank == secondLastRank
	default:
		return false
	}
}

// IsLegal reports whether moveText is a legal move or drop in the
// current position: well-formed, moving/dropping the side to move's
// own material onto a reachable square, respecting the no-pawn-drop-
// on-a-file-with-your-own-unpromoted-pawn (nifu) and dead-drop rules,
// and not leaving the mover's own king in check.
func (p *Position) IsLegal(moveText string) bool {
	m, err := parseMove(moveText)
	if err != nil {
		return false
	}
	color := p.sideToMove

	if m.IsDrop {
		if !m.DropKind.Droppable() || p.hand[color][handIndex(m.DropKind)] <= 0 {
			return false
		}
		if !p.board[m.To].isEmpty() {
			return false
		}
		if mustPromote(color, m.DropKind, m.To.rank()) {
			return false
		}
		if m.DropKind == Pawn {
			for rank := 1; rank <= 9; rank++ {
				if other := p.board[square(m.To.file(), rank)]; other.Color == color && other.Kind == Pawn {
					return false
				}
			}
		}
	} else {
		pc := p.board[m.From]
		if pc.isEmpty() || pc.Color != color {
			return false
		}
		target := p.board[m.To]
		if !target.isEmpty() && target.Color == color {
			return false
		}
		reachable := false
		for _, to := range p.destinations(m.From, pc) {
			if to == m.To {
				reachable = true
				break
			}
		}
		if !reachable {
			return false
		}
		if m.Promote {
			if pc.Kind.Promoted() || pc.Kind == Gold || pc.Kind == King {
				return false
			}
			if !promotionZone(color, m.From.rank()) && !promotionZone(color, m.To.rank()) {
				return false
			}
		} else if mustPromote(color, pc.Kind, m.To.rank()) {
			return false
		}
	}

	if err := p.DoMove(moveText); err != nil {
		return false
	}
	defer p.UndoMove()
	return !p.attacked(p.kingSquare[color], color.Opponent())
}

// GenerateLegalMoves enumerates every legal move and drop for the
// side to move, in arbitrary order. It is the core's move source for
// search - a toy move generator good enough for a non-tournament
// evaluator, not a performance-tuned one.
func (p *Position) GenerateLegalMoves() []Move {
	var moves []Move
	color := p.sideToMove

	for from := Square(0); from < boardSize; from++ {
		pc := p.board[from]
		if pc.isEmpty() || pc.Color != color {
			continue
		}
		for _, to := range p.destinations(from, pc) {
			candidates := []Move{{From: from, To: to}}
			canPromote := !pc.Kind.Promoted() && pc.Kind != Gold && pc.Kind != King &&
				(promotionZone(color, from.rank()) || promotionZone(color, to.rank()))
			if canPromote {
				candidates = append(candidates, Move{From: from, To: to, Promote: true})
			}
			for _, m := range candidates {
				if mustPromote(color, pc.Kind, to.rank()) && !m.Promote {
					continue
				}
				if p.IsLegal(m.String()) {
					moves = append(moves, m)
				}
			}
		}
	}

	for i, n := range p.hand[color] {
		if n <= 0 {
			continue
		}
		kind := handKindByIndex[i]
		for to := Square(0); to < boardSize; to++ {
			if !p.board[to].isEmpty() {
				continue
			}
			m := Move{IsDrop: true, DropKind: kind, To: to}
			if p.IsLegal(m.String()) {
				moves = append(moves, m)
			}
		}
	}

	return moves
}
