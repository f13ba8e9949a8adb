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
	"strconv"
	"strings"

	"github.com/kakiage/rsishogi/internal/util"
)

// StartSFEN is the standard shogi starting position.
const StartSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

const boardSize = 81

// Square is a board index 0..80: square(file, rank) = (rank-1)*9 + (file-1),
// file and rank both 1..9.
type Square int

func square(file, rank int) Square { return Square((rank-1)*9 + (file - 1)) }

func (sq Square) file() int { return int(sq)%9 + 1 }
func (sq Square) rank() int { return int(sq)/9 + 1 }

func (sq Square) String() string {
	return fmt.Sprintf("%d%c", sq.file(), 'a'+sq.rank()-1)
}

func parseSquare(tok string) (Square, error) {
	if len(tok) != 2 || !util.IsDigit(tok[0]) || !util.IsLower(tok[1]) {
		return 0, fmt.Errorf("engine: malformed square %q", tok)
	}
	file := int(tok[0] - '0')
	rank := int(tok[1] - 'a' + 1)
	if file < 1 || file > 9 || rank < 1 || rank > 9 {
		return 0, fmt.Errorf("engine: square %q out of range", tok)
	}
	return square(file, rank), nil
}

// historyState is one undoable step: the move played plus whatever it
// overwrote, enough to reverse DoMove exactly. Mirrors the teacher's
// StateInfo-list shape (a growable undo stack of small POD records)
// rather than a single two-slot exchange.
type historyState struct {
	moveText      string
	fromSq        Square
	toSq          Square
	movedPiece    Piece
	capturedPiece Piece
	wasDrop       bool
	dropKind      Kind
	wasPromotion  bool
	sideToMove    Color
	moveNumber    int
}

// Position is the compact shogi board: a 9x9 array, one hand per
// side, and an undo history. It implements tree.Position and is the
// pos argument worker.Engine.Search receives.
type Position struct {
	board      [boardSize]Piece
	hand       [2]Hand
	sideToMove Color
	moveNumber int
	kingSquare [2]Square

	history []historyState
}

// NewPosition returns a position set to sfen (StartSFEN if empty).
func NewPosition(sfen string) (*Position, error) {
	p := &Position{}
	if sfen == "" {
		sfen = StartSFEN
	}
	if err := p.SetSFEN(sfen); err != nil {
		return nil, err
	}
	return p, nil
}

// SFEN renders the position in standard board/turn/hand/move-number
// form.
func (p *Position) SFEN() string {
	var b strings.Builder
	for rank := 1; rank <= 9; rank++ {
		run := 0
		for file := 9; file >= 1; file-- {
			pc := p.board[square(file, rank)]
			if pc.isEmpty() {
				run++
				continue
			}
			if run > 0 {
				b.WriteString(strconv.Itoa(run))
				run = 0
			}
			letter := kindLetters[pc.Kind.Demote()]
			if pc.Kind.Promoted() {
				b.WriteByte('+')
			}
			if pc.Color == Black {
				b.WriteByte(letter)
			} else {
				b.WriteByte(letter + ('a' - 'A'))
			}
		}
		if run > 0 {
			b.WriteString(strconv.Itoa(run))
		}
		if rank != 9 {
			b.WriteByte('/')
		}
	}
	b.WriteByte(' ')
	b.WriteString(p.sideToMove.String())
	b.WriteByte(' ')
	hand := p.handSFEN()
	if hand == "" {
		hand = "-"
	}
	b.WriteString(hand)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(p.moveNumber))
	return b.String()
}

// handSFEN orders pieces rook-to-pawn, Black (uppercase) before White.
func (p *Position) handSFEN() string {
	var b strings.Builder
	for color := Black; color <= White; color++ {
		for i := len(handKindByIndex) - 1; i >= 0; i-- {
			n := p.hand[color][i]
			if n == 0 {
				continue
			}
			if n > 1 {
				b.WriteString(strconv.Itoa(n))
			}
			letter := kindLetters[handKindByIndex[i]]
			if color == White {
				letter += 'a' - 'A'
			}
			b.WriteByte(letter)
		}
	}
	return b.String()
}

// SetSFEN replaces the position's board/hand/turn/move-number with
// sfen's, clearing all history.
func (p *Position) SetSFEN(sfen string) error {
	fields := strings.Fields(sfen)
	if len(fields) != 4 {
		return fmt.Errorf("engine: sfen %q: expected 4 fields", sfen)
	}
	var board [boardSize]Piece
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 9 {
		return fmt.Errorf("engine: sfen %q: expected 9 ranks", sfen)
	}
	for i, rankStr := range ranks {
		rank := i + 1
		file := 9
		promoted := false
		for _, ch := range rankStr {
			switch {
			case ch == '+':
				promoted = true
			case ch >= '1' && ch <= '9':
				file -= int(ch - '0')
			default:
				if file < 1 {
					return fmt.Errorf("engine: sfen %q: rank %d overflows", sfen, rank)
				}
				color := Black
				upper := byte(ch)
				if ch >= 'a' && ch <= 'z' {
					color = White
					upper = byte(ch) - ('a' - 'A')
				}
				kind, ok := letterKinds[upper]
				if !ok {
					return fmt.Errorf("engine: sfen %q: unknown piece %q", sfen, string(ch))
				}
				if promoted {
					kind = kind.Promote()
				}
				board[square(file, rank)] = Piece{Color: color, Kind: kind}
				promoted = false
				file--
			}
		}
	}

	var sideToMove Color
	switch fields[1] {
	case "b":
		sideToMove = Black
	case "w":
		sideToMove = White
	default:
		return fmt.Errorf("engine: sfen %q: bad side to move %q", sfen, fields[1])
	}

	var hand [2]Hand
	if fields[2] != "-" {
		count := 0
		for _, ch := range fields[2] {
			if ch >= '0' && ch <= '9' {
				count = count*10 + int(ch-'0')
				continue
			}
			color := Black
			upper := byte(ch)
			if ch >= 'a' && ch <= 'z' {
				color = White
				upper = byte(ch) - ('a' - 'A')
			}
			kind, ok := letterKinds[upper]
			if !ok {
				return fmt.Errorf("engine: sfen %q: unknown hand piece %q", sfen, string(ch))
			}
			if count == 0 {
				count = 1
			}
			hand[color][handIndex(kind)] += count
			count = 0
		}
	}

	moveNumber, err := strconv.Atoi(fields[3])
	if err != nil {
		return fmt.Errorf("engine: sfen %q: bad move number: %w", sfen, err)
	}

	p.board = board
	p.hand = hand
	p.sideToMove = sideToMove
	p.moveNumber = moveNumber
	p.history = nil
	p.recomputeKingSquares()
	return nil
}

func (p *Position) recomputeKingSquares() {
	for sq := Square(0); sq < boardSize; sq++ {
		pc := p.board[sq]
		if pc.Kind == King {
			p.kingSquare[pc.Color] = sq
		}
	}
}

// DoMove applies moveText (board move or drop, see parseMove) without
// any legality check and pushes an undo record. Callers that need
// legality should call IsLegal first; IsLegal itself uses DoMove/
// UndoMove as a probe, so this method must tolerate being called on
// a position that turns out to be left in check afterwards.
func (p *Position) DoMove(moveText string) error {
	m, err := parseMove(moveText)
	if err != nil {
		return err
	}
	color := p.sideToMove
	st := historyState{
		moveText:   moveText,
		sideToMove: color,
		moveNumber: p.moveNumber,
		wasDrop:    m.IsDrop,
		wasPromotion: m.Promote,
	}

	if m.IsDrop {
		st.dropKind = m.DropKind
		st.toSq = m.To
		p.hand[color][handIndex(m.DropKind)]--
		p.board[m.To] = Piece{Color: color, Kind: m.DropKind}
	} else {
		moved := p.board[m.From]
		if moved.isEmpty() {
			return fmt.Errorf("engine: no piece on %s", m.From)
		}
		captured := p.board[m.To]
		st.fromSq = m.From
		st.toSq = m.To
		st.movedPiece = moved
		st.capturedPiece = captured

		if !captured.isEmpty() {
			p.hand[color][handIndex(captured.Kind.Demote())]++
		}
		if m.Promote {
			moved.Kind = moved.Kind.Promote()
		}
		p.board[m.From] = Empty
		p.board[m.To] = moved
		if moved.Kind == King {
			p.kingSquare[color] = m.To
		}
	}

	p.history = append(p.history, st)
	p.sideToMove = color.Opponent()
	p.moveNumber++
	return nil
}

// UndoMove reverses the most recent DoMove. It panics if called with
// an empty history, the same contract as the teacher's StateInfo
// stack unwind.
func (p *Position) UndoMove() {
	n := len(p.history)
	if n == 0 {
		panic("engine: UndoMove called with empty history")
	}
	st := p.history[n-1]
	p.history = p.history[:n-1]
	p.sideToMove = st.sideToMove
	p.moveNumber = st.moveNumber

	if st.wasDrop {
		p.board[st.toSq] = Empty
		p.hand[st.sideToMove][handIndex(st.dropKind)]++
		return
	}

	p.board[st.fromSq] = st.movedPiece
	p.board[st.toSq] = st.capturedPiece
	if !st.capturedPiece.isEmpty() {
		p.hand[st.sideToMove][handIndex(st.capturedPiece.Kind.Demote())]--
	}
	if st.movedPiece.Kind == King {
		p.kingSquare[st.sideToMove] = st.fromSq
	}
}
