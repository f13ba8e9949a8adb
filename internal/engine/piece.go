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

// Package engine is the minimal shogi rules/evaluation backend behind
// the tree.Position and worker.Engine interfaces. Spec-wise this is an
// external collaborator - the distributed search core never reaches
// into it beyond that fixed operation set - so it favors a working,
// readable ruleset over tournament-strength move generation or
// evaluation.
package engine

// Color is one of the two sides.
type Color int8

const (
	Black Color = iota
	White
)

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == Black {
		return White
	}
	return Black
}

func (c Color) String() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// Kind is a piece type, unpromoted values 1-8, promoted values 9-14.
// Gold and King never promote.
type Kind int8

const (
	KindNone Kind = iota
	Pawn
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	ProPawn
	ProLance
	ProKnight
	ProSilver
	Horse
	Dragon
)

var kindLetters = map[Kind]byte{
	Pawn: 'P', Lance: 'L', Knight: 'N', Silver: 'S', Gold: 'G',
	Bishop: 'B', Rook: 'R', King: 'K',
}

var letterKinds = map[byte]Kind{
	'P': Pawn, 'L': Lance, 'N': Knight, 'S': Silver, 'G': Gold,
	'B': Bishop, 'R': Rook, 'K': King,
}

// Promoted reports whether k is a promoted piece kind.
func (k Kind) Promoted() bool { return k >= ProPawn }

// Promote returns k's promoted form, or k unchanged if it cannot
// promote (Gold, King, or already promoted).
func (k Kind) Promote() Kind {
	switch k {
	case Pawn, Lance, Knight, Silver, Bishop, Rook:
		return k + 8
	default:
		return k
	}
}

// Demote returns k's unpromoted form (itself if already unpromoted).
func (k Kind) Demote() Kind {
	if k.Promoted() {
		return k - 8
	}
	return k
}

// Droppable reports whether k can be dropped from hand (every piece
// except King; promoted pieces are never held in hand).
func (k Kind) Droppable() bool {
	return k != KindNone && k != King && !k.Promoted()
}

func (k Kind) String() string {
	base := k.Demote()
	letter, ok := kindLetters[base]
	if !ok {
		return "?"
	}
	s := string(letter)
	if k.Promoted() {
		return "+" + s
	}
	return s
}

// Piece is a (color, kind) pair packed into one byte-ish value. The
// zero value is the empty square.
type Piece struct {
	Color Color
	Kind  Kind
}

// Empty is the zero Piece, meaning no piece on a square.
var Empty = Piece{}

func (p Piece) isEmpty() bool { return p.Kind == KindNone }

func (p Piece) String() string {
	if p.isEmpty() {
		return "."
	}
	s := p.Kind.String()
	if p.Color == White {
		return "v" + s
	}
	return s
}

// HandIndex maps a droppable kind to its slot in a Hand.
func handIndex(k Kind) int {
	switch k.Demote() {
	case Pawn:
		return 0
	case Lance:
		return 1
	case Knight:
		return 2
	case Silver:
		return 3
	case Gold:
		return 4
	case Bishop:
		return 5
	case Rook:
		return 6
	default:
		return -1
	}
}

var handKindByIndex = [7]Kind{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook}

// Hand counts captured-and-held pieces by kind, indexed via
// handIndex.
type Hand [7]int
