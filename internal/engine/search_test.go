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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchReturnsCompletedOnPlainPosition(t *testing.T) {
	p, err := NewPosition(StartSFEN)
	require.NoError(t, err)
	s := NewSearcher()
	value, pv, completed := s.Search(context.Background(), p, NegInfinity, PosInfinity, 2)
	assert.True(t, completed)
	assert.NotEmpty(t, pv)
	_ = value
}

func TestSearchRestoresPositionAfterRecursion(t *testing.T) {
	p, err := NewPosition(StartSFEN)
	require.NoError(t, err)
	before := p.SFEN()
	s := NewSearcher()
	_, _, completed := s.Search(context.Background(), p, NegInfinity, PosInfinity, 3)
	require.True(t, completed)
	assert.Equal(t, before, p.SFEN())
}

func TestSearchAbortsOnCancelledContext(t *testing.T) {
	p, err := NewPosition(StartSFEN)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSearcher()
	_, _, completed := s.Search(ctx, p, NegInfinity, PosInfinity, 3)
	assert.False(t, completed)
}

func TestSearchPanicsOnUnsupportedPositionType(t *testing.T) {
	s := NewSearcher()
	assert.Panics(t, func() {
		s.Search(context.Background(), fakePosition{}, 0, 0, 1)
	})
}

type fakePosition struct{}

func (fakePosition) SFEN() string            { return "" }
func (fakePosition) SetSFEN(string) error    { return nil }
func (fakePosition) IsLegal(string) bool     { return false }
func (fakePosition) DoMove(string) error     { return nil }
func (fakePosition) UndoMove()               {}
func (fakePosition) InCheck() bool           { return false }

func TestBenchReportsNodesAndElapsed(t *testing.T) {
	result, err := Bench()
	require.NoError(t, err)
	assert.Greater(t, result.Nodes, uint64(0))
}

func TestEvaluateFavorsMaterialAdvantage(t *testing.T) {
	up, err := NewPosition("4k4/9/9/9/9/9/9/9/3RK4 b - 1")
	require.NoError(t, err)
	even, err := NewPosition("4k4/9/9/9/9/9/9/9/4K4 b - 1")
	require.NoError(t, err)
	assert.Greater(t, evaluate(up), evaluate(even))
}
