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

package scheduler

import (
	"context"
	"os"
	"path"
	"runtime"
	"sync"
	"testing"
	"time"

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

type fakePosition struct{ sfen string }

func (p *fakePosition) SFEN() string             { return p.sfen }
func (p *fakePosition) SetSFEN(sfen string) error { p.sfen = sfen; return nil }
func (p *fakePosition) IsLegal(string) bool       { return true }
func (p *fakePosition) DoMove(string) error       { return nil }
func (p *fakePosition) UndoMove()                 {}
func (p *fakePosition) InCheck() bool             { return false }

type fakeSender struct {
	mu     sync.Mutex
	sent   []string
	closed bool
}

func (f *fakeSender) Send(text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeWorker reports every task done with a fixed reply, optionally
// blocking until its context is cancelled so tests can exercise
// preemption.
type fakeWorker struct {
	block    bool
	unblock  chan struct{}
	evalHit  chan struct{}
	replyVal int
}

func (w *fakeWorker) Evaluate(ctx context.Context, task tree.SearchTask) (protocol.Reply, bool) {
	if w.evalHit != nil {
		select {
		case w.evalHit <- struct{}{}:
		default:
		}
	}
	if w.block {
		select {
		case <-ctx.Done():
			return protocol.Reply{}, false
		case <-w.unblock:
		}
	}
	return protocol.Reply{
		Kind:           protocol.ReplyUpdateValue,
		PositionID:     task.PositionID,
		IterationDepth: task.IterationDepth,
		PlyDepth:       task.PlyDepth,
		MoveSFEN:       task.Move(),
		Value:          w.replyVal,
	}, true
}

func newTestTree(t *testing.T) *tree.ClientTree {
	t.Helper()
	tr := tree.NewClientTree(&fakePosition{})
	require.NoError(t, tr.SetPosition("", true, 1))
	return tr
}

func TestSchedulerProcessesSetPositionCommand(t *testing.T) {
	tr := newTestTree(t)
	sender := &fakeSender{}
	sched := New(tr, &fakeWorker{}, sender, time.Millisecond)

	sched.OnFrame("setposition 7 startpos")
	sched.dispatch(mustParse(t, "setposition 7 startpos"))

	assert.Equal(t, 7, tr.PositionID())
}

func TestSchedulerDropsCommandForWrongPositionID(t *testing.T) {
	tr := newTestTree(t)
	sched := New(tr, &fakeWorker{}, &fakeSender{}, time.Millisecond)
	tr.SetPV(6, []string{"7g7f"})

	sched.dispatch(mustParse(t, "commit 99 6 0"))

	assert.Equal(t, 0, tr.LastPlyDepth(), "commit for the wrong pid must be dropped, not applied")
}

func TestSchedulerQuitStopsLoopAndClosesSender(t *testing.T) {
	tr := newTestTree(t)
	sender := &fakeSender{}
	sched := New(tr, &fakeWorker{}, sender, time.Millisecond)

	sched.queue.Push(mustParse(t, "quit"))

	done := make(chan struct{})
	go func() {
		sched.Loop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Loop did not exit after quit")
	}
	assert.True(t, sender.closed)
}

func TestSchedulerRunsWorkerAndSendsReply(t *testing.T) {
	tr := newTestTree(t)
	tr.SetPV(6, []string{"7g7f"})
	require.NoError(t, tr.SetMoveList(0, []string{"7g7f"}))

	sender := &fakeSender{}
	worker := &fakeWorker{replyVal: 123}
	sched := New(tr, worker, sender, time.Millisecond)

	task := tr.GetSearchTask()
	require.False(t, task.Empty())
	sched.runWorker(task)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "updatevalue")
}

// A preempting command arriving while a worker is mid-evaluation must
// cancel that evaluation's context immediately, not merely once it is
// dequeued by the dispatch loop.
func TestOnFrameCancelsInFlightSearchOnPreempt(t *testing.T) {
	tr := newTestTree(t)
	tr.SetPV(6, []string{"7g7f"})
	require.NoError(t, tr.SetMoveList(0, []string{"7g7f"}))

	worker := &fakeWorker{block: true, unblock: make(chan struct{}), evalHit: make(chan struct{}, 1)}
	sched := New(tr, worker, &fakeSender{}, time.Millisecond)

	task := tr.GetSearchTask()
	require.False(t, task.Empty())

	resultCh := make(chan bool, 1)
	go func() {
		reply, ok := sched.worker.Evaluate(contextForRun(sched, task), task)
		_ = reply
		resultCh <- ok
	}()

	<-worker.evalHit
	sched.OnFrame("stop")

	select {
	case ok := <-resultCh:
		assert.False(t, ok, "evaluation must abort (ok=false) once stop preempts it")
	case <-time.After(2 * time.Second):
		t.Fatal("evaluation was not cancelled by a preempting stop")
	}
}

// contextForRun mirrors runWorker's bookkeeping so the test can invoke
// Evaluate directly while still wiring OnFrame's cancellation path.
func contextForRun(s *Scheduler, task tree.SearchTask) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.searching = true
	s.cancelCurrent = cancel
	s.mu.Unlock()
	return ctx
}

func mustParse(t *testing.T, line string) protocol.Command {
	t.Helper()
	cmd, err := protocol.ParseCommand(line)
	require.NoError(t, err)
	return cmd
}
