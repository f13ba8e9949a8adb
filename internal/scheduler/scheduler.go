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

// Package scheduler runs the client's single-threaded cooperative
// dispatch loop: a priority-ordered inbound command queue, a tree
// mutated only by that one goroutine, and a worker invocation
// interleaved between command ticks.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/op/go-logging"

	rsilog "github.com/kakiage/rsishogi/internal/logging"
	"github.com/kakiage/rsishogi/internal/protocol"
	"github.com/kakiage/rsishogi/internal/tree"
	"github.com/kakiage/rsishogi/internal/util"
)

// Sender is the outbound half of the Link the scheduler needs: queue a
// line for transmission.
type Sender interface {
	Send(text string, logFlag bool) error
	Close() error
}

// Worker evaluates one search task and returns the reply to forward to
// the server, or ok=false if the task turned out to be stale (e.g. the
// underlying search was aborted) and nothing should be sent.
type Worker interface {
	Evaluate(ctx context.Context, task tree.SearchTask) (protocol.Reply, bool)
}

// Scheduler owns the command queue, the tree, the worker and the
// link's send side, and runs the dispatch loop described by the
// design's pseudocode. It is not safe to run Loop from more than one
// goroutine, but OnFrame (the Link listener callback) may be called
// concurrently with Loop from the Link's own read goroutine.
type Scheduler struct {
	queue  *commandQueue
	tr     *tree.ClientTree
	worker Worker
	sender Sender
	idle   time.Duration
	log    *logging.Logger

	mu            sync.Mutex
	searching     bool
	cancelCurrent context.CancelFunc
	available     *util.Bool
}

// New returns a Scheduler ready to drive tr with worker, sending
// replies through sender. idle is the sleep between ticks when there
// is nothing to process.
func New(tr *tree.ClientTree, worker Worker, sender Sender, idle time.Duration) *Scheduler {
	return &Scheduler{
		queue:     newCommandQueue(),
		tr:        tr,
		worker:    worker,
		sender:    sender,
		idle:      idle,
		log:       rsilog.GetLog(),
		available: util.NewBool(true),
	}
}

// OnFrame implements link.Listener. It parses the wire line and
// enqueues the resulting command; a command that preempts an
// in-flight search (per its Priority) also cancels that search's
// context immediately, rather than waiting for the dispatch loop to
// reach it - this is what lets a `stop` arriving mid-search abort a
// call that may otherwise block for seconds.
func (s *Scheduler) OnFrame(line string) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		s.log.Errorf("scheduler: dropping unparseable frame %q: %v", line, err)
		return
	}

	s.mu.Lock()
	if s.searching && preempts(cmd.Kind) && s.cancelCurrent != nil {
		s.cancelCurrent()
	}
	s.mu.Unlock()

	s.queue.Push(cmd)
}

// OnDisconnected implements link.Listener: a transport failure is
// fatal for the client, so the dispatch loop is told to stop.
func (s *Scheduler) OnDisconnected() {
	s.available.Store(false)
}

func preempts(k protocol.CommandKind) bool {
	switch k {
	case protocol.CmdSetPosition, protocol.CmdMakeMoveRoot, protocol.CmdSetPV,
		protocol.CmdStop, protocol.CmdQuit:
		return true
	default:
		return false
	}
}

// Loop runs the dispatch loop until a quit command is processed or
// the Link reports a disconnect.
func (s *Scheduler) Loop() {
	for s.isAvailable() {
		if cmd, ok := s.queue.Pop(); ok {
			s.dispatch(cmd)
			continue
		}
		task := s.tr.GetSearchTask()
		if task.Empty() {
			time.Sleep(s.idle)
			continue
		}
		s.runWorker(task)
	}
}

func (s *Scheduler) isAvailable() bool {
	return s.available.Load()
}

// dispatch applies one command to the tree per the dispatch table,
// after validating positionId (and, where applicable, iterationDepth)
// against the tree's current addressing. A mismatch is logged and the
// command is dropped rather than applied against the wrong generation.
func (s *Scheduler) dispatch(cmd protocol.Command) {
	if cmd.Kind == protocol.CmdQuit {
		s.log.Notice("scheduler: quit received, shutting down")
		_ = s.sender.Close()
		s.available.Store(false)
		return
	}
	if cmd.Kind == protocol.CmdStop {
		s.log.Notice("scheduler: stop received")
		return
	}
	if cmd.Kind == protocol.CmdSetPosition {
		if err := s.tr.SetPosition(cmd.PositionSFEN, cmd.Startpos, cmd.PositionID); err != nil {
			s.log.Errorf("scheduler: setposition: %v", err)
		}
		return
	}

	if cmd.PositionID != s.tr.PositionID() {
		s.log.Errorf("scheduler: dropping %s: pid %d != tree pid %d", cmd.Kind, cmd.PositionID, s.tr.PositionID())
		return
	}

	switch cmd.Kind {
	case protocol.CmdMakeMoveRoot:
		if cmd.PrevPositionID != s.tr.PositionID() {
			s.log.Errorf("scheduler: dropping makemoveroot: prevPid %d != tree pid %d", cmd.PrevPositionID, s.tr.PositionID())
			return
		}
		if err := s.tr.MakeMoveRoot(cmd.MoveSFEN, cmd.PositionID); err != nil {
			s.log.Errorf("scheduler: makemoveroot: %v", err)
		}
	case protocol.CmdSetPV:
		s.tr.SetPV(cmd.IterationDepth, cmd.MovesSFEN)
	case protocol.CmdSetMoveList:
		if !s.requireItd(cmd) {
			return
		}
		moves, err := s.tr.MoveListFromSFEN(cmd.PlyDepth, cmd.MovesSFEN)
		if err != nil {
			s.log.Errorf("scheduler: setmovelist: %v", err)
			return
		}
		if err := s.tr.SetMoveList(cmd.PlyDepth, moves); err != nil {
			s.log.Errorf("scheduler: setmovelist: %v", err)
		}
	case protocol.CmdStart:
		if !s.requireItd(cmd) {
			return
		}
		if err := s.tr.Start(cmd.PlyDepth, cmd.Alpha, cmd.Beta); err != nil {
			s.log.Errorf("scheduler: start: %v", err)
		}
	case protocol.CmdNotify:
		if !s.requireItd(cmd) {
			return
		}
		if err := s.tr.Notify(cmd.PlyDepth, cmd.Value); err != nil {
			s.log.Errorf("scheduler: notify: %v", err)
		}
	case protocol.CmdCommit:
		if !s.requireItd(cmd) {
			return
		}
		if err := s.tr.Commit(cmd.PlyDepth); err != nil {
			s.log.Errorf("scheduler: commit: %v", err)
		}
	case protocol.CmdVerify, protocol.CmdCancel, protocol.CmdLoginResult:
		// Diagnostics channel / reserved handshake ack / cancel: no handler,
		// per design - none of these has a dispatch case in the original
		// client either.
	default:
		s.log.Warningf("scheduler: no handler for %s", cmd.Kind)
	}
}

func (s *Scheduler) requireItd(cmd protocol.Command) bool {
	if cmd.IterationDepth != s.tr.IterationDepth() {
		s.log.Errorf("scheduler: dropping %s: itd %d != tree itd %d", cmd.Kind, cmd.IterationDepth, s.tr.IterationDepth())
		return false
	}
	return true
}

// runWorker evaluates task, installing a cancellable context that
// OnFrame can abort if a preempting command arrives mid-search, then
// forwards the resulting reply (if any) to the server.
func (s *Scheduler) runWorker(task tree.SearchTask) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.searching = true
	s.cancelCurrent = cancel
	s.mu.Unlock()

	reply, ok := s.worker.Evaluate(ctx, task)

	s.mu.Lock()
	s.searching = false
	s.cancelCurrent = nil
	s.mu.Unlock()
	cancel()

	if !ok {
		return
	}
	if err := s.sender.Send(reply.Emit(), true); err != nil {
		s.log.Errorf("scheduler: send reply: %v", err)
	}
}
