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
	"container/heap"
	"sync"

	"github.com/kakiage/rsishogi/internal/protocol"
)

// commandQueue is the priority-ordered inbound command list: descending
// by protocol.CommandKind.Priority(), FIFO among equal priorities. It is
// the one piece of state the Link's read goroutine and the dispatch
// goroutine both touch, hence the mutex.
type commandQueue struct {
	mu   sync.Mutex
	heap cmdHeap
	seq  uint64
}

func newCommandQueue() *commandQueue {
	q := &commandQueue{}
	heap.Init(&q.heap)
	return q
}

// Push enqueues cmd, stamping it with the next sequence number so FIFO
// order within a priority class is preserved.
func (q *commandQueue) Push(cmd protocol.Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	heap.Push(&q.heap, queuedCmd{cmd: cmd, priority: cmd.Kind.Priority(), seq: q.seq})
}

// Pop removes and returns the highest-priority, earliest-arrived
// command, or ok=false if the queue is empty.
func (q *commandQueue) Pop() (cmd protocol.Command, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.heap.Len() == 0 {
		return protocol.Command{}, false
	}
	item := heap.Pop(&q.heap).(queuedCmd)
	return item.cmd, true
}

// Len reports the number of pending commands.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

type queuedCmd struct {
	cmd      protocol.Command
	priority int
	seq      uint64
}

// cmdHeap is a min-heap ordered so that Pop yields the highest
// priority (ties broken by lowest, i.e. earliest, seq).
type cmdHeap []queuedCmd

func (h cmdHeap) Len() int { return len(h) }

func (h cmdHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h cmdHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cmdHeap) Push(x interface{}) {
	*h = append(*h, x.(queuedCmd))
}

func (h *cmdHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
