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

// Package client assembles the wire link, the tree, the scheduler and
// the worker into one runnable client. It owns all four; none of them
// hold a back-reference to Client or to each other beyond what their
// constructors take explicitly.
package client

import (
	"fmt"
	"time"

	"github.com/op/go-logging"

	"github.com/kakiage/rsishogi/internal/engine"
	"github.com/kakiage/rsishogi/internal/link"
	rsilog "github.com/kakiage/rsishogi/internal/logging"
	"github.com/kakiage/rsishogi/internal/protocol"
	"github.com/kakiage/rsishogi/internal/scheduler"
	"github.com/kakiage/rsishogi/internal/tree"
	"github.com/kakiage/rsishogi/internal/worker"
)

// DefaultName is the login identity used when Options.Name is empty.
const DefaultName = "kakiage"

// Options configures a Client at construction time; every field
// except Host and Port has a default applied by New.
type Options struct {
	Host              string
	Port              int
	Name              string
	Threads           int
	HashMB            int
	ReconnectInterval time.Duration
	IdleSleep         time.Duration
}

// Client owns one Link/ClientTree/Scheduler/Evaluator stack: the
// whole lifetime of a single RSI connection to one server.
type Client struct {
	opts Options
	lk   *link.Link
	tr   *tree.ClientTree
	sch  *scheduler.Scheduler
	log  *logging.Logger

	stopConnect chan struct{}
}

// New builds a Client wired to a fresh shogi Position and negamax
// Searcher; opts.Host/Port must be set by the caller, everything else
// falls back to a default.
func New(opts Options) *Client {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Threads <= 0 {
		opts.Threads = 2
	}
	if opts.HashMB <= 0 {
		opts.HashMB = 100
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 5 * time.Second
	}
	if opts.IdleSleep <= 0 {
		opts.IdleSleep = 100 * time.Millisecond
	}

	pos, err := engine.NewPosition(engine.StartSFEN)
	if err != nil {
		panic(fmt.Sprintf("client: start position is malformed: %v", err))
	}
	tr := tree.NewClientTree(pos)
	ev := worker.NewEvaluator(tr, engine.NewSearcher())

	c := &Client{
		opts:        opts,
		tr:          tr,
		log:         rsilog.GetLog(),
		stopConnect: make(chan struct{}),
	}
	c.lk = link.New(c)
	c.sch = scheduler.New(tr, ev, c.lk, opts.IdleSleep)
	return c
}

// OnFrame implements link.Listener by forwarding to the scheduler.
func (c *Client) OnFrame(line string) { c.sch.OnFrame(line) }

// OnDisconnected implements link.Listener by forwarding to the
// scheduler.
func (c *Client) OnDisconnected() { c.sch.OnDisconnected() }

// Run connects to the configured server, performs the login
// handshake, then drives the dispatch loop until quit or disconnect.
// It returns when the loop exits.
func (c *Client) Run() error {
	if err := c.Connect(); err != nil {
		return err
	}
	c.sch.Loop()
	return nil
}

// Connect dials the configured server and performs the login
// handshake, without entering the dispatch loop. Exposed separately
// from Run for callers (the load-test harness) that only care about
// handshake latency and drive their own teardown.
func (c *Client) Connect() error {
	if err := c.lk.Connect(c.opts.Host, c.opts.Port, c.opts.ReconnectInterval, c.stopConnect); err != nil {
		return fmt.Errorf("client: connect: %w", err)
	}
	if err := c.login(); err != nil {
		return fmt.Errorf("client: login: %w", err)
	}
	return nil
}

// Close tears down the underlying link.
func (c *Client) Close() error {
	return c.lk.Close()
}

// Stop aborts an in-progress Connect retry loop; it has no effect once
// Run has already connected.
func (c *Client) Stop() {
	close(c.stopConnect)
}

// login runs the one-shot startup benchmark to fill benchResult, then
// sends the login reply naming this client, its bench score, and its
// advertised hash size.
func (c *Client) login() error {
	result, err := engine.Bench()
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}
	c.log.Infof("client: login bench %d nodes in %s (%d nps)", result.Nodes, result.Elapsed, result.NPS())

	reply := protocol.Reply{
		Kind:        protocol.ReplyLogin,
		Name:        c.opts.Name,
		BenchResult: int(result.Nodes),
		HashSize:    c.opts.HashMB,
	}
	return c.lk.Send(reply.Emit(), true)
}
