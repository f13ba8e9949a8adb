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

// Package bench is an integration-testing harness: it drives N
// concurrent clients against one server address and reports how long
// each took to complete its login handshake, bounding concurrency
// with a fixed-size worker pool rather than spawning N unbounded
// goroutines.
package bench

import (
	"fmt"
	"sync"
	"time"

	"github.com/frankkopp/workerpool"

	"github.com/kakiage/rsishogi/internal/client"
)

// ClientResult is one simulated client's outcome.
type ClientResult struct {
	Index    int
	Err      error
	Duration time.Duration
}

// LoadTest runs clientCount simulated clients against host:port, at
// most concurrency of them connecting at once, and returns one result
// per client in index order.
func LoadTest(host string, port int, clientCount, concurrency int) []ClientResult {
	if concurrency <= 0 {
		concurrency = 1
	}
	pool := workerpool.New(concurrency)

	results := make([]ClientResult, clientCount)
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(clientCount)

	for i := 0; i < clientCount; i++ {
		i := i
		pool.Submit(func() {
			defer wg.Done()
			start := time.Now()
			err := runOne(host, port, i)
			mu.Lock()
			results[i] = ClientResult{Index: i, Err: err, Duration: time.Since(start)}
			mu.Unlock()
		})
	}

	wg.Wait()
	pool.StopWait()
	return results
}

// runOne connects, performs the login handshake, and disconnects
// without entering the dispatch loop - enough to measure handshake
// latency under concurrent load.
func runOne(host string, port, index int) error {
	c := client.New(client.Options{
		Host: host,
		Port: port,
		Name: fmt.Sprintf("%s-loadtest-%d", client.DefaultName, index),
	})
	done := make(chan error, 1)
	go func() { done <- c.Connect() }()

	select {
	case err := <-done:
		defer c.Close()
		return err
	case <-time.After(10 * time.Second):
		c.Stop()
		return fmt.Errorf("bench: client %d timed out", index)
	}
}

// Summarize reports the slowest handshake and the count of failures,
// the two numbers a load-test run usually cares about first.
func Summarize(results []ClientResult) (worst time.Duration, failures int) {
	for _, r := range results {
		if r.Duration > worst {
			worst = r.Duration
		}
		if r.Err != nil {
			failures++
		}
	}
	return worst, failures
}
