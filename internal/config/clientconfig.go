/*
 * rsishogi - distributed shogi search client
 *
 * MIT License
 *
 * Copyright (c) 2020-2026 rsishogi contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package config

// clientConfiguration holds the settings that are local to this
// worker process. Everything about the search itself (depth, window,
// which moves to look at) is dictated by the server over RSI; this
// struct only covers what the client decides on its own.
type clientConfiguration struct {
	// Threads is the default for the --threads flag. It is copied into
	// client.Options; it is not sent in the login handshake and does
	// not change how the startup bench runs.
	Threads int

	// HashMB is reported to the server in the login handshake. The
	// client does not actually keep a transposition table sized by
	// this value (the engine adapter is stateless across tasks), it
	// only advertises it.
	HashMB int

	// ReconnectSeconds is the retry interval for Link.Connect per
	// spec: "resolve, retry every 5s on transient error".
	ReconnectSeconds int

	// IdleSleepMillis is how long the dispatch loop sleeps when there
	// is no pending command and no search task.
	IdleSleepMillis int
}

// sets defaults which might be overwritten by config file.
func init() {
	Settings.Client.Threads = 2
	Settings.Client.HashMB = 100
	Settings.Client.ReconnectSeconds = 5
	Settings.Client.IdleSleepMillis = 100
}

// setupClient runs after the config file has been decoded over the
// defaults. The [Client] values need no further processing here; main
// copies them into client.Options, where CLI flags override them.
func setupClient() {
}
