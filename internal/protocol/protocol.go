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

// Package protocol implements the RSI wire codec: parsing and emitting
// the line-framed, space-tokenized commands a server sends to a worker
// and the replies a worker sends back. It is pure - no I/O, no locking,
// no knowledge of sockets. The Link package feeds it raw lines and
// consumes the text it produces.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind identifies which of the server-to-client command variants
// a Command holds. Zero value is CmdNone.
type CommandKind int

// Command kinds, server -> client.
const (
	CmdNone CommandKind = iota
	CmdLoginResult
	CmdSetPosition
	CmdMakeMoveRoot
	CmdSetPV
	CmdSetMoveList
	CmdStart
	CmdStop
	CmdNotify
	CmdCancel
	CmdCommit
	CmdVerify
	CmdQuit
)

func (k CommandKind) String() string {
	switch k {
	case CmdNone:
		return "none"
	case CmdLoginResult:
		return "loginResult"
	case CmdSetPosition:
		return "setposition"
	case CmdMakeMoveRoot:
		return "makemoveroot"
	case CmdSetPV:
		return "setpv"
	case CmdSetMoveList:
		return "setmovelist"
	case CmdStart:
		return "start"
	case CmdStop:
		return "stop"
	case CmdNotify:
		return "notify"
	case CmdCancel:
		return "cancel"
	case CmdCommit:
		return "commit"
	case CmdVerify:
		return "verify"
	case CmdQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Priority levels per the dispatch queue ordering. quit/stop preempt
// everything else; unrecognized input never even reaches the queue at
// this priority (parse already failed) but the constant exists so
// callers have one source of truth.
const (
	PriorityUnknown = 0
	PriorityNormal  = 50
	PriorityUrgent  = 100
)

// Priority returns the dispatch priority of a command: quit and stop
// are 100 (preempt), every other recognized variant is 50, anything
// else (including the zero value) is 0.
func (k CommandKind) Priority() int {
	switch k {
	case CmdStop, CmdQuit:
		return PriorityUrgent
	case CmdLoginResult, CmdSetPosition, CmdMakeMoveRoot, CmdSetPV, CmdSetMoveList,
		CmdStart, CmdNotify, CmdCancel, CmdCommit, CmdVerify:
		return PriorityNormal
	default:
		return PriorityUnknown
	}
}

// ValueSet is one (value, alpha, beta, gamma) quadruple as carried by
// the optional repeated group in a verify command.
type ValueSet struct {
	Value int
	Alpha int
	Beta  int
	Gamma int
}

// Command is a tagged record for every server->client packet kind.
// Fields not meaningful for a given Kind are left zero. A flat struct
// mirrors the small-POD tagged-union shape of the source protocol
// without needing a type switch over concrete packet structs.
type Command struct {
	Kind CommandKind

	PositionID     int
	PrevPositionID int
	IterationDepth int
	PlyDepth       int

	Alpha int
	Beta  int

	// Startpos is true when setposition used the "startpos" shorthand
	// instead of an explicit sfen board/turn/hand triple.
	Startpos     bool
	PositionSFEN string

	MoveSFEN  string
	MovesSFEN []string

	Value      int
	ValuesSet  []ValueSet
}

// Priority is a convenience wrapper over Kind.Priority.
func (c Command) Priority() int {
	return c.Kind.Priority()
}

// ReplyKind identifies which of the client-to-server reply variants a
// Reply holds. Zero value is ReplyNone.
type ReplyKind int

// Reply kinds, client -> server.
const (
	ReplyNone ReplyKind = iota
	ReplyLogin
	ReplyRetried
	ReplyUpdateValue
	ReplySearchDone
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyNone:
		return "none"
	case ReplyLogin:
		return "login"
	case ReplyRetried:
		return "retried"
	case ReplyUpdateValue:
		return "updatevalue"
	case ReplySearchDone:
		return "searchdone"
	default:
		return "unknown"
	}
}

// Reply is a tagged record for every client->server packet kind.
type Reply struct {
	Kind ReplyKind

	// login
	Name        string
	BenchResult int
	HashSize    int

	// updatevalue / searchdone addressing
	PositionID     int
	IterationDepth int
	PlyDepth       int

	// updatevalue
	MoveSFEN  string
	Value     int
	Alpha     int
	Beta      int
	Nodes     int
	PV        []string
}

// ParseError reports a malformed RSI line: empty input, an unrecognized
// leading token, or a well-known command/reply with too few or
// non-numeric fields.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("protocol: parse error on %q: %s", e.Line, e.Reason)
}

func newParseError(line, reason string) error {
	return &ParseError{Line: line, Reason: reason}
}

func atoi(tok string) (int, error) {
	return strconv.Atoi(tok)
}

// ParseCommand parses one line (without its trailing newline) of
// server->client RSI traffic into a Command.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, newParseError(line, "empty input")
	}

	switch fields[0] {
	case "setposition":
		return parseSetPosition(line, fields)
	case "makemoveroot":
		return parseMakeMoveRoot(line, fields)
	case "setpv":
		return parseSetPV(line, fields)
	case "setmovelist":
		return parseSetMoveList(line, fields)
	case "start":
		return parseStart(line, fields)
	case "stop":
		return Command{Kind: CmdStop}, nil
	case "notify":
		return parseNotify(line, fields)
	case "cancel":
		return parseCancel(line, fields)
	case "commit":
		return parseCommit(line, fields)
	case "verify":
		return parseVerify(line, fields)
	case "quit":
		return Command{Kind: CmdQuit}, nil
	case "loginResult":
		// reserved: defined, but per design notes never actually
		// parsed by the server side. Accepted so a future server
		// can start emitting it without breaking old clients.
		return Command{Kind: CmdLoginResult}, nil
	default:
		return Command{}, newParseError(line, "unknown command token "+fields[0])
	}
}

func parseSetPosition(line string, fields []string) (Command, error) {
	// setposition <pid> (sfen <board> <turn> <hand> | startpos) [moves <m1> ... <mN>]
	if len(fields) < 3 {
		return Command{}, newParseError(line, "setposition: too few fields")
	}
	pid, err := atoi(fields[1])
	if err != nil {
		return Command{}, newParseError(line, "setposition: non-numeric pid")
	}
	c := Command{Kind: CmdSetPosition, PositionID: pid}
	idx := 2
	switch fields[idx] {
	case "startpos":
		c.Startpos = true
		idx++
	case "sfen":
		if len(fields) < idx+4 {
			return Command{}, newParseError(line, "setposition: truncated sfen")
		}
		c.PositionSFEN = strings.Join(fields[idx+1:idx+4], " ")
		idx += 4
	default:
		return Command{}, newParseError(line, "setposition: expected sfen or startpos")
	}
	if idx < len(fields) {
		if fields[idx] != "moves" {
			return Command{}, newParseError(line, "setposition: expected moves keyword")
		}
		c.MovesSFEN = append([]string{}, fields[idx+1:]...)
	}
	return c, nil
}

func parseMakeMoveRoot(line string, fields []string) (Command, error) {
	// makemoveroot <pid> <oldPid> <moveSfen>
	if len(fields) != 4 {
		return Command{}, newParseError(line, "makemoveroot: expected 3 fields")
	}
	pid, err := atoi(fields[1])
	if err != nil {
		return Command{}, newParseError(line, "makemoveroot: non-numeric pid")
	}
	oldPid, err := atoi(fields[2])
	if err != nil {
		return Command{}, newParseError(line, "makemoveroot: non-numeric oldPid")
	}
	return Command{
		Kind:           CmdMakeMoveRoot,
		PositionID:     pid,
		PrevPositionID: oldPid,
		MoveSFEN:       fields[3],
	}, nil
}

func parseSetPV(line string, fields []string) (Command, error) {
	// setpv <pid> <itd> <m1> ... <mN>
	if len(fields) < 3 {
		return Command{}, newParseError(line, "setpv: too few fields")
	}
	pid, err := atoi(fields[1])
	if err != nil {
		return Command{}, newParseError(line, "setpv: non-numeric pid")
	}
	itd, err := atoi(fields[2])
	if err != nil {
		return Command{}, newParseError(line, "setpv: non-numeric itd")
	}
	return Command{
		Kind:           CmdSetPV,
		PositionID:     pid,
		IterationDepth: itd,
		MovesSFEN:      append([]string{}, fields[3:]...),
	}, nil
}

func parseSetMoveList(line string, fields []string) (Command, error) {
	// setmovelist <pid> <itd> <pld> <m1> ... <mN>
	if len(fields) < 4 {
		return Command{}, newParseError(line, "setmovelist: too few fields")
	}
	pid, err := atoi(fields[1])
	if err != nil {
		return Command{}, newParseError(line, "setmovelist: non-numeric pid")
	}
	itd, err := atoi(fields[2])
	if err != nil {
		return Command{}, newParseError(line, "setmovelist: non-numeric itd")
	}
	pld, err := atoi(fields[3])
	if err != nil {
		return Command{}, newParseError(line, "setmovelist: non-numeric pld")
	}
	return Command{
		Kind:           CmdSetMoveList,
		PositionID:     pid,
		IterationDepth: itd,
		PlyDepth:       pld,
		MovesSFEN:      append([]string{}, fields[4:]...),
	}, nil
}

func parseStart(line string, fields []string) (Command, error) {
	// start <pid> <itd> <pld> <alpha> <beta>
	if len(fields) != 6 {
		return Command{}, newParseError(line, "start: expected 5 fields")
	}
	nums, err := atoiAll(fields[1:])
	if err != nil {
		return Command{}, newParseError(line, "start: non-numeric field")
	}
	return Command{
		Kind:           CmdStart,
		PositionID:     nums[0],
		IterationDepth: nums[1],
		PlyDepth:       nums[2],
		Alpha:          nums[3],
		Beta:           nums[4],
	}, nil
}

func parseNotify(line string, fields []string) (Command, error) {
	// notify <pid> <itd> <pld> <value>
	if len(fields) != 5 {
		return Command{}, newParseError(line, "notify: expected 4 fields")
	}
	nums, err := atoiAll(fields[1:])
	if err != nil {
		return Command{}, newParseError(line, "notify: non-numeric field")
	}
	return Command{
		Kind:           CmdNotify,
		PositionID:     nums[0],
		IterationDepth: nums[1],
		PlyDepth:       nums[2],
		Value:          nums[3],
	}, nil
}

func parseCancel(line string, fields []string) (Command, error) {
	// cancel <pid> <itd> <pld>
	if len(fields) != 4 {
		return Command{}, newParseError(line, "cancel: expected 3 fields")
	}
	nums, err := atoiAll(fields[1:])
	if err != nil {
		return Command{}, newParseError(line, "cancel: non-numeric field")
	}
	return Command{
		Kind:           CmdCancel,
		PositionID:     nums[0],
		IterationDepth: nums[1],
		PlyDepth:       nums[2],
	}, nil
}

func parseCommit(line string, fields []string) (Command, error) {
	// commit <pid> <itd> <pld>
	if len(fields) != 4 {
		return Command{}, newParseError(line, "commit: expected 3 fields")
	}
	nums, err := atoiAll(fields[1:])
	if err != nil {
		return Command{}, newParseError(line, "commit: non-numeric field")
	}
	return Command{
		Kind:           CmdCommit,
		PositionID:     nums[0],
		IterationDepth: nums[1],
		PlyDepth:       nums[2],
	}, nil
}

func parseVerify(line string, fields []string) (Command, error) {
	// verify <pid> <itd> <pld> [<v> <a> <b> <g>]*
	if len(fields) < 4 {
		return Command{}, newParseError(line, "verify: too few fields")
	}
	nums, err := atoiAll(fields[1:4])
	if err != nil {
		return Command{}, newParseError(line, "verify: non-numeric field")
	}
	rest := fields[4:]
	if len(rest)%4 != 0 {
		return Command{}, newParseError(line, "verify: value-set group not a multiple of 4")
	}
	var sets []ValueSet
	for i := 0; i < len(rest); i += 4 {
		group, err := atoiAll(rest[i : i+4])
		if err != nil {
			return Command{}, newParseError(line, "verify: non-numeric value-set field")
		}
		sets = append(sets, ValueSet{Value: group[0], Alpha: group[1], Beta: group[2], Gamma: group[3]})
	}
	return Command{
		Kind:           CmdVerify,
		PositionID:     nums[0],
		IterationDepth: nums[1],
		PlyDepth:       nums[2],
		ValuesSet:      sets,
	}, nil
}

func atoiAll(toks []string) ([]int, error) {
	out := make([]int, len(toks))
	for i, t := range toks {
		n, err := atoi(t)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Emit renders a Command back to its wire form, without a trailing
// newline (Link appends that on send).
func (c Command) Emit() string {
	var b strings.Builder
	switch c.Kind {
	case CmdSetPosition:
		fmt.Fprintf(&b, "setposition %d", c.PositionID)
		if c.Startpos {
			b.WriteString(" startpos")
		} else {
			fmt.Fprintf(&b, " sfen %s", c.PositionSFEN)
		}
		if len(c.MovesSFEN) > 0 {
			b.WriteString(" moves " + strings.Join(c.MovesSFEN, " "))
		}
	case CmdMakeMoveRoot:
		fmt.Fprintf(&b, "makemoveroot %d %d %s", c.PositionID, c.PrevPositionID, c.MoveSFEN)
	case CmdSetPV:
		fmt.Fprintf(&b, "setpv %d %d", c.PositionID, c.IterationDepth)
		if len(c.MovesSFEN) > 0 {
			b.WriteString(" " + strings.Join(c.MovesSFEN, " "))
		}
	case CmdSetMoveList:
		fmt.Fprintf(&b, "setmovelist %d %d %d", c.PositionID, c.IterationDepth, c.PlyDepth)
		if len(c.MovesSFEN) > 0 {
			b.WriteString(" " + strings.Join(c.MovesSFEN, " "))
		}
	case CmdStart:
		fmt.Fprintf(&b, "start %d %d %d %d %d", c.PositionID, c.IterationDepth, c.PlyDepth, c.Alpha, c.Beta)
	case CmdStop:
		b.WriteString("stop")
	case CmdNotify:
		fmt.Fprintf(&b, "notify %d %d %d %d", c.PositionID, c.IterationDepth, c.PlyDepth, c.Value)
	case CmdCancel:
		fmt.Fprintf(&b, "cancel %d %d %d", c.PositionID, c.IterationDepth, c.PlyDepth)
	case CmdCommit:
		fmt.Fprintf(&b, "commit %d %d %d", c.PositionID, c.IterationDepth, c.PlyDepth)
	case CmdVerify:
		fmt.Fprintf(&b, "verify %d %d %d", c.PositionID, c.IterationDepth, c.PlyDepth)
		for _, vs := range c.ValuesSet {
			fmt.Fprintf(&b, " %d %d %d %d", vs.Value, vs.Alpha, vs.Beta, vs.Gamma)
		}
	case CmdQuit:
		b.WriteString("quit")
	case CmdLoginResult:
		b.WriteString("loginResult")
	default:
		b.WriteString("none")
	}
	return b.String()
}

// ParseReply parses one line of client->server RSI traffic into a
// Reply. Mainly useful for a test server / the bench harness; a real
// worker only emits replies, it never needs to parse its own.
func ParseReply(line string) (Reply, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Reply{}, newParseError(line, "empty input")
	}
	switch fields[0] {
	case "login":
		if len(fields) != 4 {
			return Reply{}, newParseError(line, "login: expected 3 fields")
		}
		bench, err := atoi(fields[2])
		if err != nil {
			return Reply{}, newParseError(line, "login: non-numeric benchResult")
		}
		hash, err := atoi(fields[3])
		if err != nil {
			return Reply{}, newParseError(line, "login: non-numeric hashSize")
		}
		return Reply{Kind: ReplyLogin, Name: fields[1], BenchResult: bench, HashSize: hash}, nil
	case "updatevalue":
		if len(fields) < 9 {
			return Reply{}, newParseError(line, "updatevalue: too few fields")
		}
		pid, err := atoi(fields[1])
		if err != nil {
			return Reply{}, newParseError(line, "updatevalue: non-numeric pid")
		}
		itd, err := atoi(fields[2])
		if err != nil {
			return Reply{}, newParseError(line, "updatevalue: non-numeric itd")
		}
		pld, err := atoi(fields[3])
		if err != nil {
			return Reply{}, newParseError(line, "updatevalue: non-numeric pld")
		}
		nums, err := atoiAll(fields[5:9])
		if err != nil {
			return Reply{}, newParseError(line, "updatevalue: non-numeric value/alpha/beta/nodes")
		}
		var pv []string
		if len(fields) > 9 {
			pv = append([]string{}, fields[9:]...)
		}
		return Reply{
			Kind:           ReplyUpdateValue,
			PositionID:     pid,
			IterationDepth: itd,
			PlyDepth:       pld,
			MoveSFEN:       fields[4],
			Value:          nums[0],
			Alpha:          nums[1],
			Beta:           nums[2],
			Nodes:          nums[3],
			PV:             pv,
		}, nil
	case "searchdone":
		if len(fields) != 4 {
			return Reply{}, newParseError(line, "searchdone: expected 3 fields")
		}
		nums, err := atoiAll(fields[1:])
		if err != nil {
			return Reply{}, newParseError(line, "searchdone: non-numeric field")
		}
		return Reply{Kind: ReplySearchDone, PositionID: nums[0], IterationDepth: nums[1], PlyDepth: nums[2]}, nil
	case "retried":
		return Reply{Kind: ReplyRetried}, nil
	default:
		return Reply{}, newParseError(line, "unknown reply token "+fields[0])
	}
}

// Emit renders a Reply back to its wire form, without a trailing
// newline.
func (r Reply) Emit() string {
	var b strings.Builder
	switch r.Kind {
	case ReplyLogin:
		fmt.Fprintf(&b, "login %s %d %d", r.Name, r.BenchResult, r.HashSize)
	case ReplyUpdateValue:
		fmt.Fprintf(&b, "updatevalue %d %d %d %s %d %d %d %d", r.PositionID, r.IterationDepth, r.PlyDepth, r.MoveSFEN, r.Value, r.Alpha, r.Beta, r.Nodes)
		for _, m := range r.PV {
			b.WriteString(" " + m)
		}
	case ReplySearchDone:
		fmt.Fprintf(&b, "searchdone %d %d %d", r.PositionID, r.IterationDepth, r.PlyDepth)
	case ReplyRetried:
		b.WriteString("retried")
	default:
		b.WriteString("none")
	}
	return b.String()
}
