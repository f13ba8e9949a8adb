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

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/profile"

	"github.com/kakiage/rsishogi/internal/client"
	"github.com/kakiage/rsishogi/internal/config"
	"github.com/kakiage/rsishogi/internal/logging"
)

func main() {
	configFile := flag.String("config", "./config.toml", "path to configuration settings file")
	logLvl := flag.String("loglvl", "", "standard log level\n(critical|error|warning|notice|info|debug)")
	linkLogLvl := flag.String("linkloglvl", "", "wire-traffic log level\n(critical|error|warning|notice|info|debug)")
	threads := flag.Int("threads", 0, "number of search threads (default 2); not part of the login handshake")
	hash := flag.Int("hash", 0, "hash size in MB to advertise to the server (default 100)")
	cpuProfile := flag.Bool("cpuprofile", false, "write a CPU profile of this run to ./cpu.pprof")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) != 3 {
		printUsage()
		os.Exit(1)
	}
	host := args[0]
	port, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "rsiclient: bad port %q: %v\n", args[1], err)
		os.Exit(1)
	}
	loginName := args[2]

	config.ConfFile = *configFile
	config.Setup()
	if lvl, found := config.LogLevels[*logLvl]; found {
		config.LogLevel = lvl
	}
	if lvl, found := config.LogLevels[*linkLogLvl]; found {
		config.LinkLogLevel = lvl
	}
	log := logging.GetLog()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	opts := client.Options{
		Host:              host,
		Port:              port,
		Name:              loginName,
		Threads:           config.Settings.Client.Threads,
		HashMB:            config.Settings.Client.HashMB,
		ReconnectInterval: time.Duration(config.Settings.Client.ReconnectSeconds) * time.Second,
		IdleSleep:         time.Duration(config.Settings.Client.IdleSleepMillis) * time.Millisecond,
	}
	if *threads > 0 {
		opts.Threads = *threads
	}
	if *hash > 0 {
		opts.HashMB = *hash
	}
	c := client.New(opts)

	log.Noticef("rsiclient: connecting to %s:%d as %q", host, port, loginName)
	if err := c.Run(); err != nil {
		log.Errorf("rsiclient: %v", err)
		os.Exit(1)
	}
	os.Exit(0)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: rsiclient [options] <server-host> <server-port> <login-name>")
	flag.PrintDefaults()
}
