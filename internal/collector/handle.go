/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package collector

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/abartolomey/ipfixcollector/pkg/ipfix"
)

// workChannelBufferSize moves datagram buffering from the UDP socket to
// user space, the same tradeoff the teacher's UDPListener documents for
// its own channel buffer (udp.go): it smooths over bursts at the cost of
// holding more datagrams in memory at once.
const workChannelBufferSize = 64

// Config is the subset of internal/config.Config the collector needs to
// start; kept separate from internal/config so this package does not
// import the YAML/flag loading machinery it has no use for.
type Config struct {
	ListenAddr  string
	ParserCount uint32
}

// Handle is a running collector: a coordinator, a pool of parsers, and an
// aggregator, wired together and bound to a cancellable context. It is
// the Go counterpart of the Rust executor's IPFIXCollectorHandle.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	agg    *aggregator
	addr   string
}

// Start brings up the full pipeline: it binds the UDP socket, spawns
// cfg.ParserCount parser goroutines and one aggregator goroutine, and
// returns once the socket is bound and listening (or once binding fails).
// The returned Handle's Stop cancels every goroutine and waits for them to
// exit.
func Start(ctx context.Context, cfg Config, log logr.Logger) (*Handle, error) {
	if cfg.ParserCount == 0 {
		return nil, fmt.Errorf("collector: ParserCount must be > 0")
	}

	ctx = ipfix.IntoContext(ctx, log)
	ctx, cancel := context.WithCancel(ctx)

	resultsCh := make(chan *ipfix.PacketInfo, workChannelBufferSize)
	templateFromCh := make(chan templateUpdate, workChannelBufferSize)

	workChs := make([]chan parserWork, cfg.ParserCount)
	templateToChs := make([]chan templateUpdate, cfg.ParserCount)
	workSend := make([]chan<- parserWork, cfg.ParserCount)
	templateToSend := make([]chan<- templateUpdate, cfg.ParserCount)

	for i := range workChs {
		workChs[i] = make(chan parserWork, workChannelBufferSize)
		templateToChs[i] = make(chan templateUpdate, workChannelBufferSize)
		workSend[i] = workChs[i]
		templateToSend[i] = templateToChs[i]
	}

	agg := newAggregator(resultsCh)
	coord := newCoordinator(cfg.ListenAddr, workSend, templateFromCh, templateToSend)

	var wg sync.WaitGroup

	errCh := make(chan error, 1)
	addrCh := make(chan string, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		coord.run(ctx, errCh, addrCh)
	}()

	// coordinator.run closes errCh (without sending) once the socket bind
	// succeeds, or sends exactly one error and returns if it fails.
	if err, ok := <-errCh; ok {
		cancel()
		wg.Wait()
		return nil, err
	}
	boundAddr := <-addrCh

	wg.Add(1)
	go func() {
		defer wg.Done()
		agg.run(ctx)
	}()

	for i := 0; i < int(cfg.ParserCount); i++ {
		p := newParser(i, workChs[i], templateToChs[i], templateFromCh, resultsCh)
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.run(ctx)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	log.Info("collector started", "parsers", cfg.ParserCount, "listenAddr", cfg.ListenAddr)

	return &Handle{cancel: cancel, done: done, agg: agg, addr: boundAddr}, nil
}

// Addr returns the UDP address the collector actually bound, which may
// differ from Config.ListenAddr when the configured address requested an
// ephemeral port (e.g. "127.0.0.1:0").
func (h *Handle) Addr() string {
	return h.addr
}

// Stop cancels every goroutine in the pipeline and blocks until they have
// all exited.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Snapshot returns a copy of every PacketInfo decoded so far for odid. Safe
// to call concurrently with a running collector.
func (h *Handle) Snapshot(odid uint32) []ipfix.PacketInfo {
	return h.agg.snapshot(odid)
}
