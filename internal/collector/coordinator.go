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
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/abartolomey/ipfixcollector/pkg/ipfix"
)

// udpPacketBufferSize caps a single read. IPFIX datagrams are bounded by
// the link MTU in practice; this is generous headroom above that, grounded
// on the teacher's UDPPacketBufferSize (udp.go), widened since this
// collector does not assume a hardened low-MTU export path.
const udpPacketBufferSize = 9000

// readTimeout bounds how long the coordinator blocks on a socket read
// before checking its own control channels again, the Go equivalent of the
// original coordinator thread's 50ms socket read timeout (coord_thread in
// the Rust executor), since net.PacketConn has no select-compatible
// non-blocking read.
const readTimeout = 50 * time.Millisecond

// coordinator owns the UDP listen socket and distributes each datagram to
// one parser in round-robin order, and rebroadcasts every template update
// reported by a parser to all parsers (including the one that reported it,
// which discards its own update on receipt - see parser.run).
type coordinator struct {
	listenAddr string

	parserWork   []chan<- parserWork
	templateFrom <-chan templateUpdate
	templateTo   []chan<- templateUpdate
}

func newCoordinator(listenAddr string, parserWork []chan<- parserWork, templateFrom <-chan templateUpdate, templateTo []chan<- templateUpdate) *coordinator {
	return &coordinator{
		listenAddr:   listenAddr,
		parserWork:   parserWork,
		templateFrom: templateFrom,
		templateTo:   templateTo,
	}
}

// run binds the UDP socket and serves until ctx is canceled. It is meant to
// be run in its own goroutine; any bind error is sent on errCh. On success,
// the bound local address is sent on addrCh before errCh is closed, so a
// caller that asked for an ephemeral port (":0") can learn which one it got.
func (c *coordinator) run(ctx context.Context, errCh chan<- error, addrCh chan<- string) {
	log := ipfix.FromContext(ctx, "component", "coordinator")

	listenConfig := net.ListenConfig{
		Control: func(network, address string, rc syscall.RawConn) error {
			var ctrlErr error
			err := rc.Control(func(fd uintptr) {
				ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if ctrlErr != nil {
					return
				}
				ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}

	conn, err := listenConfig.ListenPacket(ctx, "udp", c.listenAddr)
	if err != nil {
		log.Error(err, "failed to bind UDP listen socket", "addr", c.listenAddr)
		errCh <- err
		return
	}
	defer conn.Close()

	addrCh <- conn.LocalAddr().String()
	close(errCh)

	log.Info("coordinator listening", "addr", c.listenAddr)
	defer log.Info("coordinator stopped")

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, udpPacketBufferSize)
	next := 0

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-c.templateFrom:
			if !ok {
				return
			}
			c.broadcastTemplate(ctx, u)
			continue
		default:
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
				udpReadErrorsTotal.Inc()
				log.Error(err, "failed to read from UDP socket")
			}
			// read timeout: loop back around to drain control channels
			continue
		}

		udpDatagramsTotal.Inc()
		udpBytesTotal.Add(float64(n))

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		select {
		case c.parserWork[next] <- parserWork{buf: datagram}:
			next = (next + 1) % len(c.parserWork)
		case <-ctx.Done():
			return
		}
	}
}

func (c *coordinator) broadcastTemplate(ctx context.Context, u templateUpdate) {
	for _, ch := range c.templateTo {
		select {
		case ch <- u:
		case <-ctx.Done():
			return
		}
	}
}
