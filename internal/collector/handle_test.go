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
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/go-logr/logr"
)

func buildTestDatagram(odid uint32) []byte {
	// a bare 16-byte header with no sets: a valid, empty IPFIX message.
	buf := make([]byte, 16)
	binary.BigEndian.PutUint16(buf[0:2], 10)
	binary.BigEndian.PutUint16(buf[2:4], 16)
	binary.BigEndian.PutUint32(buf[4:8], 1)
	binary.BigEndian.PutUint32(buf[8:12], 1)
	binary.BigEndian.PutUint32(buf[12:16], odid)
	return buf
}

func TestStart_DecodesAndAggregatesByOdid(t *testing.T) {
	h, err := Start(context.Background(), Config{ListenAddr: "127.0.0.1:0", ParserCount: 2}, logr.Discard())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.Stop()

	client, err := net.Dial("udp", h.Addr())
	if err != nil {
		t.Fatalf("net.Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Write(buildTestDatagram(42)); err != nil {
		t.Fatalf("client.Write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if snap := h.Snapshot(42); len(snap) == 1 {
			if snap[0].Odid != 42 {
				t.Fatalf("Snapshot()[0].Odid = %d, want 42", snap[0].Odid)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the datagram to be aggregated")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStart_RejectsZeroParsers(t *testing.T) {
	_, err := Start(context.Background(), Config{ListenAddr: "127.0.0.1:0", ParserCount: 0}, logr.Discard())
	if err == nil {
		t.Fatal("expected an error for ParserCount == 0")
	}
}

func TestStart_InvalidAddrFails(t *testing.T) {
	_, err := Start(context.Background(), Config{ListenAddr: "not-a-valid-host:99999", ParserCount: 1}, logr.Discard())
	if err == nil {
		t.Fatal("expected an error for an unbindable address")
	}
}

// TestHandle_StopIsPrompt covers the graceful shutdown scenario: Stop must
// return within a few socket read-timeout intervals (under 500ms), with
// every goroutine in the pipeline having exited.
func TestHandle_StopIsPrompt(t *testing.T) {
	h, err := Start(context.Background(), Config{ListenAddr: "127.0.0.1:0", ParserCount: 4}, logr.Discard())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	start := time.Now()
	h.Stop()
	elapsed := time.Since(start)

	// generous upper bound: a handful of read-timeout intervals, to absorb
	// scheduler noise without masking a real shutdown regression.
	if elapsed > 500*time.Millisecond {
		t.Fatalf("Stop took %v, want well under 500ms", elapsed)
	}
}

// TestHandle_StopViaParentContext covers canceling the context Start was
// given, rather than calling Stop directly.
func TestHandle_StopViaParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h, err := Start(ctx, Config{ListenAddr: "127.0.0.1:0", ParserCount: 1}, logr.Discard())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		h.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop did not return after the parent context was canceled")
	}
}
