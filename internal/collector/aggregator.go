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
	"sync"

	"github.com/abartolomey/ipfixcollector/pkg/ipfix"
)

// aggregator is the single goroutine that owns the odid -> packets map,
// grounded on `agg_thread` in the Rust executor. Unlike the original,
// which is only ever read by dumping the whole process's state, this
// aggregator also serves live Snapshot reads from other goroutines (the
// downstream query interface named in spec.md §6), so the map is guarded
// by a mutex rather than being purely channel-owned.
type aggregator struct {
	results <-chan *ipfix.PacketInfo

	mu     sync.RWMutex
	byOdid map[uint32][]ipfix.PacketInfo
}

func newAggregator(results <-chan *ipfix.PacketInfo) *aggregator {
	return &aggregator{
		results: results,
		byOdid:  make(map[uint32][]ipfix.PacketInfo),
	}
}

func (a *aggregator) run(ctx context.Context) {
	log := ipfix.FromContext(ctx, "component", "aggregator")
	log.Info("aggregator started")
	defer log.Info("aggregator stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case info, ok := <-a.results:
			if !ok {
				return
			}
			a.mu.Lock()
			a.byOdid[info.Odid] = append(a.byOdid[info.Odid], *info)
			a.mu.Unlock()
		}
	}
}

// snapshot returns a copy of every PacketInfo collected so far for odid, so
// the caller never observes a mutation of the slice this goroutine is still
// appending to.
func (a *aggregator) snapshot(odid uint32) []ipfix.PacketInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()

	src := a.byOdid[odid]
	out := make([]ipfix.PacketInfo, len(src))
	copy(out, src)
	return out
}
