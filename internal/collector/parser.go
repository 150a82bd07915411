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

	"github.com/abartolomey/ipfixcollector/pkg/ipfix"
)

// parser is one worker in the pool: it owns a private, unshared
// ipfix.Registry and decodes exactly one datagram at a time, grounded on
// the original `parser_thread` in the Rust executor. Because no other
// goroutine ever touches this registry, Decode needs no locking around it.
type parser struct {
	id int

	work      <-chan parserWork
	templates <-chan templateUpdate

	toCoordinator chan<- templateUpdate
	toAggregator  chan<- *ipfix.PacketInfo

	registry *ipfix.Registry
}

func newParser(id int, work <-chan parserWork, templates <-chan templateUpdate, toCoordinator chan<- templateUpdate, toAggregator chan<- *ipfix.PacketInfo) *parser {
	return &parser{
		id:            id,
		work:          work,
		templates:     templates,
		toCoordinator: toCoordinator,
		toAggregator:  toAggregator,
		registry:      ipfix.NewRegistry(),
	}
}

// run blocks on its two inbound channels (work and templates) until ctx is
// canceled, decoding each datagram it receives and applying every template
// update broadcast to it, in whichever order they arrive.
func (p *parser) run(ctx context.Context) {
	log := ipfix.FromContext(ctx, "component", "parser", "parser.id", p.id)
	log.Info("parser started")
	defer log.Info("parser stopped")

	for {
		select {
		case <-ctx.Done():
			return

		case u, ok := <-p.templates:
			if !ok {
				return
			}
			if u.fromParser == p.id {
				// this parser already applied its own discovery locally
				continue
			}
			p.registry.Insert(u.template)

		case w, ok := <-p.work:
			if !ok {
				return
			}
			info, err := ipfix.Decode(p.registry, w.buf)
			if err != nil {
				log.Error(err, "dropping unparseable datagram")
				continue
			}

			for _, t := range info.Templates {
				select {
				case p.toCoordinator <- templateUpdate{fromParser: p.id, template: t}:
				case <-ctx.Done():
					return
				}
			}

			select {
			case p.toAggregator <- info:
			case <-ctx.Done():
				return
			}
		}
	}
}
