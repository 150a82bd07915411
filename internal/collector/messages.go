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

// Package collector wires pkg/ipfix's stateless decoder into a sharded
// worker pool: a coordinator owns the UDP socket and round-robins
// datagrams to a fixed pool of parsers, each parser owns a private
// ipfix.Registry and reports newly learned templates back so every
// parser's registry stays consistent, and a single aggregator collects
// decoded packets by observation domain.
//
// This mirrors the thread-and-channel architecture of the original
// Rust collector's executor (coordinator thread, parser thread pool,
// aggregator thread, connected by mpsc channels), translated to
// goroutines and Go channels, with context.Context cancellation taking
// the place of an explicit STOP message on every channel.
package collector

import "github.com/abartolomey/ipfixcollector/pkg/ipfix"

// parserWork is one UDP datagram routed to a parser for decoding.
type parserWork struct {
	buf []byte
}

// templateUpdate is a newly learned template, routed from the parser that
// decoded it, through the coordinator, to every other parser's registry.
type templateUpdate struct {
	fromParser int
	template   ipfix.TemplateDef
}
