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

/*
Package ipfix decodes IPFIX (RFC 7011) datagrams into Go values.

# Scope

This package decodes IPFIX version 10 messages carried over UDP: the
16-byte message header, template sets (set id 2), and data sets (set id
>= 256). It deliberately does not implement:

  - options template sets (set id 3) — rejected as a recoverable set error
  - variable-length fields (width 0xFFFF) — a template containing one is
    rejected whole as a recoverable set error when the template set is
    decoded
  - TCP or SCTP transport — the package only decodes already-framed byte
    slices; framing a stream transport is the caller's job

# Decoding model

Decode is a pure function over an owned []byte and a Registry: it performs
no I/O and blocks on nothing. It is meant to be called by a single worker
per datagram, with no data shared between concurrent callers other than
through the Registry each caller owns. See the sibling internal/collector
package for the concurrency pipeline that owns the UDP socket, shards
datagrams across worker goroutines, and keeps each worker's Registry
up to date as new templates are learned.

A Registry has no internal locking: it is a plain map meant to be owned by
exactly one goroutine at a time. Coherence across a pool of registries
(one per parser worker) is a concern of the caller, not of this package.
*/
package ipfix
