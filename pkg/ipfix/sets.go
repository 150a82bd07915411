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

package ipfix

import "errors"

// errShortSet marks a set header that could not even be read: fewer than 4
// bytes remain in the body. The enclosing loop treats this as the end of a
// malformed body rather than a boundary it can skip past.
var errShortSet = errors.New("set header truncated")

// errSetLengthOutOfRange marks a set whose declared length is below the
// 4-byte header size or exceeds the bytes actually remaining in the body.
var errSetLengthOutOfRange = errors.New("set length out of range")

// errUnsupportedSetId marks a set id this decoder intentionally does not
// implement: options template sets (id 3).
var errUnsupportedSetId = errors.New("unsupported set id")

// errUnassignedSetId marks a set id that is neither a template set, an
// options template set, nor in the data set range (>= 256).
var errUnassignedSetId = errors.New("unassigned set id")

// setResult is the outcome of decoding one set.
type setResult struct {
	// NewTemplates holds templates this set defined, if it was a template
	// set, in wire order.
	NewTemplates []TemplateDef
	// Records holds the data records this set decoded, if it was a data
	// set.
	Records []DataRecord
}

// decodeSet dispatches one set, framed as setBuf = [4-byte header][body],
// by its set id, mutating registry as new templates are learned so that
// later sets within the same datagram can reference them immediately (see
// Decode for why this decoder applies template updates in-line rather
// than deferring them to the caller).
//
// A non-nil error here is always set-recoverable: the caller counts it
// against PacketInfo.SetErrorCount and advances to the next set using the
// header's declared length. decodeSet never returns an AbortError.
func decodeSet(registry *Registry, odid uint32, setBuf []byte) (setResult, error) {
	sh, err := decodeSetHeader(setBuf)
	if err != nil {
		return setResult{}, errShortSet
	}
	if sh.Length < setHeaderLength || int(sh.Length) > len(setBuf) {
		return setResult{}, errSetLengthOutOfRange
	}
	if sh.Length == setHeaderLength {
		// empty set: legal, nothing to decode
		return setResult{}, nil
	}

	body := setBuf[setHeaderLength:sh.Length]

	switch {
	case sh.Id == SetIdTemplate:
		templates, err := decodeTemplateSet(odid, body)
		if err != nil {
			return setResult{}, err
		}
		for _, t := range templates {
			registry.Insert(t)
		}
		return setResult{NewTemplates: templates}, nil

	case sh.Id == SetIdOptionsTemplate:
		return setResult{}, errUnsupportedSetId

	case sh.Id >= SetIdDataMin:
		template, ok := registry.Get(odid, sh.Id)
		if !ok {
			return setResult{}, TemplateNotFound(odid, sh.Id)
		}
		records, err := decodeDataSet(sh.Id, template, body)
		if err != nil {
			return setResult{}, err
		}
		return setResult{Records: records}, nil

	default:
		return setResult{}, errUnassignedSetId
	}
}
