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

import (
	"encoding/binary"

	"github.com/abartolomey/ipfixcollector/pkg/ipfix/iana/version"
)

// Set id constants, per RFC 7011 §3.3.2.
const (
	// SetIdTemplate marks a template set.
	SetIdTemplate uint16 = 2
	// SetIdOptionsTemplate marks an options template set. Out of scope for
	// this decoder: a set with this id is always skipped as a recoverable
	// error.
	SetIdOptionsTemplate uint16 = 3
	// SetIdDataMin is the lowest id usable for a data set; ids below it
	// (other than SetIdTemplate/SetIdOptionsTemplate) are unassigned and
	// treated as a recoverable error.
	SetIdDataMin uint16 = 256
)

// messageHeaderLength is the fixed 16-byte IPFIX message header: version,
// total length, export time, sequence number, observation domain id.
const messageHeaderLength = 16

// setHeaderLength is the fixed 4-byte set header: set id, set length.
const setHeaderLength = 4

// messageHeader is the decoded form of the 16-byte IPFIX message header.
type messageHeader struct {
	Version             uint16
	TotalLength         uint16
	ExportTime          uint32
	SequenceNumber      uint32
	ObservationDomainId uint32
}

// decodeMessageHeader reads the fixed 16-byte header from the front of buf.
// It returns an AbortError if buf is too short or the version is not 10.
func decodeMessageHeader(buf []byte) (messageHeader, error) {
	if len(buf) < messageHeaderLength {
		return messageHeader{}, abort(ErrTruncatedPacket)
	}

	h := messageHeader{
		Version:             binary.BigEndian.Uint16(buf[0:2]),
		TotalLength:         binary.BigEndian.Uint16(buf[2:4]),
		ExportTime:          binary.BigEndian.Uint32(buf[4:8]),
		SequenceNumber:      binary.BigEndian.Uint32(buf[8:12]),
		ObservationDomainId: binary.BigEndian.Uint32(buf[12:16]),
	}

	if version.ProtocolVersion(h.Version) != version.IPFIX {
		return messageHeader{}, abort(UnknownVersion(h.Version))
	}
	if h.TotalLength < messageHeaderLength || int(h.TotalLength) > len(buf) {
		return messageHeader{}, abort(ErrTruncatedPacket)
	}

	return h, nil
}

// setHeader is the decoded form of the 4-byte set header shared by template,
// options template, and data sets.
type setHeader struct {
	Id     uint16
	Length uint16
}

// decodeSetHeader reads a 4-byte set header from the front of buf.
func decodeSetHeader(buf []byte) (setHeader, error) {
	if len(buf) < setHeaderLength {
		return setHeader{}, errShortSet
	}
	return setHeader{
		Id:     binary.BigEndian.Uint16(buf[0:2]),
		Length: binary.BigEndian.Uint16(buf[2:4]),
	}, nil
}
