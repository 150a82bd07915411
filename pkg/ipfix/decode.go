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

// Decode decodes one IPFIX message held entirely in buf against registry,
// which is both read from (to resolve data sets against previously learned
// templates) and written to (as this message's own template sets are
// learned). A template set earlier in the same message is visible to a data
// set later in the same message: registry updates happen as each set is
// dispatched, not after the whole message decodes.
//
// Decode returns an *AbortError when the message itself cannot be trusted:
// a short or truncated header, or an unsupported protocol version. Anything
// less severe - a malformed set, an unknown set id, a data set referencing
// an unknown template - is absorbed into PacketInfo.SetErrorCount and
// decoding continues with the next set.
func Decode(registry *Registry, buf []byte) (*PacketInfo, error) {
	header, err := decodeMessageHeader(buf)
	if err != nil {
		PacketsAbortedTotal.Inc()
		return nil, err
	}

	info := &PacketInfo{
		ExportTime:     header.ExportTime,
		SequenceNumber: header.SequenceNumber,
		Odid:           header.ObservationDomainId,
	}

	body := buf[messageHeaderLength:header.TotalLength]

	for len(body) > 0 {
		if len(body) < setHeaderLength {
			SetsSkippedTotal.WithLabelValues("short_set").Inc()
			info.SetErrorCount++
			break
		}

		sh, err := decodeSetHeader(body)
		if err != nil {
			SetsSkippedTotal.WithLabelValues("short_set").Inc()
			info.SetErrorCount++
			break
		}
		if sh.Length < setHeaderLength || int(sh.Length) > len(body) {
			SetsSkippedTotal.WithLabelValues("length_out_of_range").Inc()
			info.SetErrorCount++
			break
		}

		result, err := decodeSet(registry, header.ObservationDomainId, body[:sh.Length])
		if err != nil {
			SetsSkippedTotal.WithLabelValues(setErrorReason(err)).Inc()
			info.SetErrorCount++
		} else {
			info.Templates = append(info.Templates, result.NewTemplates...)
			info.Data = append(info.Data, result.Records...)
			TemplatesLearnedTotal.Add(float64(len(result.NewTemplates)))
			DataRecordsDecodedTotal.Add(float64(len(result.Records)))
		}

		body = body[sh.Length:]
	}

	PacketsDecodedTotal.Inc()
	return info, nil
}

// setErrorReason maps a decodeSet error to a short, low-cardinality label
// for the sets_skipped_total metric.
func setErrorReason(err error) string {
	switch {
	case errors.Is(err, errShortSet):
		return "short_set"
	case errors.Is(err, errSetLengthOutOfRange):
		return "length_out_of_range"
	case errors.Is(err, errUnsupportedSetId):
		return "options_template_unsupported"
	case errors.Is(err, errUnassignedSetId):
		return "unassigned_set_id"
	case errors.Is(err, errShortTemplateSet):
		return "short_template_set"
	case errors.Is(err, errInvalidTemplateId):
		return "invalid_template_id"
	case errors.Is(err, ErrVariableLength):
		return "variable_length_unsupported"
	case errors.Is(err, errShortDataRecord):
		return "short_data_record"
	case errors.Is(err, ErrTemplateNotFound):
		return "template_not_found"
	default:
		return "other"
	}
}
