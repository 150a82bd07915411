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
	"errors"
)

// errShortTemplateSet is a recoverable per-set error: the set body ran out
// of bytes partway through a template record or field specifier.
var errShortTemplateSet = errors.New("template set truncated")

// errInvalidTemplateId is a recoverable per-set error: RFC 7011 reserves
// template ids below 256.
var errInvalidTemplateId = errors.New("template id below 256")

// enterpriseBit marks an information element id as enterprise-scoped; the
// stored FieldId has this bit stripped.
const enterpriseBit uint16 = 0x8000

// decodeTemplateSet decodes every template record in a template set's body
// (the bytes after the 4-byte set header). Records repeat until the body
// is exhausted. A template containing a variable-length field (width
// 0xFFFF) is rejected in full, per spec: fixed offsets cannot be
// precomputed past a variable-length field, and this design does not carry
// a "variable from here" flag.
func decodeTemplateSet(odid uint32, body []byte) ([]TemplateDef, error) {
	var templates []TemplateDef

	pos := 0
	for pos < len(body) {
		t, n, err := decodeTemplateRecord(odid, body[pos:])
		if err != nil {
			// A malformed record invalidates the whole set: the offsets
			// computed so far give no reliable boundary to resume from.
			return nil, err
		}
		templates = append(templates, t)
		pos += n
	}

	return templates, nil
}

// decodeTemplateRecord decodes one template record (template id, field
// count, then that many field specifiers) from the front of buf, returning
// the template and the number of bytes it consumed.
func decodeTemplateRecord(odid uint32, buf []byte) (TemplateDef, int, error) {
	if len(buf) < 4 {
		return TemplateDef{}, 0, errShortTemplateSet
	}

	templateId := binary.BigEndian.Uint16(buf[0:2])
	fieldCount := binary.BigEndian.Uint16(buf[2:4])

	if templateId < 256 {
		return TemplateDef{}, 0, errInvalidTemplateId
	}

	t := TemplateDef{TemplateId: templateId, Odid: odid}

	pos := 4
	var offset uint32
	for i := uint16(0); i < fieldCount; i++ {
		if len(buf)-pos < 4 {
			return TemplateDef{}, 0, errShortTemplateSet
		}

		rawId := binary.BigEndian.Uint16(buf[pos : pos+2])
		width := binary.BigEndian.Uint16(buf[pos+2 : pos+4])
		pos += 4

		var enterpriseNumber uint32
		if rawId&enterpriseBit != 0 {
			if len(buf)-pos < 4 {
				return TemplateDef{}, 0, errShortTemplateSet
			}
			enterpriseNumber = binary.BigEndian.Uint32(buf[pos : pos+4])
			pos += 4
		}

		if width == 0xFFFF {
			return TemplateDef{}, 0, ErrVariableLength
		}

		t.Fields = append(t.Fields, FieldDef{
			FieldId:          rawId &^ enterpriseBit,
			EnterpriseNumber: enterpriseNumber,
			Width:            width,
			StartOffset:      offset,
		})
		offset += uint32(width)
	}

	return t, pos, nil
}

// encodeTemplateRecord writes t as one template record (template id, field
// count, then that many field specifiers) in wire form, the inverse of
// decodeTemplateRecord. Grounded on the teacher's TemplateRecord.Encode
// (template_record.go); this decoder only ever consumes templates off the
// wire, so the only caller of this is the decode/encode round-trip test.
func encodeTemplateRecord(t TemplateDef) []byte {
	buf := make([]byte, 0, 4+4*len(t.Fields))
	buf = binary.BigEndian.AppendUint16(buf, t.TemplateId)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(t.Fields)))
	for _, f := range t.Fields {
		id := f.FieldId
		if f.EnterpriseNumber != 0 {
			id |= enterpriseBit
		}
		buf = binary.BigEndian.AppendUint16(buf, id)
		buf = binary.BigEndian.AppendUint16(buf, f.Width)
		if f.EnterpriseNumber != 0 {
			buf = binary.BigEndian.AppendUint32(buf, f.EnterpriseNumber)
		}
	}
	return buf
}

// encodeTemplateSet wraps t's encoded record in a template set (set id 2),
// the inverse of decodeTemplateSet for the single-template case.
func encodeTemplateSet(t TemplateDef) []byte {
	record := encodeTemplateRecord(t)
	set := make([]byte, 0, setHeaderLength+len(record))
	set = binary.BigEndian.AppendUint16(set, SetIdTemplate)
	set = binary.BigEndian.AppendUint16(set, uint16(setHeaderLength+len(record)))
	set = append(set, record...)
	return set
}
