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

// errShortDataRecord is a recoverable per-set error: a field's declared
// width would read past the bounds of a record.
var errShortDataRecord = errors.New("data record field reads past record bounds")

// decodeDataSet decodes every data record in a data set's body (the bytes
// after the 4-byte set header) against template. Record size is the sum of
// the template's fixed field widths; trailing bytes that don't fill a
// whole record are padding and are ignored, per RFC 7011 §3.3.1.
func decodeDataSet(setId uint16, template TemplateDef, body []byte) ([]DataRecord, error) {
	recordSize := template.RecordSize()
	if recordSize == 0 {
		return nil, nil
	}

	count := len(body) / recordSize

	records := make([]DataRecord, 0, count)
	for i := 0; i < count; i++ {
		record := body[i*recordSize : (i+1)*recordSize]
		dr, err := decodeDataRecord(setId, template, record)
		if err != nil {
			return records, err
		}
		records = append(records, dr)
	}

	return records, nil
}

// decodeDataRecord decodes one fixed-size record against template. record
// must be exactly template.RecordSize() bytes.
func decodeDataRecord(setId uint16, template TemplateDef, record []byte) (DataRecord, error) {
	dr := DataRecord{
		TemplateId: template.TemplateId,
		SetId:      setId,
		Values:     make([]DataField, 0, len(template.Fields)),
	}

	for _, f := range template.Fields {
		v, err := readFieldValue(record, int(f.StartOffset), f.Width)
		if err != nil {
			return DataRecord{}, err
		}
		dr.Values = append(dr.Values, DataField{
			FieldId:          f.FieldId,
			EnterpriseNumber: f.EnterpriseNumber,
			Value:            v,
		})
	}

	return dr, nil
}

// readFieldValue reads width bytes at offset within record and materializes
// a FieldValue per the width-to-type mapping: 1/2/4/8 bytes are read as
// unsigned integers, any other width is captured as opaque bytes.
//
// The teacher library's generic DataType system associates a constructor
// with each information element; this design has no such registry (its
// scope is the fixed set of widths spec.md names), so the mapping is a
// direct switch on width instead.
func readFieldValue(record []byte, offset int, width uint16) (FieldValue, error) {
	if width == 0 || offset < 0 || offset+int(width) > len(record) {
		return FieldValue{}, errShortDataRecord
	}
	buf := record[offset : offset+int(width)]

	switch width {
	case 8:
		return FieldValue{Kind: KindU64, U64: binary.BigEndian.Uint64(buf)}, nil
	case 4:
		return FieldValue{Kind: KindU32, U32: binary.BigEndian.Uint32(buf)}, nil
	case 2:
		return FieldValue{Kind: KindU16, U16: binary.BigEndian.Uint16(buf)}, nil
	case 1:
		return FieldValue{Kind: KindU8, U8: buf[0]}, nil
	default:
		b := make([]byte, width)
		copy(b, buf)
		return FieldValue{Kind: KindBytes, Bytes: b}, nil
	}
}
