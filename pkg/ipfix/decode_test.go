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
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// testField is a template field specifier for buildTemplateSet. A nonzero
// enterprise sets the enterprise bit on id and appends a 4-byte PEN, per
// RFC 7011 §3.2.
type testField struct {
	id         uint16
	width      uint16
	enterprise uint32
}

// buildTemplateSet assembles a template set body (set id 2) defining one
// template with the given fields, length-prefixed as RFC 7011 requires.
func buildTemplateSet(templateId uint16, fields []testField) []byte {
	var body bytes.Buffer
	binary.Write(&body, binary.BigEndian, templateId)
	binary.Write(&body, binary.BigEndian, uint16(len(fields)))
	for _, f := range fields {
		id := f.id
		if f.enterprise != 0 {
			id |= enterpriseBit
		}
		binary.Write(&body, binary.BigEndian, id)
		binary.Write(&body, binary.BigEndian, f.width)
		if f.enterprise != 0 {
			binary.Write(&body, binary.BigEndian, f.enterprise)
		}
	}
	return wrapSet(SetIdTemplate, body.Bytes())
}

// buildDataSet assembles a data set body for setId using already-encoded
// record bytes (the caller is responsible for matching the template).
func buildDataSet(setId uint16, records ...[]byte) []byte {
	var body bytes.Buffer
	for _, r := range records {
		body.Write(r)
	}
	return wrapSet(setId, body.Bytes())
}

func wrapSet(setId uint16, content []byte) []byte {
	var set bytes.Buffer
	binary.Write(&set, binary.BigEndian, setId)
	binary.Write(&set, binary.BigEndian, uint16(4+len(content)))
	set.Write(content)
	return set.Bytes()
}

// buildMessage assembles a full IPFIX message from a header and zero or
// more already-framed sets, filling in Version and TotalLength.
func buildMessage(version uint16, exportTime, seqNum, odid uint32, sets ...[]byte) []byte {
	var body bytes.Buffer
	for _, s := range sets {
		body.Write(s)
	}

	var msg bytes.Buffer
	binary.Write(&msg, binary.BigEndian, version)
	binary.Write(&msg, binary.BigEndian, uint16(messageHeaderLength+body.Len()))
	binary.Write(&msg, binary.BigEndian, exportTime)
	binary.Write(&msg, binary.BigEndian, seqNum)
	binary.Write(&msg, binary.BigEndian, odid)
	msg.Write(body.Bytes())
	return msg.Bytes()
}

func u32Field(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func u16Field(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func TestDecode_TemplateThenData(t *testing.T) {
	templateSet := buildTemplateSet(256, []testField{{id: 8, width: 4}, {id: 7, width: 2}})
	dataSet := buildDataSet(256, append(u32Field(0x11223344), u16Field(0x5566)...))

	buf := buildMessage(10, 1, 2, 3, templateSet, dataSet)

	registry := NewRegistry()
	info, err := Decode(registry, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if info.Odid != 3 {
		t.Errorf("Odid = %d, want 3", info.Odid)
	}
	if info.SetErrorCount != 0 {
		t.Errorf("SetErrorCount = %d, want 0", info.SetErrorCount)
	}
	if len(info.Templates) != 1 || info.Templates[0].TemplateId != 256 {
		t.Fatalf("Templates = %+v, want one template with id 256", info.Templates)
	}
	if len(info.Templates[0].Fields) != 2 {
		t.Fatalf("Fields = %+v, want 2 fields", info.Templates[0].Fields)
	}

	if len(info.Data) != 1 {
		t.Fatalf("Data = %+v, want 1 record", info.Data)
	}
	rec := info.Data[0]
	if rec.TemplateId != 256 {
		t.Errorf("TemplateId = %d, want 256", rec.TemplateId)
	}
	if len(rec.Values) != 2 {
		t.Fatalf("Values = %+v, want 2 fields", rec.Values)
	}
	if rec.Values[0].Value.Kind != KindU32 || rec.Values[0].Value.U32 != 0x11223344 {
		t.Errorf("Values[0] = %v, want U32(0x11223344)", rec.Values[0].Value)
	}
	if rec.Values[1].Value.Kind != KindU16 || rec.Values[1].Value.U16 != 0x5566 {
		t.Errorf("Values[1] = %v, want U16(0x5566)", rec.Values[1].Value)
	}

	if replaced := registry.Insert(info.Templates[0]); !replaced {
		t.Error("registry should already have learned the template in-line during Decode")
	}
}

func TestDecode_DataBeforeTemplate(t *testing.T) {
	templateSet := buildTemplateSet(256, []testField{{id: 8, width: 4}, {id: 7, width: 2}})
	dataSet := buildDataSet(256, append(u32Field(0x11223344), u16Field(0x5566)...))

	// data set first: the template it needs isn't known yet
	buf := buildMessage(10, 1, 2, 3, dataSet, templateSet)

	registry := NewRegistry()
	info, err := Decode(registry, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(info.Templates) != 1 {
		t.Fatalf("Templates = %+v, want the template to still be learned", info.Templates)
	}
	if len(info.Data) != 0 {
		t.Errorf("Data = %+v, want empty (template wasn't known yet)", info.Data)
	}
	if info.SetErrorCount != 1 {
		t.Errorf("SetErrorCount = %d, want 1", info.SetErrorCount)
	}
}

func TestDecode_VersionMismatch(t *testing.T) {
	buf := buildMessage(9, 1, 2, 3)

	_, err := Decode(NewRegistry(), buf)
	if err == nil {
		t.Fatal("expected an error for an unsupported version")
	}

	var abortErr *AbortError
	if !errors.As(err, &abortErr) {
		t.Fatalf("err = %v (%T), want *AbortError", err, err)
	}
	if !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("expected errors.Is(err, ErrUnknownVersion)")
	}
}

func TestDecode_TemplateRefresh(t *testing.T) {
	registry := NewRegistry()

	firstSet := buildTemplateSet(256, []testField{{id: 8, width: 4}})
	first := buildMessage(10, 1, 1, 3, firstSet)

	info1, err := Decode(registry, first)
	if err != nil {
		t.Fatalf("Decode first: %v", err)
	}
	if len(info1.Templates) != 1 || info1.Templates[0].RecordSize() != 4 {
		t.Fatalf("first template = %+v, want one 4-byte-record template", info1.Templates)
	}

	secondTemplateSet := buildTemplateSet(256, []testField{{id: 8, width: 4}, {id: 7, width: 2}})
	secondDataSet := buildDataSet(256, append(u32Field(0xaabbccdd), u16Field(0xeeff)...))
	second := buildMessage(10, 2, 2, 3, secondTemplateSet, secondDataSet)

	info2, err := Decode(registry, second)
	if err != nil {
		t.Fatalf("Decode second: %v", err)
	}
	if len(info2.Templates) != 1 || info2.Templates[0].RecordSize() != 6 {
		t.Fatalf("refreshed template = %+v, want a 6-byte-record template", info2.Templates)
	}
	if len(info2.Data) != 1 {
		t.Fatalf("Data = %+v, want one record decoded against the refreshed layout", info2.Data)
	}
	if info2.Data[0].Values[0].Value.U32 != 0xaabbccdd {
		t.Errorf("Values[0] = %v, want U32(0xaabbccdd)", info2.Data[0].Values[0].Value)
	}
}

func TestDecode_EmptySetSkipped(t *testing.T) {
	emptySet := wrapSet(SetIdTemplate, nil)
	buf := buildMessage(10, 1, 2, 3, emptySet)

	info, err := Decode(NewRegistry(), buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.SetErrorCount != 0 {
		t.Errorf("SetErrorCount = %d, want 0 for an empty set", info.SetErrorCount)
	}
	if len(info.Templates) != 0 || len(info.Data) != 0 {
		t.Errorf("info = %+v, want no templates or data from an empty set", info)
	}
}

func TestDecode_TruncatedDatagram(t *testing.T) {
	buf := buildMessage(10, 1, 2, 3)
	// claim a TotalLength far beyond the actual buffer
	binary.BigEndian.PutUint16(buf[2:4], 0x0100)

	_, err := Decode(NewRegistry(), buf)
	var abortErr *AbortError
	if !errors.As(err, &abortErr) {
		t.Fatalf("err = %v, want *AbortError for a declared length past the buffer", err)
	}
	if !errors.Is(err, ErrTruncatedPacket) {
		t.Errorf("expected errors.Is(err, ErrTruncatedPacket)")
	}
}

func TestDecode_TotalLengthBelowHeaderSize(t *testing.T) {
	buf := buildMessage(10, 1, 2, 3)
	// claim a TotalLength shorter than the header itself
	binary.BigEndian.PutUint16(buf[2:4], 10)

	_, err := Decode(NewRegistry(), buf)
	var abortErr *AbortError
	if !errors.As(err, &abortErr) {
		t.Fatalf("err = %v, want *AbortError for a TotalLength below the header size", err)
	}
	if !errors.Is(err, ErrTruncatedPacket) {
		t.Errorf("expected errors.Is(err, ErrTruncatedPacket)")
	}
}

func TestDecode_DataSetTrailingBytesIgnored(t *testing.T) {
	registry := NewRegistry()
	registry.Insert(TemplateDef{
		TemplateId: 256,
		Odid:       3,
		Fields:     []FieldDef{{FieldId: 8, Width: 4}},
	})

	// one full 4-byte record plus 2 trailing padding bytes
	dataSet := buildDataSet(256, append(u32Field(0x11223344), 0xaa, 0xbb))
	buf := buildMessage(10, 1, 2, 3, dataSet)

	info, err := Decode(registry, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(info.Data) != 1 {
		t.Fatalf("Data = %+v, want exactly one full record, trailing bytes ignored", info.Data)
	}
}

func TestDecode_UnknownSetIdIsRecoverable(t *testing.T) {
	unassigned := wrapSet(1, []byte{0, 0})
	buf := buildMessage(10, 1, 2, 3, unassigned)

	info, err := Decode(NewRegistry(), buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.SetErrorCount != 1 {
		t.Errorf("SetErrorCount = %d, want 1 for an unassigned set id", info.SetErrorCount)
	}
}

func TestDecode_OptionsTemplateSetIsRecoverable(t *testing.T) {
	opts := wrapSet(SetIdOptionsTemplate, []byte{0x01, 0x00, 0x00, 0x01, 0x00, 0x00})
	buf := buildMessage(10, 1, 2, 3, opts)

	info, err := Decode(NewRegistry(), buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.SetErrorCount != 1 {
		t.Errorf("SetErrorCount = %d, want 1 for an options template set", info.SetErrorCount)
	}
}

func TestDecode_EnterpriseFieldDecodes(t *testing.T) {
	templateSet := buildTemplateSet(256, []testField{
		{id: 8, width: 4},
		{id: 12, width: 2, enterprise: 29305},
	})
	dataSet := buildDataSet(256, append(u32Field(0x11223344), u16Field(0x0102)...))
	buf := buildMessage(10, 1, 2, 3, templateSet, dataSet)

	info, err := Decode(NewRegistry(), buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.SetErrorCount != 0 {
		t.Fatalf("SetErrorCount = %d, want 0", info.SetErrorCount)
	}

	fields := info.Templates[0].Fields
	if len(fields) != 2 {
		t.Fatalf("Fields = %+v, want 2 fields", fields)
	}
	if fields[1].FieldId != 12 {
		t.Errorf("Fields[1].FieldId = %d, want 12 (enterprise bit stripped)", fields[1].FieldId)
	}
	if fields[1].EnterpriseNumber != 29305 {
		t.Errorf("Fields[1].EnterpriseNumber = %d, want 29305", fields[1].EnterpriseNumber)
	}

	if len(info.Data) != 1 {
		t.Fatalf("Data = %+v, want 1 record", info.Data)
	}
	dv := info.Data[0].Values[1]
	if dv.FieldId != 12 || dv.EnterpriseNumber != 29305 {
		t.Errorf("Values[1] = %+v, want enterprise field id 12/pen 29305", dv)
	}
	if dv.Value.Kind != KindU16 || dv.Value.U16 != 0x0102 {
		t.Errorf("Values[1].Value = %v, want U16(0x0102)", dv.Value)
	}
}

func TestDecode_TruncatedEnterpriseNumberIsRecoverable(t *testing.T) {
	// template id, field count=1, one enterprise-scoped field specifier cut
	// off right after its width - the 4-byte PEN never arrives.
	var body bytes.Buffer
	binary.Write(&body, binary.BigEndian, uint16(256))
	binary.Write(&body, binary.BigEndian, uint16(1))
	binary.Write(&body, binary.BigEndian, uint16(8)|enterpriseBit)
	binary.Write(&body, binary.BigEndian, uint16(4))
	templateSet := wrapSet(SetIdTemplate, body.Bytes())

	buf := buildMessage(10, 1, 2, 3, templateSet)

	info, err := Decode(NewRegistry(), buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.SetErrorCount != 1 {
		t.Errorf("SetErrorCount = %d, want 1 for a truncated enterprise number", info.SetErrorCount)
	}
	if len(info.Templates) != 0 {
		t.Errorf("Templates = %+v, want none (the record never completed)", info.Templates)
	}
}

func TestDecode_VariableLengthTemplateIsRecoverable(t *testing.T) {
	templateSet := buildTemplateSet(256, []testField{{id: 8, width: 0xFFFF}})
	buf := buildMessage(10, 1, 2, 3, templateSet)

	info, err := Decode(NewRegistry(), buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.SetErrorCount != 1 {
		t.Errorf("SetErrorCount = %d, want 1 for a variable-length field", info.SetErrorCount)
	}
	if len(info.Templates) != 0 {
		t.Errorf("Templates = %+v, want none: the whole template is rejected", info.Templates)
	}
}

func TestDecode_ZeroWidthFieldAbortsOnlyThatDataSet(t *testing.T) {
	registry := NewRegistry()
	registry.Insert(TemplateDef{
		TemplateId: 256,
		Odid:       3,
		Fields:     []FieldDef{{FieldId: 8, Width: 0}, {FieldId: 7, Width: 4, StartOffset: 0}},
	})
	registry.Insert(TemplateDef{
		TemplateId: 257,
		Odid:       3,
		Fields:     []FieldDef{{FieldId: 7, Width: 4}},
	})

	badDataSet := buildDataSet(256, u32Field(0xdeadbeef))
	goodDataSet := buildDataSet(257, u32Field(0x11223344))
	buf := buildMessage(10, 1, 2, 3, badDataSet, goodDataSet)

	info, err := Decode(registry, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.SetErrorCount != 1 {
		t.Errorf("SetErrorCount = %d, want 1: only the zero-width data set aborts", info.SetErrorCount)
	}
	if len(info.Data) != 1 {
		t.Fatalf("Data = %+v, want the other data set's record to still decode", info.Data)
	}
	if info.Data[0].TemplateId != 257 {
		t.Errorf("Data[0].TemplateId = %d, want 257", info.Data[0].TemplateId)
	}
}

func TestTemplateDef_RoundTrips(t *testing.T) {
	original := TemplateDef{
		TemplateId: 256,
		Odid:       3,
		Fields: []FieldDef{
			{FieldId: 8, Width: 4, StartOffset: 0},
			{FieldId: 12, EnterpriseNumber: 29305, Width: 2, StartOffset: 4},
		},
	}

	wire := encodeTemplateSet(original)
	buf := buildMessage(10, 1, 2, original.Odid, wire)

	info, err := Decode(NewRegistry(), buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(info.Templates) != 1 {
		t.Fatalf("Templates = %+v, want exactly one redecoded template", info.Templates)
	}

	got := info.Templates[0]
	if got.TemplateId != original.TemplateId || got.Odid != original.Odid {
		t.Fatalf("got = %+v, want TemplateId/Odid matching %+v", got, original)
	}
	if len(got.Fields) != len(original.Fields) {
		t.Fatalf("got.Fields = %+v, want %+v", got.Fields, original.Fields)
	}
	for i, f := range got.Fields {
		want := original.Fields[i]
		if f.FieldId != want.FieldId || f.EnterpriseNumber != want.EnterpriseNumber ||
			f.Width != want.Width || f.StartOffset != want.StartOffset {
			t.Errorf("Fields[%d] = %+v, want %+v", i, f, want)
		}
	}
}
