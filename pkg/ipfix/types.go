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

import "fmt"

// FieldDef describes one field's layout within a record, in the order the
// template's wire format declared it.
type FieldDef struct {
	// FieldId is the information element id, enterprise bit stripped.
	FieldId uint16
	// EnterpriseNumber is 0 for IANA-registered elements.
	EnterpriseNumber uint32
	// Width is the field's width in bytes. 1/2/4/8 are read as unsigned
	// integers; other fixed widths are captured as opaque bytes. A width of
	// 0xFFFF (variable-length) is rejected at template-decode time; no
	// FieldDef in a successfully decoded TemplateDef ever carries it.
	Width uint16
	// StartOffset is the byte offset of this field within a record, the sum
	// of the widths of all preceding fields in the template.
	StartOffset uint32
}

func (f FieldDef) String() string {
	return fmt.Sprintf("{id:%d en:%d width:%d offset:%d}", f.FieldId, f.EnterpriseNumber, f.Width, f.StartOffset)
}

// TemplateDef is the decoded shape of one record type, scoped to one
// observation domain. Once installed in a Registry, a TemplateDef is never
// mutated in place; a redefinition replaces the whole entry.
type TemplateDef struct {
	TemplateId uint16
	Odid       uint32
	Fields     []FieldDef
}

// RecordSize is the sum of the widths of all fields, i.e. the fixed byte
// length of one data record under this template.
func (t TemplateDef) RecordSize() int {
	n := 0
	for _, f := range t.Fields {
		n += int(f.Width)
	}
	return n
}

func (t TemplateDef) String() string {
	return fmt.Sprintf("Template{id:%d odid:%d fields:%v}", t.TemplateId, t.Odid, t.Fields)
}

// FieldValueKind discriminates the union stored in a FieldValue.
type FieldValueKind int

const (
	KindU8 FieldValueKind = iota
	KindU16
	KindU32
	KindU64
	KindBytes
)

// FieldValue is a decoded scalar or opaque-byte value, tagged with which
// alternative is populated. Exactly one of the typed fields is meaningful,
// selected by Kind.
type FieldValue struct {
	Kind  FieldValueKind
	U8    uint8
	U16   uint16
	U32   uint32
	U64   uint64
	Bytes []byte
}

func (v FieldValue) String() string {
	switch v.Kind {
	case KindU8:
		return fmt.Sprintf("U8(%d)", v.U8)
	case KindU16:
		return fmt.Sprintf("U16(%d)", v.U16)
	case KindU32:
		return fmt.Sprintf("U32(%d)", v.U32)
	case KindU64:
		return fmt.Sprintf("U64(%d)", v.U64)
	default:
		return fmt.Sprintf("Bytes(% x)", v.Bytes)
	}
}

// DataField is one decoded field value within a DataRecord, tagging its
// value with the information element it belongs to.
type DataField struct {
	FieldId          uint16
	EnterpriseNumber uint32
	Value            FieldValue
}

// DataRecord is one decoded record within a data set.
type DataRecord struct {
	TemplateId uint16
	SetId      uint16
	Values     []DataField
}

// PacketInfo is the result of successfully decoding one IPFIX datagram.
type PacketInfo struct {
	ExportTime     uint32
	SequenceNumber uint32
	Odid           uint32
	Templates      []TemplateDef
	Data           []DataRecord
	SetErrorCount  uint32
}
