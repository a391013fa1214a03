package idbv1

import (
	"bytes"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// message is implemented by every hand-written message in this package.
type message interface {
	appendWire(b []byte) []byte
	unmarshalWire(b []byte) error
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendEnum always writes the value. Used for oneof members where the zero
// enum is meaningful.
func appendEnum(b []byte, num protowire.Number, v int32) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendMessage(b []byte, num protowire.Number, m message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendWire(nil))
}

// decoder walks the fields of one encoded message. Callers loop on next and
// read the current field with one of the typed accessors, or skip it.
type decoder struct {
	b   []byte
	num protowire.Number
	typ protowire.Type
	err error
}

func (d *decoder) next() bool {
	if d.err != nil || len(d.b) == 0 {
		return false
	}
	num, typ, n := protowire.ConsumeTag(d.b)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return false
	}
	d.num, d.typ, d.b = num, typ, d.b[n:]
	return true
}

func (d *decoder) fail(n int) {
	if d.err == nil {
		d.err = fmt.Errorf("field %d: %w", d.num, protowire.ParseError(n))
	}
	d.b = nil
}

func (d *decoder) expect(typ protowire.Type) bool {
	if d.typ != typ {
		if d.err == nil {
			d.err = fmt.Errorf("field %d: wire type %d, want %d", d.num, d.typ, typ)
		}
		d.b = nil
		return false
	}
	return true
}

func (d *decoder) raw() []byte {
	if !d.expect(protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(d.b)
	if n < 0 {
		d.fail(n)
		return nil
	}
	d.b = d.b[n:]
	return v
}

func (d *decoder) string() string { return string(d.raw()) }

// bytes copies the field; gRPC recycles the receive buffer after decoding.
func (d *decoder) bytes() []byte {
	v := d.raw()
	if v == nil {
		return nil
	}
	return bytes.Clone(v)
}

func (d *decoder) varint() uint64 {
	if !d.expect(protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(d.b)
	if n < 0 {
		d.fail(n)
		return 0
	}
	d.b = d.b[n:]
	return v
}

func (d *decoder) enum() int32 { return int32(d.varint()) }

func (d *decoder) bool() bool { return protowire.DecodeBool(d.varint()) }

func (d *decoder) double() float64 {
	if !d.expect(protowire.Fixed64Type) {
		return 0
	}
	v, n := protowire.ConsumeFixed64(d.b)
	if n < 0 {
		d.fail(n)
		return 0
	}
	d.b = d.b[n:]
	return math.Float64frombits(v)
}

func (d *decoder) message(m message) {
	v := d.raw()
	if d.err != nil {
		return
	}
	if err := m.unmarshalWire(v); err != nil {
		d.err = fmt.Errorf("field %d: %w", d.num, err)
		d.b = nil
	}
}

// enums reads a repeated enum in either packed or unpacked form.
func (d *decoder) enums(dst []int32) []int32 {
	if d.typ == protowire.VarintType {
		return append(dst, d.enum())
	}
	packed := d.raw()
	for len(packed) > 0 {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			d.fail(n)
			return dst
		}
		dst = append(dst, int32(v))
		packed = packed[n:]
	}
	return dst
}

func (d *decoder) skip() {
	n := protowire.ConsumeFieldValue(d.num, d.typ, d.b)
	if n < 0 {
		d.fail(n)
		return
	}
	d.b = d.b[n:]
}
