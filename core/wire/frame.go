// frame.go - transaction header, parameter bag, frame
// Copyright (C) 2026  The Greenwood Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package wire

import (
	"encoding/binary"
)

// HeaderLen is the fixed size of an encoded transaction header.
const HeaderLen = 20

// MaxBodyLen is the sanity cap on a declared transaction body size.
const MaxBodyLen = 1 << 20

// Header is the fixed-size prefix of every transaction frame. All
// multi-byte fields are big-endian on the wire. For single-frame
// transactions TotalSize equals DataSize; fragmentation is not
// implemented but both fields are preserved.
type Header struct {
	Flags     int8
	IsReply   int8
	Type      TransactionType
	ID        int32
	ErrorCode int32
	TotalSize int32
	DataSize  int32
}

// AppendHeader appends the 20-byte encoding of h to b.
func AppendHeader(b []byte, h Header) []byte {
	b = append(b, byte(h.Flags), byte(h.IsReply))
	b = appendInt16(b, int16(h.Type))
	b = appendInt32(b, h.ID)
	b = appendInt32(b, h.ErrorCode)
	b = appendInt32(b, h.TotalSize)
	b = appendInt32(b, h.DataSize)
	return b
}

// DecodeHeader decodes a header from the front of b and returns the
// remaining input.
func DecodeHeader(b []byte) (Header, []byte, error) {
	if len(b) < HeaderLen {
		return Header{}, b, ErrShortInput
	}
	h := Header{
		Flags:     int8(b[0]),
		IsReply:   int8(b[1]),
		Type:      TransactionType(int16(binary.BigEndian.Uint16(b[2:4]))),
		ID:        int32(binary.BigEndian.Uint32(b[4:8])),
		ErrorCode: int32(binary.BigEndian.Uint32(b[8:12])),
		TotalSize: int32(binary.BigEndian.Uint32(b[12:16])),
		DataSize:  int32(binary.BigEndian.Uint32(b[16:20])),
	}
	return h, b[HeaderLen:], nil
}

// Parameter is a single (field-id, bytes) pair in a transaction body.
type Parameter struct {
	ID   FieldID
	Data []byte
}

// NewParameter builds a parameter from raw bytes.
func NewParameter(id FieldID, data []byte) Parameter {
	return Parameter{ID: id, Data: data}
}

// NewInt16Parameter builds a 2-byte big-endian integer parameter.
func NewInt16Parameter(id FieldID, v int16) Parameter {
	return Parameter{ID: id, Data: appendInt16(nil, v)}
}

// NewInt32Parameter builds a 4-byte big-endian integer parameter.
func NewInt32Parameter(id FieldID, v int32) Parameter {
	return Parameter{ID: id, Data: appendInt32(nil, v)}
}

// Int re-reads the parameter payload as a big-endian integer. Only the
// widths the protocol uses (1, 2, 4 and 8 bytes) are accepted.
func (p Parameter) Int() (int64, error) {
	switch len(p.Data) {
	case 1:
		return int64(int8(p.Data[0])), nil
	case 2:
		return int64(int16(binary.BigEndian.Uint16(p.Data))), nil
	case 4:
		return int64(int32(binary.BigEndian.Uint32(p.Data))), nil
	case 8:
		return int64(binary.BigEndian.Uint64(p.Data)), nil
	}
	return 0, &MalformedFieldError{Field: p.ID}
}

// Int16 decodes the payload as an integer and narrows it to 16 bits.
func (p Parameter) Int16() (int16, error) {
	v, err := p.Int()
	if err != nil {
		return 0, err
	}
	if v < -1<<15 || v > 1<<15-1 {
		return 0, &MalformedFieldError{Field: p.ID}
	}
	return int16(v), nil
}

// Int32 decodes the payload as an integer and narrows it to 32 bits.
func (p Parameter) Int32() (int32, error) {
	v, err := p.Int()
	if err != nil {
		return 0, err
	}
	if v < -1<<31 || v > 1<<31-1 {
		return 0, &MalformedFieldError{Field: p.ID}
	}
	return int32(v), nil
}

// Uint32 decodes a 4-byte payload as an unsigned integer. Reference
// numbers use the full 32-bit range.
func (p Parameter) Uint32() (uint32, error) {
	if len(p.Data) != 4 {
		return 0, &MalformedFieldError{Field: p.ID}
	}
	return binary.BigEndian.Uint32(p.Data), nil
}

// Body is the ordered parameter bag forming a transaction body.
// Repeated field ids are permitted and preserved in insertion order.
type Body struct {
	Parameters []Parameter
}

// NewBody builds a body from parameters, preserving order.
func NewBody(params ...Parameter) Body {
	return Body{Parameters: params}
}

// Add appends a parameter to the body.
func (b *Body) Add(p Parameter) {
	b.Parameters = append(b.Parameters, p)
}

// Field returns the first parameter carrying id.
func (b Body) Field(id FieldID) (Parameter, bool) {
	for _, p := range b.Parameters {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}

// Fields returns every parameter carrying id, in insertion order.
func (b Body) Fields(id FieldID) []Parameter {
	var out []Parameter
	for _, p := range b.Parameters {
		if p.ID == id {
			out = append(out, p)
		}
	}
	return out
}

// RequireField returns the first parameter carrying id or a
// MissingFieldError.
func (b Body) RequireField(id FieldID) (Parameter, error) {
	if p, ok := b.Field(id); ok {
		return p, nil
	}
	return Parameter{}, &MissingFieldError{Field: id}
}

// EncodedLen returns the number of bytes Encode will produce.
func (b Body) EncodedLen() int {
	n := 2
	for _, p := range b.Parameters {
		n += 4 + len(p.Data)
	}
	return n
}

// Encode renders the body: an i16 parameter count followed by each
// parameter as field-id, field-size, payload.
func (b Body) Encode() []byte {
	out := make([]byte, 0, b.EncodedLen())
	out = appendInt16(out, int16(len(b.Parameters)))
	for _, p := range b.Parameters {
		out = appendInt16(out, int16(p.ID))
		out = appendInt16(out, int16(len(p.Data)))
		out = append(out, p.Data...)
	}
	return out
}

// DecodeBody decodes a complete body from b. The input must hold exactly
// the declared parameters; trailing bytes are a length mismatch.
func DecodeBody(b []byte) (Body, error) {
	if len(b) < 2 {
		return Body{}, ErrShortInput
	}
	count := int(int16(binary.BigEndian.Uint16(b[:2])))
	if count < 0 {
		return Body{}, ErrLengthMismatch
	}
	b = b[2:]
	body := Body{}
	if count > 0 {
		body.Parameters = make([]Parameter, 0, count)
	}
	for i := 0; i < count; i++ {
		if len(b) < 4 {
			return Body{}, ErrShortInput
		}
		id := FieldID(int16(binary.BigEndian.Uint16(b[:2])))
		size := int(int16(binary.BigEndian.Uint16(b[2:4])))
		b = b[4:]
		if size < 0 {
			return Body{}, &MalformedFieldError{Field: id}
		}
		if len(b) < size {
			return Body{}, ErrShortInput
		}
		data := make([]byte, size)
		copy(data, b[:size])
		body.Parameters = append(body.Parameters, Parameter{ID: id, Data: data})
		b = b[size:]
	}
	if len(b) != 0 {
		return Body{}, ErrLengthMismatch
	}
	return body, nil
}

// Frame is one header plus one body exchanged over the control
// connection.
type Frame struct {
	Header Header
	Body   Body
}

// NewFrame builds a request frame of the given type.
func NewFrame(t TransactionType, params ...Parameter) Frame {
	return Frame{
		Header: Header{Type: t},
		Body:   NewBody(params...),
	}
}

// ReplyTo builds a reply frame answering the request header req: same
// transaction id, is-reply set, and the given error code.
func ReplyTo(req Header, errorCode int32, params ...Parameter) Frame {
	return Frame{
		Header: Header{
			Type:      req.Type,
			ID:        req.ID,
			IsReply:   1,
			ErrorCode: errorCode,
		},
		Body: NewBody(params...),
	}
}

// Encode renders the frame. The header's TotalSize and DataSize are
// computed from the encoded body, so the size invariant holds by
// construction.
func (f Frame) Encode() []byte {
	body := f.Body.Encode()
	h := f.Header
	h.TotalSize = int32(len(body))
	h.DataSize = int32(len(body))
	out := make([]byte, 0, HeaderLen+len(body))
	out = AppendHeader(out, h)
	return append(out, body...)
}

func appendInt16(b []byte, v int16) []byte {
	return append(b, byte(uint16(v)>>8), byte(uint16(v)))
}

func appendInt32(b []byte, v int32) []byte {
	return append(b,
		byte(uint32(v)>>24),
		byte(uint32(v)>>16),
		byte(uint32(v)>>8),
		byte(uint32(v)),
	)
}
