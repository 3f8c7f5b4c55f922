// handshake.go - control and transfer handshake framing
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
	"bytes"
	"encoding/binary"
)

var (
	magicTRTP = []byte("TRTP")
	magicHTXF = []byte("HTXF")
)

// ClientHandshakeLen is the size of the client's control handshake.
const ClientHandshakeLen = 12

// ServerHandshakeLen is the size of the server's handshake reply.
const ServerHandshakeLen = 8

// TransferHandshakeLen is the size of the transfer-connection handshake.
const TransferHandshakeLen = 16

// ClientHandshake is the first thing a client sends on the control
// connection: the TRTP magic, a sub-protocol id, and a version pair.
// Any sub-protocol is accepted; it is recorded for diagnostics only.
type ClientHandshake struct {
	SubProtocol int32
	Version     int16
	SubVersion  int16
}

// Encode renders the 12-byte client handshake.
func (h ClientHandshake) Encode() []byte {
	out := make([]byte, 0, ClientHandshakeLen)
	out = append(out, magicTRTP...)
	out = appendInt32(out, h.SubProtocol)
	out = appendInt16(out, h.Version)
	out = appendInt16(out, h.SubVersion)
	return out
}

// DecodeClientHandshake decodes the client handshake from the front of b
// and returns the remaining input.
func DecodeClientHandshake(b []byte) (ClientHandshake, []byte, error) {
	if len(b) < ClientHandshakeLen {
		return ClientHandshake{}, b, ErrShortInput
	}
	if !bytes.Equal(b[:4], magicTRTP) {
		return ClientHandshake{}, b, ErrBadMagic
	}
	h := ClientHandshake{
		SubProtocol: int32(binary.BigEndian.Uint32(b[4:8])),
		Version:     int16(binary.BigEndian.Uint16(b[8:10])),
		SubVersion:  int16(binary.BigEndian.Uint16(b[10:12])),
	}
	return h, b[ClientHandshakeLen:], nil
}

// ServerHandshake is the server's reply to the client handshake. An
// error code of zero accepts the session; anything else aborts it.
type ServerHandshake struct {
	ErrorCode int32
}

// Encode renders the 8-byte server handshake reply.
func (h ServerHandshake) Encode() []byte {
	out := make([]byte, 0, ServerHandshakeLen)
	out = append(out, magicTRTP...)
	out = appendInt32(out, h.ErrorCode)
	return out
}

// DecodeServerHandshake decodes the server handshake reply from the
// front of b and returns the remaining input.
func DecodeServerHandshake(b []byte) (ServerHandshake, []byte, error) {
	if len(b) < ServerHandshakeLen {
		return ServerHandshake{}, b, ErrShortInput
	}
	if !bytes.Equal(b[:4], magicTRTP) {
		return ServerHandshake{}, b, ErrBadMagic
	}
	h := ServerHandshake{ErrorCode: int32(binary.BigEndian.Uint32(b[4:8]))}
	return h, b[ServerHandshakeLen:], nil
}

// TransferHandshake opens a transfer connection: the HTXF magic, the
// reference number reserved on the control connection, the declared
// payload size, and four reserved bytes.
type TransferHandshake struct {
	Reference uint32
	Size      int32
}

// Encode renders the 16-byte transfer handshake.
func (h TransferHandshake) Encode() []byte {
	out := make([]byte, 0, TransferHandshakeLen)
	out = append(out, magicHTXF...)
	out = binary.BigEndian.AppendUint32(out, h.Reference)
	out = appendInt32(out, h.Size)
	return append(out, 0, 0, 0, 0)
}

// DecodeTransferHandshake decodes the transfer handshake from the front
// of b and returns the remaining input.
func DecodeTransferHandshake(b []byte) (TransferHandshake, []byte, error) {
	if len(b) < TransferHandshakeLen {
		return TransferHandshake{}, b, ErrShortInput
	}
	if !bytes.Equal(b[:4], magicHTXF) {
		return TransferHandshake{}, b, ErrBadMagic
	}
	h := TransferHandshake{
		Reference: binary.BigEndian.Uint32(b[4:8]),
		Size:      int32(binary.BigEndian.Uint32(b[8:12])),
	}
	return h, b[TransferHandshakeLen:], nil
}
