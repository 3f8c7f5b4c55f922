// flatfile.go - flattened-file container format
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

var magicFILP = []byte("FILP")

// FlatFileHeaderLen is the encoded size of the container header.
const FlatFileHeaderLen = 24

// ForkHeaderLen is the encoded size of a fork header.
const ForkHeaderLen = 16

// flatFileVersion is the only container version defined by the protocol.
const flatFileVersion = 1

// ForkType names a fork within a flattened-file container.
type ForkType [4]byte

var (
	ForkInfo     = ForkType{'I', 'N', 'F', 'O'}
	ForkData     = ForkType{'D', 'A', 'T', 'A'}
	ForkResource = ForkType{'M', 'A', 'C', 'R'}
)

// Platform names the platform a file's metadata belongs to.
type Platform [4]byte

var (
	PlatformAppleMac     = Platform{'A', 'M', 'A', 'C'}
	PlatformMicrosoftWin = Platform{'M', 'W', 'I', 'N'}
)

// FlatFileHeader is the container prefix: the FILP magic, a version,
// sixteen reserved bytes, and the fork count.
type FlatFileHeader struct {
	ForkCount int16
}

// Encode renders the 24-byte container header.
func (h FlatFileHeader) Encode() []byte {
	out := make([]byte, 0, FlatFileHeaderLen)
	out = append(out, magicFILP...)
	out = appendInt16(out, flatFileVersion)
	out = append(out, make([]byte, 16)...)
	return appendInt16(out, h.ForkCount)
}

// DecodeFlatFileHeader decodes the container header from the front of b
// and returns the remaining input. Only version 1 is accepted.
func DecodeFlatFileHeader(b []byte) (FlatFileHeader, []byte, error) {
	if len(b) < FlatFileHeaderLen {
		return FlatFileHeader{}, b, ErrShortInput
	}
	if !bytes.Equal(b[:4], magicFILP) {
		return FlatFileHeader{}, b, ErrBadMagic
	}
	if int16(binary.BigEndian.Uint16(b[4:6])) != flatFileVersion {
		return FlatFileHeader{}, b, ErrBadMagic
	}
	h := FlatFileHeader{ForkCount: int16(binary.BigEndian.Uint16(b[22:24]))}
	return h, b[FlatFileHeaderLen:], nil
}

// ForkHeader prefixes each fork's payload: the fork type, a compression
// type (zero for none, the only mode served), four reserved bytes, and
// the payload size.
type ForkHeader struct {
	Type        ForkType
	Compression uint32
	DataSize    int32
}

// Encode renders the 16-byte fork header.
func (h ForkHeader) Encode() []byte {
	out := make([]byte, 0, ForkHeaderLen)
	out = append(out, h.Type[:]...)
	out = binary.BigEndian.AppendUint32(out, h.Compression)
	out = append(out, 0, 0, 0, 0)
	return appendInt32(out, h.DataSize)
}

// DecodeForkHeader decodes a fork header from the front of b and returns
// the remaining input.
func DecodeForkHeader(b []byte) (ForkHeader, []byte, error) {
	if len(b) < ForkHeaderLen {
		return ForkHeader{}, b, ErrShortInput
	}
	var h ForkHeader
	copy(h.Type[:], b[0:4])
	h.Compression = binary.BigEndian.Uint32(b[4:8])
	h.DataSize = int32(binary.BigEndian.Uint32(b[12:16]))
	return h, b[ForkHeaderLen:], nil
}

// infoForkFixedLen is the encoded size of an InfoFork with empty name
// and comment.
const infoForkFixedLen = 46

// InfoFork is the metadata fork of a flattened file.
type InfoFork struct {
	Platform      Platform
	TypeCode      [4]byte
	CreatorCode   [4]byte
	Flags         int32
	PlatformFlags int32
	CreatedAt     Date
	ModifiedAt    Date
	NameScript    int16
	Name          []byte
	Comment       []byte
}

// EncodedLen returns the number of bytes Encode produces. The fork
// header's declared size must equal this.
func (f InfoFork) EncodedLen() int {
	return infoForkFixedLen + len(f.Name) + len(f.Comment)
}

// Encode renders the info fork payload.
func (f InfoFork) Encode() []byte {
	out := make([]byte, 0, f.EncodedLen())
	out = append(out, f.Platform[:]...)
	out = append(out, f.TypeCode[:]...)
	out = append(out, f.CreatorCode[:]...)
	out = appendInt32(out, f.Flags)
	out = appendInt32(out, f.PlatformFlags)
	out = append(out, 0, 0, 0, 0)
	out = AppendDate(out, f.CreatedAt)
	out = AppendDate(out, f.ModifiedAt)
	out = appendInt16(out, f.NameScript)
	out = appendInt16(out, int16(len(f.Name)))
	out = append(out, f.Name...)
	out = appendInt16(out, int16(len(f.Comment)))
	return append(out, f.Comment...)
}

// DecodeInfoFork decodes an info fork payload. The input must hold
// exactly the fork.
func DecodeInfoFork(b []byte) (InfoFork, error) {
	if len(b) < infoForkFixedLen {
		return InfoFork{}, ErrShortInput
	}
	var f InfoFork
	copy(f.Platform[:], b[0:4])
	copy(f.TypeCode[:], b[4:8])
	copy(f.CreatorCode[:], b[8:12])
	f.Flags = int32(binary.BigEndian.Uint32(b[12:16]))
	f.PlatformFlags = int32(binary.BigEndian.Uint32(b[16:20]))
	var err error
	rest := b[24:]
	if f.CreatedAt, rest, err = DecodeDate(rest); err != nil {
		return InfoFork{}, err
	}
	if f.ModifiedAt, rest, err = DecodeDate(rest); err != nil {
		return InfoFork{}, err
	}
	if len(rest) < 4 {
		return InfoFork{}, ErrShortInput
	}
	f.NameScript = int16(binary.BigEndian.Uint16(rest[0:2]))
	nameLen := int(int16(binary.BigEndian.Uint16(rest[2:4])))
	rest = rest[4:]
	if nameLen < 0 || len(rest) < nameLen+2 {
		return InfoFork{}, ErrShortInput
	}
	f.Name = make([]byte, nameLen)
	copy(f.Name, rest[:nameLen])
	rest = rest[nameLen:]
	commentLen := int(int16(binary.BigEndian.Uint16(rest[0:2])))
	rest = rest[2:]
	if commentLen < 0 || len(rest) != commentLen {
		return InfoFork{}, ErrLengthMismatch
	}
	f.Comment = make([]byte, commentLen)
	copy(f.Comment, rest)
	return f, nil
}
