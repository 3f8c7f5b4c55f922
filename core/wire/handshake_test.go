// handshake_test.go - handshake and container codec tests
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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var clientHandshakeVector = []byte{
	0x54, 0x52, 0x54, 0x50, 0x48, 0x4f, 0x54, 0x4c,
	0x00, 0x01, 0x00, 0x02,
}

var serverHandshakeVector = []byte{
	0x54, 0x52, 0x54, 0x50, 0x00, 0x00, 0x00, 0x00,
}

func TestClientHandshakeVector(t *testing.T) {
	h, rest, err := DecodeClientHandshake(clientHandshakeVector)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, int32(0x484f544c), h.SubProtocol) // "HOTL"
	require.Equal(t, int16(1), h.Version)
	require.Equal(t, int16(2), h.SubVersion)

	require.Equal(t, clientHandshakeVector, h.Encode())
}

func TestServerHandshakeVector(t *testing.T) {
	h, rest, err := DecodeServerHandshake(serverHandshakeVector)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, int32(0), h.ErrorCode)

	require.Equal(t, serverHandshakeVector, ServerHandshake{}.Encode())
}

func TestClientHandshakeBadMagic(t *testing.T) {
	bad := append([]byte("HTTP"), clientHandshakeVector[4:]...)
	_, _, err := DecodeClientHandshake(bad)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestTransferHandshakeRoundTrip(t *testing.T) {
	h := TransferHandshake{Reference: 0x80000001, Size: 4096}
	encoded := h.Encode()
	require.Len(t, encoded, TransferHandshakeLen)
	require.Equal(t, []byte("HTXF"), encoded[:4])

	got, rest, err := DecodeTransferHandshake(encoded)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, h, got)
}

func TestFlatFileHeaderRoundTrip(t *testing.T) {
	h := FlatFileHeader{ForkCount: 2}
	encoded := h.Encode()
	require.Len(t, encoded, FlatFileHeaderLen)
	require.Equal(t, []byte("FILP"), encoded[:4])

	got, rest, err := DecodeFlatFileHeader(encoded)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, h, got)
}

func TestForkHeaderEmptyFork(t *testing.T) {
	h := ForkHeader{Type: ForkData, DataSize: 0}
	got, rest, err := DecodeForkHeader(h.Encode())
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, h, got)
	require.Zero(t, got.DataSize)
}

func TestInfoForkRoundTrip(t *testing.T) {
	f := InfoFork{
		Platform:    PlatformAppleMac,
		TypeCode:    [4]byte{'T', 'E', 'X', 'T'},
		CreatorCode: [4]byte{'t', 't', 'x', 't'},
		CreatedAt:   NewDate(time.Date(2003, time.June, 1, 12, 0, 0, 0, time.UTC)),
		ModifiedAt:  NewDate(time.Date(2004, time.July, 2, 13, 0, 0, 0, time.UTC)),
		Name:        []byte("readme.txt"),
		Comment:     []byte("plain text"),
	}
	encoded := f.Encode()
	require.Len(t, encoded, f.EncodedLen())

	got, err := DecodeInfoFork(encoded)
	require.NoError(t, err)
	require.Equal(t, f, got)
}

func TestInfoForkEmptyNameAndComment(t *testing.T) {
	f := InfoFork{Platform: PlatformAppleMac}
	encoded := f.Encode()
	require.Len(t, encoded, 46)

	got, err := DecodeInfoFork(encoded)
	require.NoError(t, err)
	require.Empty(t, got.Name)
	require.Empty(t, got.Comment)
}
