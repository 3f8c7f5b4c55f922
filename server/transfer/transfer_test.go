// transfer_test.go - transfer registry and connection tests
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

package transfer

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greenwood-hl/greenwood/core/log"
	"github.com/greenwood-hl/greenwood/core/wire"
	"github.com/greenwood-hl/greenwood/server/files"
)

func testBackend(t *testing.T) *log.Backend {
	b, err := log.New("", "DEBUG", true)
	require.NoError(t, err)
	return b
}

func testRegistry(t *testing.T) (*Registry, *files.Store, string) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.bin"), []byte("0123456789"), 0644))
	store, err := files.NewStore(dir)
	require.NoError(t, err)
	r := NewRegistry(testBackend(t), store)
	t.Cleanup(r.Halt)
	return r, store, dir
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestReferencesStartAtSentinelAndIncrement(t *testing.T) {
	r, _, _ := testRegistry(t)

	reply, err := r.ReserveDownload(ctx(t), []string{"f.bin"})
	require.NoError(t, err)
	require.Equal(t, uint32(0x80000000), reply.Reference)

	ref, err := r.ReserveUpload(ctx(t), []string{"up.bin"})
	require.NoError(t, err)
	require.Equal(t, uint32(0x80000001), ref)
}

func TestLookupAndComplete(t *testing.T) {
	r, _, _ := testRegistry(t)

	ref, err := r.ReserveUpload(ctx(t), []string{"up.bin"})
	require.NoError(t, err)

	req, err := r.Lookup(ctx(t), ref)
	require.NoError(t, err)
	require.Equal(t, Upload, req.Kind)
	require.Equal(t, []string{"up.bin"}, req.Path)

	require.NoError(t, r.Complete(ctx(t), ref))
	_, err = r.Lookup(ctx(t), ref)
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestDownloadReplySizes(t *testing.T) {
	r, store, _ := testRegistry(t)

	reply, err := r.ReserveDownload(ctx(t), []string{"f.bin"})
	require.NoError(t, err)
	require.EqualValues(t, 10, reply.FileSize)

	info, err := store.Stat([]string{"f.bin"})
	require.NoError(t, err)
	want := int64(wire.FlatFileHeaderLen) + 2*int64(wire.ForkHeaderLen) +
		int64(InfoForkFor(info).EncodedLen()) + 10
	require.EqualValues(t, want, reply.TransferSize)
}

func runConn(t *testing.T, r *Registry, store *files.Store) (client net.Conn, done chan error) {
	client, server := net.Pipe()
	c := NewConn(testBackend(t), server, r, store)
	done = make(chan error, 1)
	go func() {
		done <- c.Run(context.Background())
	}()
	return client, done
}

func TestDownloadRoundTrip(t *testing.T) {
	r, store, _ := testRegistry(t)

	reply, err := r.ReserveDownload(ctx(t), []string{"f.bin"})
	require.NoError(t, err)

	client, done := runConn(t, r, store)
	defer client.Close()

	hs := wire.TransferHandshake{Reference: reply.Reference}
	_, err = client.Write(hs.Encode())
	require.NoError(t, err)

	body, err := io.ReadAll(client)
	require.NoError(t, err)
	require.NoError(t, <-done)

	// Total bytes written must equal the TransferSize from the control
	// reply.
	require.Len(t, body, int(reply.TransferSize))

	header, rest, err := wire.DecodeFlatFileHeader(body)
	require.NoError(t, err)
	require.Equal(t, int16(2), header.ForkCount)

	infoHeader, rest, err := wire.DecodeForkHeader(rest)
	require.NoError(t, err)
	require.Equal(t, wire.ForkInfo, infoHeader.Type)

	infoFork, err := wire.DecodeInfoFork(rest[:infoHeader.DataSize])
	require.NoError(t, err)
	require.Equal(t, []byte("f.bin"), infoFork.Name)
	rest = rest[infoHeader.DataSize:]

	dataHeader, rest, err := wire.DecodeForkHeader(rest)
	require.NoError(t, err)
	require.Equal(t, wire.ForkData, dataHeader.Type)
	require.EqualValues(t, 10, dataHeader.DataSize)
	require.Equal(t, []byte("0123456789"), rest)

	// The reservation was consumed.
	_, err = r.Lookup(ctx(t), reply.Reference)
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestUploadRoundTrip(t *testing.T) {
	r, store, dir := testRegistry(t)

	ref, err := r.ReserveUpload(ctx(t), []string{"up.bin"})
	require.NoError(t, err)

	client, done := runConn(t, r, store)

	payload := []byte("uploaded-bytes")
	hs := wire.TransferHandshake{Reference: ref, Size: int32(len(payload))}
	_, err = client.Write(hs.Encode())
	require.NoError(t, err)
	_, err = client.Write(payload)
	require.NoError(t, err)
	client.Close()

	require.NoError(t, <-done)

	b, err := os.ReadFile(filepath.Join(dir, "up.bin"))
	require.NoError(t, err)
	require.Equal(t, payload, b)
}

func TestUnknownReferenceFailsConnectionOnly(t *testing.T) {
	r, store, _ := testRegistry(t)

	client, done := runConn(t, r, store)
	defer client.Close()

	hs := wire.TransferHandshake{Reference: 12345}
	_, err := client.Write(hs.Encode())
	require.NoError(t, err)
	require.ErrorIs(t, <-done, ErrInvalidReference)

	// The registry remains serviceable.
	_, err = r.ReserveUpload(ctx(t), []string{"x"})
	require.NoError(t, err)
}
