// conn.go - transfer connection handler
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
	"fmt"
	"io"
	"net"
	"time"

	"gopkg.in/op/go-logging.v1"

	"github.com/greenwood-hl/greenwood/core/log"
	"github.com/greenwood-hl/greenwood/core/wire"
	"github.com/greenwood-hl/greenwood/server/files"
)

// handshakeTimeout bounds how long a transfer peer may dawdle before
// presenting its reference.
const handshakeTimeout = 30 * time.Second

// Conn handles one short-lived transfer connection.
type Conn struct {
	log      *logging.Logger
	conn     net.Conn
	registry *Registry
	store    *files.Store
}

// NewConn wraps an accepted transfer socket.
func NewConn(logBackend *log.Backend, conn net.Conn, registry *Registry, store *files.Store) *Conn {
	return &Conn{
		log:      logBackend.GetLogger(fmt.Sprintf("transfer:%v", conn.RemoteAddr())),
		conn:     conn,
		registry: registry,
		store:    store,
	}
}

// Run drives the connection to completion and closes the socket. An
// unknown reference is fatal for this connection only.
func (c *Conn) Run(ctx context.Context) error {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var buf [wire.TransferHandshakeLen]byte
	if _, err := io.ReadFull(c.conn, buf[:]); err != nil {
		return err
	}
	hs, _, err := wire.DecodeTransferHandshake(buf[:])
	if err != nil {
		return err
	}
	c.conn.SetReadDeadline(time.Time{})

	req, err := c.registry.Lookup(ctx, hs.Reference)
	if err != nil {
		return err
	}
	// The reservation is consumed whether the transfer succeeds or not.
	defer func() {
		completeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.registry.Complete(completeCtx, hs.Reference); err != nil {
			c.log.Warningf("failed to complete %#x: %v", hs.Reference, err)
		}
	}()

	switch req.Kind {
	case Download:
		err = c.download(req)
	case Upload:
		err = c.upload(req, int64(hs.Size))
	default:
		err = ErrInvalidReference
	}
	if err != nil {
		c.log.Errorf("transfer %#x failed: %v", hs.Reference, err)
	} else {
		c.log.Debugf("transfer %#x complete", hs.Reference)
	}
	return err
}

// download streams the flattened-file container: FILP header, info
// fork, then the data fork copied until the declared size is reached.
func (c *Conn) download(req Request) error {
	info, err := c.store.Stat(req.Path)
	if err != nil {
		return err
	}
	infoFork := InfoForkFor(info)

	if _, err := c.conn.Write(wire.FlatFileHeader{ForkCount: 2}.Encode()); err != nil {
		return err
	}
	infoHeader := wire.ForkHeader{
		Type:     wire.ForkInfo,
		DataSize: int32(infoFork.EncodedLen()),
	}
	if _, err := c.conn.Write(infoHeader.Encode()); err != nil {
		return err
	}
	if _, err := c.conn.Write(infoFork.Encode()); err != nil {
		return err
	}

	dataHeader := wire.ForkHeader{
		Type:     wire.ForkData,
		DataSize: int32(info.Size),
	}
	if _, err := c.conn.Write(dataHeader.Encode()); err != nil {
		return err
	}
	f, err := c.store.Read(req.Path, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := io.CopyN(c.conn, f, info.Size)
	if err != nil {
		return err
	}
	if n != info.Size {
		return io.ErrShortWrite
	}
	return nil
}

// upload reads exactly size bytes from the socket into the reserved
// path. Clients send raw file bytes; nothing is validated beyond the
// byte count.
func (c *Conn) upload(req Request, size int64) error {
	if size < 0 {
		return fmt.Errorf("transfer: negative upload size %d", size)
	}
	w, err := c.store.Write(req.Path, 0)
	if err != nil {
		return err
	}
	defer w.Close()
	if _, err := io.CopyN(w, c.conn, size); err != nil {
		return err
	}
	return nil
}
