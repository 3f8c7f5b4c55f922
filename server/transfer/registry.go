// registry.go - file-transfer reservation actor
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

// Package transfer owns pending file-transfer reservations and the
// out-of-band transfer connections that consume them. A reservation is
// created by a control transaction, validated by the transfer
// connection's handshake, and removed whether or not the transfer
// succeeded.
package transfer

import (
	"context"
	"errors"

	"gopkg.in/op/go-logging.v1"

	"github.com/greenwood-hl/greenwood/core/log"
	"github.com/greenwood-hl/greenwood/core/wire"
	"github.com/greenwood-hl/greenwood/core/worker"
	"github.com/greenwood-hl/greenwood/server/files"
)

// ErrHalted is returned when a command races registry shutdown.
var ErrHalted = errors.New("transfer: registry halted")

// ErrInvalidReference is returned for handshakes presenting an unknown
// reference number.
var ErrInvalidReference = errors.New("transfer: invalid reference number")

const commandQueueDepth = 64

// firstReference is the i32::MIN bit pattern; reservation ids are
// trivially distinguishable from small counters in logs.
const firstReference uint32 = 0x80000000

// Kind distinguishes reservation directions.
type Kind int

const (
	// Download streams a flattened file to the peer.
	Download Kind = iota
	// Upload receives raw bytes from the peer.
	Upload
)

// Request is one pending reservation.
type Request struct {
	Reference uint32
	Kind      Kind
	Path      []string
	// Size is the byte count hint: for downloads the flattened
	// container size, for uploads unknown until the handshake.
	Size int64
}

// DownloadReply carries everything the control reply to DownloadFile
// needs.
type DownloadReply struct {
	Reference    uint32
	TransferSize int32
	FileSize     int32
}

type reserveCmd struct {
	kind  Kind
	path  []string
	size  int64
	reply chan uint32
}

type lookupCmd struct {
	reference uint32
	reply     chan *Request
}

type completeCmd struct {
	reference uint32
	reply     chan struct{}
}

// Registry is the actor owning reservation state.
type Registry struct {
	worker.Worker

	log   *logging.Logger
	store *files.Store
	cmds  chan interface{}

	requests map[uint32]Request
	nextRef  uint32
}

// NewRegistry creates the registry and starts its worker.
func NewRegistry(logBackend *log.Backend, store *files.Store) *Registry {
	r := &Registry{
		log:      logBackend.GetLogger("transfer"),
		store:    store,
		cmds:     make(chan interface{}, commandQueueDepth),
		requests: make(map[uint32]Request),
		nextRef:  firstReference,
	}
	r.Go(r.worker)
	return r
}

func (r *Registry) worker() {
	for {
		select {
		case <-r.HaltCh():
			return
		case cmd := <-r.cmds:
			r.handle(cmd)
		}
	}
}

func (r *Registry) handle(cmd interface{}) {
	switch c := cmd.(type) {
	case *reserveCmd:
		ref := r.nextRef
		r.nextRef++
		r.requests[ref] = Request{
			Reference: ref,
			Kind:      c.kind,
			Path:      c.path,
			Size:      c.size,
		}
		r.log.Debugf("reserved %#x (%d outstanding)", ref, len(r.requests))
		c.reply <- ref
	case *lookupCmd:
		if req, ok := r.requests[c.reference]; ok {
			c.reply <- &req
		} else {
			c.reply <- nil
		}
	case *completeCmd:
		delete(r.requests, c.reference)
		r.log.Debugf("completed %#x (%d outstanding)", c.reference, len(r.requests))
		c.reply <- struct{}{}
	}
}

func (r *Registry) send(ctx context.Context, cmd interface{}) error {
	select {
	case r.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.HaltCh():
		return ErrHalted
	}
}

func (r *Registry) reserve(ctx context.Context, kind Kind, path []string, size int64) (uint32, error) {
	cmd := &reserveCmd{kind: kind, path: path, size: size, reply: make(chan uint32, 1)}
	if err := r.send(ctx, cmd); err != nil {
		return 0, err
	}
	select {
	case ref := <-cmd.reply:
		return ref, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-r.HaltCh():
		return 0, ErrHalted
	}
}

// ReserveDownload stats the file, computes the flattened-container size
// the client should expect, and records the reservation.
func (r *Registry) ReserveDownload(ctx context.Context, path []string) (DownloadReply, error) {
	info, err := r.store.Stat(path)
	if err != nil {
		return DownloadReply{}, err
	}
	transferSize := FlattenedSize(info)
	ref, err := r.reserve(ctx, Download, path, transferSize)
	if err != nil {
		return DownloadReply{}, err
	}
	return DownloadReply{
		Reference:    ref,
		TransferSize: int32(transferSize),
		FileSize:     int32(info.Size),
	}, nil
}

// ReserveUpload records an upload reservation for the target path.
func (r *Registry) ReserveUpload(ctx context.Context, path []string) (uint32, error) {
	return r.reserve(ctx, Upload, path, 0)
}

// Lookup validates a transfer handshake's reference.
func (r *Registry) Lookup(ctx context.Context, reference uint32) (Request, error) {
	cmd := &lookupCmd{reference: reference, reply: make(chan *Request, 1)}
	if err := r.send(ctx, cmd); err != nil {
		return Request{}, err
	}
	select {
	case req := <-cmd.reply:
		if req == nil {
			return Request{}, ErrInvalidReference
		}
		return *req, nil
	case <-ctx.Done():
		return Request{}, ctx.Err()
	case <-r.HaltCh():
		return Request{}, ErrHalted
	}
}

// Complete removes the reservation whether the transfer succeeded or
// failed.
func (r *Registry) Complete(ctx context.Context, reference uint32) error {
	cmd := &completeCmd{reference: reference, reply: make(chan struct{}, 1)}
	if err := r.send(ctx, cmd); err != nil {
		return err
	}
	select {
	case <-cmd.reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.HaltCh():
		return ErrHalted
	}
}

// FlattenedSize is the exact byte count of the container served for a
// file: the FILP header, two fork headers, the info fork, and the data
// fork.
func FlattenedSize(info files.Info) int64 {
	return int64(wire.FlatFileHeaderLen) +
		2*int64(wire.ForkHeaderLen) +
		int64(InfoForkFor(info).EncodedLen()) +
		info.Size
}

// InfoForkFor builds the metadata fork served for a file.
func InfoForkFor(info files.Info) wire.InfoFork {
	return wire.InfoFork{
		Platform:    wire.PlatformAppleMac,
		TypeCode:    info.Type,
		CreatorCode: info.Creator,
		CreatedAt:   wire.NewDate(info.CreatedAt),
		ModifiedAt:  wire.NewDate(info.ModifiedAt),
		Name:        []byte(info.Name),
		Comment:     []byte(info.Comment),
	}
}
