// session.go - per-connection state machine
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

package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"gopkg.in/op/go-logging.v1"

	"github.com/greenwood-hl/greenwood/core/wire"
	"github.com/greenwood-hl/greenwood/core/worker"
	"github.com/greenwood-hl/greenwood/server/bus"
	"github.com/greenwood-hl/greenwood/server/chat"
	"github.com/greenwood-hl/greenwood/server/users"
)

const (
	// handshakeTimeout bounds the handshake and login exchange.
	handshakeTimeout = 30 * time.Second

	// cleanupTimeout bounds registry calls during session teardown.
	cleanupTimeout = 5 * time.Second

	// outboundQueueDepth is the writer task's frame queue. A slow peer
	// fills it and stalls the session's own dispatch, which is the
	// intended backpressure.
	outboundQueueDepth = 32

	// wireErrorCode is the generic non-zero reply error code.
	wireErrorCode = 1
)

// Session drives one control connection through New, Unauthenticated,
// Established, and Closed.
type Session struct {
	worker.Worker

	srv  *Server
	log  *logging.Logger
	conn net.Conn

	fr  *wire.FrameReader
	fw  *wire.FrameWriter
	sub *bus.Subscription
	out chan wire.Frame

	// user is the registry-confirmed record; user.ID is zero until a
	// user exists for this session.
	user wire.UserNameWithInfo
}

func newSession(srv *Server, conn net.Conn) *Session {
	s := &Session{
		srv:  srv,
		log:  srv.logBackend.GetLogger(fmt.Sprintf("session:%v", conn.RemoteAddr())),
		conn: conn,
		fr:   wire.NewFrameReader(conn),
		fw:   wire.NewFrameWriter(conn),
		out:  make(chan wire.Frame, outboundQueueDepth),
	}
	return s
}

// run drives the connection to Closed. It is the session's only entry
// point and always cleans up.
func (s *Session) run() {
	defer s.close()

	// Subscribing before login means the session observes its own
	// UserConnect; the buffer absorbs traffic during the handshake.
	s.sub = s.srv.bus.Subscribe()

	s.conn.SetDeadline(time.Now().Add(handshakeTimeout))
	if err := s.handshake(); err != nil {
		s.log.Debugf("handshake failed: %v", err)
		return
	}
	if err := s.login(); err != nil {
		s.log.Debugf("login failed: %v", err)
		return
	}
	s.conn.SetDeadline(time.Time{})

	if err := s.established(); err != nil && err != io.EOF {
		s.log.Debugf("session ended: %v", err)
	}
}

// handshake validates the TRTP magic and accepts any sub-protocol,
// recording it for diagnostics.
func (s *Session) handshake() error {
	var buf [wire.ClientHandshakeLen]byte
	if _, err := io.ReadFull(s.conn, buf[:]); err != nil {
		return err
	}
	hs, _, err := wire.DecodeClientHandshake(buf[:])
	if err != nil {
		return err
	}
	s.log.Debugf("handshake: sub-protocol %#x version %d.%d", hs.SubProtocol, hs.Version, hs.SubVersion)
	return s.fw.WriteRaw(wire.ServerHandshake{}.Encode())
}

// login reads exactly one frame, which must be a Login transaction,
// authenticates it, replies with the protocol version, and registers the
// user.
func (s *Session) login() error {
	frame, err := s.fr.ReadFrame()
	if err != nil {
		return err
	}
	if frame.Header.Type != wire.TypeLogin {
		return &wire.UnexpectedTransactionError{
			Expected:    wire.TypeLogin,
			Encountered: frame.Header.Type,
		}
	}

	var login, password wire.Credential
	if p, ok := frame.Body.Field(wire.FieldUserLogin); ok {
		login = wire.NewCredential(p.Data)
	}
	if p, ok := frame.Body.Field(wire.FieldUserPassword); ok {
		password = wire.NewCredential(p.Data)
	}
	if err := s.authenticate(login, password); err != nil {
		s.log.Noticef("rejected login: %v", err)
		s.fw.WriteFrame(wire.ReplyTo(frame.Header, wireErrorCode,
			wire.NewParameter(wire.FieldErrorText, []byte("login failed"))))
		return err
	}

	user := wire.UserNameWithInfo{}
	if p, ok := frame.Body.Field(wire.FieldUserName); ok {
		user.Name = p.Data
	}
	if p, ok := frame.Body.Field(wire.FieldUserIconID); ok {
		if icon, err := p.Int16(); err == nil {
			user.IconID = icon
		}
	}

	reply := wire.ReplyTo(frame.Header, 0,
		wire.NewInt16Parameter(wire.FieldVersion, int16(s.srv.cfg.Server.ProtocolVersion)))
	if err := s.fw.WriteFrame(reply); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	id, err := s.srv.users.Add(ctx, user)
	if err != nil {
		return err
	}
	user.ID = id
	s.user = user
	s.srv.metrics.onlineUsers.Inc()
	s.log.Infof("user %d logged in", id)
	return nil
}

// authenticate checks credentials against the accounts store. Empty
// credentials are a guest login when the server allows it.
func (s *Session) authenticate(login, password wire.Credential) error {
	name := strings.TrimRight(s.srv.codec.Decode(login.Deobfuscate()), "\x00")
	if name == "" {
		if s.srv.cfg.Accounts.AllowGuests {
			return nil
		}
		return fmt.Errorf("guest logins are disabled")
	}
	account, err := s.srv.accounts.Get(name)
	if err != nil {
		return err
	}
	return account.VerifyPassword(password.Deobfuscate())
}

// established multiplexes inbound frames and bus notifications, handling
// each event to completion before the next.
func (s *Session) established() error {
	frameCh := make(chan wire.Frame)
	readErrCh := make(chan error, 1)
	s.Go(func() {
		for {
			frame, err := s.fr.ReadFrame()
			if err != nil {
				readErrCh <- err
				return
			}
			select {
			case frameCh <- frame:
			case <-s.HaltCh():
				return
			}
		}
	})
	s.Go(s.writer)

	for {
		select {
		case <-s.HaltCh():
			return nil
		case err := <-readErrCh:
			return err
		case frame := <-frameCh:
			if err := s.handleFrame(frame); err != nil {
				return err
			}
		case n, ok := <-s.sub.Ch():
			if !ok {
				return bus.ErrClosed
			}
			if lag := s.sub.Lagged(); lag > 0 {
				s.log.Warningf("dropped %d notifications to slow client", lag)
			}
			if err := s.handleNotification(n); err != nil {
				return err
			}
		}
	}
}

// writer is the single writer task; every outbound frame funnels
// through it.
func (s *Session) writer() {
	for {
		select {
		case <-s.HaltCh():
			return
		case frame := <-s.out:
			if err := s.fw.WriteFrame(frame); err != nil {
				s.log.Debugf("write failed: %v", err)
				s.conn.Close()
				return
			}
		}
	}
}

// send queues a frame for the writer task. A full queue blocks the
// caller, backpressuring dispatch.
func (s *Session) send(frame wire.Frame) error {
	select {
	case s.out <- frame:
		return nil
	case <-s.HaltCh():
		return fmt.Errorf("session halted")
	}
}

func (s *Session) reply(req wire.Header, params ...wire.Parameter) error {
	return s.send(wire.ReplyTo(req, 0, params...))
}

func (s *Session) replyError(req wire.Header, text string) error {
	return s.send(wire.ReplyTo(req, wireErrorCode,
		wire.NewParameter(wire.FieldErrorText, []byte(text))))
}

// close tears the session down: the user leaves every room and the
// registry, the subscription drops, and the socket closes. Registry
// calls are bounded; shutdown never hangs on an actor.
func (s *Session) close() {
	if s.sub != nil {
		s.sub.Cancel()
	}
	if s.user.ID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		if err := s.srv.chat.RemoveFromAll(ctx, s.user); err != nil && err != chat.ErrHalted {
			s.log.Warningf("room cleanup failed: %v", err)
		}
		if err := s.srv.users.Remove(ctx, s.user.ID); err != nil && err != users.ErrHalted {
			s.log.Warningf("user cleanup failed: %v", err)
		}
		cancel()
		s.srv.metrics.onlineUsers.Dec()
		s.log.Infof("user %d disconnected", s.user.ID)
	}
	// Closing the socket first unblocks the reader goroutine so Halt
	// cannot wait on a stuck read.
	s.conn.Close()
	s.Halt()
}

// requestContext bounds one request's actor calls.
func (s *Session) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cleanupTimeout)
}
