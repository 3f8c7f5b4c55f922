// server.go - listeners and component wiring
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

// Package server composes the protocol server: one TCP listener for
// control transactions, one for the file-transfer sub-protocol, the
// notification bus, and the actor registries that own all shared state.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/netutil"
	"gopkg.in/op/go-logging.v1"

	"github.com/greenwood-hl/greenwood/core/charset"
	"github.com/greenwood-hl/greenwood/core/log"
	"github.com/greenwood-hl/greenwood/core/worker"
	"github.com/greenwood-hl/greenwood/server/accounts"
	"github.com/greenwood-hl/greenwood/server/bus"
	"github.com/greenwood-hl/greenwood/server/chat"
	"github.com/greenwood-hl/greenwood/server/files"
	"github.com/greenwood-hl/greenwood/server/news"
	"github.com/greenwood-hl/greenwood/server/transfer"
	"github.com/greenwood-hl/greenwood/server/users"
)

// Server is the composed protocol server.
type Server struct {
	worker.Worker

	cfg        *Config
	logBackend *log.Backend
	log        *logging.Logger
	codec      charset.Codec

	bus       *bus.Bus
	users     *users.Registry
	chat      *chat.Registry
	news      *news.Log
	transfers *transfer.Registry
	files     *files.Store
	accounts  *accounts.Store
	metrics   *metrics

	controlListeners  []net.Listener
	transferListeners []net.Listener
	metricsServer     *http.Server
}

// New wires the server's components from a validated configuration.
func New(cfg *Config, logBackend *log.Backend) (*Server, error) {
	store, err := files.NewStore(cfg.Files.Root)
	if err != nil {
		return nil, err
	}
	accountStore, err := accounts.Load(cfg.Accounts.Directory)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		logBackend: logBackend,
		log:        logBackend.GetLogger("server"),
		codec:      cfg.NewsCodec(),
		bus:        bus.New(),
		files:      store,
		accounts:   accountStore,
		metrics:    newMetrics(),
	}
	s.users = users.NewRegistry(logBackend, s.bus)
	s.chat = chat.NewRegistry(logBackend, s.bus)
	s.news = news.NewLog(logBackend, s.bus, s.codec)
	s.transfers = transfer.NewRegistry(logBackend, store)

	if cfg.News.Welcome != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.news.Post(ctx, s.codec.Encode(cfg.News.Welcome)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start opens the listeners and begins serving. It returns once all
// listeners are bound; Halt shuts everything down.
func (s *Server) Start() error {
	for _, addr := range s.cfg.Server.Addresses {
		control, err := net.Listen("tcp", fmt.Sprintf("%s:%d", addr, s.cfg.Server.ControlPort))
		if err != nil {
			return err
		}
		control = netutil.LimitListener(control, s.cfg.Server.MaxConnections)
		s.controlListeners = append(s.controlListeners, control)
		s.log.Noticef("control listener on %v", control.Addr())

		xfer, err := net.Listen("tcp", fmt.Sprintf("%s:%d", addr, s.cfg.Server.TransferPort))
		if err != nil {
			return err
		}
		s.transferListeners = append(s.transferListeners, xfer)
		s.log.Noticef("transfer listener on %v", xfer.Addr())
	}

	for _, l := range s.controlListeners {
		l := l
		s.Go(func() { s.acceptControl(l) })
	}
	for _, l := range s.transferListeners {
		l := l
		s.Go(func() { s.acceptTransfers(l) })
	}
	if s.cfg.Metrics.Enable {
		s.metricsServer = &http.Server{
			Addr:    s.cfg.Metrics.Address,
			Handler: s.metrics.handler(),
		}
		s.Go(func() {
			if err := s.metricsServer.ListenAndServe(); err != http.ErrServerClosed {
				s.log.Errorf("metrics listener: %v", err)
			}
		})
	}
	s.Go(s.reaper)
	return nil
}

// reaper tears the listeners down when Halt fires, unblocking the
// accept loops.
func (s *Server) reaper() {
	<-s.HaltCh()
	for _, l := range s.controlListeners {
		l.Close()
	}
	for _, l := range s.transferListeners {
		l.Close()
	}
	if s.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.metricsServer.Shutdown(ctx)
	}
	s.bus.Close()
	s.users.Halt()
	s.chat.Halt()
	s.news.Halt()
	s.transfers.Halt()
}

func (s *Server) acceptControl(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.HaltCh():
			default:
				s.log.Errorf("control accept: %v", err)
			}
			return
		}
		s.metrics.connections.Inc()
		session := newSession(s, conn)
		s.Go(session.run)
	}
}

func (s *Server) acceptTransfers(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.HaltCh():
			default:
				s.log.Errorf("transfer accept: %v", err)
			}
			return
		}
		s.metrics.transfers.Inc()
		conn = &countingConn{Conn: conn, bytes: s.metrics.transferBytes}
		tc := transfer.NewConn(s.logBackend, conn, s.transfers, s.files)
		s.Go(func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				select {
				case <-s.HaltCh():
					conn.Close()
				case <-ctx.Done():
				}
			}()
			tc.Run(ctx)
		})
	}
}

// countingConn feeds transferred byte counts into the metrics registry.
type countingConn struct {
	net.Conn
	bytes prometheus.Counter
}

func (c *countingConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	c.bytes.Add(float64(n))
	return n, err
}

func (c *countingConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	c.bytes.Add(float64(n))
	return n, err
}

// ControlAddrs returns the bound control listener addresses, for tests
// and diagnostics.
func (s *Server) ControlAddrs() []net.Addr {
	addrs := make([]net.Addr, 0, len(s.controlListeners))
	for _, l := range s.controlListeners {
		addrs = append(addrs, l.Addr())
	}
	return addrs
}

// TransferAddrs returns the bound transfer listener addresses.
func (s *Server) TransferAddrs() []net.Addr {
	addrs := make([]net.Addr, 0, len(s.transferListeners))
	for _, l := range s.transferListeners {
		addrs = append(addrs, l.Addr())
	}
	return addrs
}
