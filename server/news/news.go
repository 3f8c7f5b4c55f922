// news.go - news log actor
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

// Package news owns the server-wide news feed: an append-only list of
// articles. Articles are stored decoded; the configured codec is applied
// on the way out, so the server's output encoding stays authoritative
// however the inputs arrived.
package news

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"gopkg.in/op/go-logging.v1"

	"github.com/greenwood-hl/greenwood/core/charset"
	"github.com/greenwood-hl/greenwood/core/log"
	"github.com/greenwood-hl/greenwood/core/worker"
	"github.com/greenwood-hl/greenwood/server/bus"
)

// Separator joins articles in the aggregated feed.
const Separator = "\r--\r"

// ErrHalted is returned when a command races log shutdown.
var ErrHalted = errors.New("news: log halted")

const commandQueueDepth = 64

type postCmd struct {
	article []byte
	reply   chan struct{}
}

// Log is the actor owning the news feed.
type Log struct {
	worker.Worker

	log   *logging.Logger
	bus   *bus.Bus
	codec charset.Codec
	cmds  chan *postCmd

	articles []string
	rendered atomic.Value // []byte
}

// NewLog creates the news log and starts its worker.
func NewLog(logBackend *log.Backend, b *bus.Bus, codec charset.Codec) *Log {
	l := &Log{
		log:   logBackend.GetLogger("news"),
		bus:   b,
		codec: codec,
		cmds:  make(chan *postCmd, commandQueueDepth),
	}
	l.rendered.Store([]byte{})
	l.Go(l.worker)
	return l
}

func (l *Log) worker() {
	for {
		select {
		case <-l.HaltCh():
			return
		case cmd := <-l.cmds:
			l.articles = append(l.articles, l.codec.Decode(cmd.article))
			l.render()
			l.log.Debugf("article posted (%d total)", len(l.articles))
			cmd.reply <- struct{}{}
			l.bus.Publish(bus.News{Article: cmd.article})
		}
	}
}

// render pre-computes the aggregate feed: newest first, joined by the
// separator, re-encoded in the configured codec.
func (l *Log) render() {
	parts := make([]string, 0, len(l.articles))
	for i := len(l.articles) - 1; i >= 0; i-- {
		parts = append(parts, l.articles[i])
	}
	l.rendered.Store(l.codec.Encode(strings.Join(parts, Separator)))
}

// Post appends an article and publishes a News notification after the
// reply.
func (l *Log) Post(ctx context.Context, article []byte) error {
	cmd := &postCmd{article: article, reply: make(chan struct{}, 1)}
	select {
	case l.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.HaltCh():
		return ErrHalted
	}
	select {
	case <-cmd.reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.HaltCh():
		return ErrHalted
	}
}

// ReadAll returns the aggregated feed in reverse-chronological order.
// It never blocks on the actor.
func (l *Log) ReadAll() []byte {
	return l.rendered.Load().([]byte)
}
