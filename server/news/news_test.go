// news_test.go - news log tests
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

package news

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greenwood-hl/greenwood/core/charset"
	"github.com/greenwood-hl/greenwood/core/log"
	"github.com/greenwood-hl/greenwood/server/bus"
)

func testLog(t *testing.T) (*Log, *bus.Bus) {
	backend, err := log.New("", "DEBUG", true)
	require.NoError(t, err)
	b := bus.New()
	l := NewLog(backend, b, charset.MacRoman())
	t.Cleanup(func() {
		l.Halt()
		b.Close()
	})
	return l, b
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestReadAllEmpty(t *testing.T) {
	l, _ := testLog(t)
	require.Empty(t, l.ReadAll())
}

func TestPostPrependsNewest(t *testing.T) {
	l, _ := testLog(t)

	require.NoError(t, l.Post(ctx(t), []byte("first")))
	require.NoError(t, l.Post(ctx(t), []byte("second")))

	require.Equal(t, "second\r--\rfirst", string(l.ReadAll()))
}

func TestPostIsAppendOnly(t *testing.T) {
	l, _ := testLog(t)

	require.NoError(t, l.Post(ctx(t), []byte("a")))
	before := string(l.ReadAll())

	require.NoError(t, l.Post(ctx(t), []byte("b")))
	after := string(l.ReadAll())

	// The old feed survives as a suffix of the new one.
	require.Contains(t, after, before)
	require.Equal(t, "b\r--\r"+before, after)
}

func TestPostPublishesNotification(t *testing.T) {
	l, b := testLog(t)
	sub := b.Subscribe()

	require.NoError(t, l.Post(ctx(t), []byte("hi")))

	n, err := sub.Next(make(chan struct{}))
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), n.(bus.News).Article)
}

func TestOutputEncodingIsAuthoritative(t *testing.T) {
	backend, err := log.New("", "DEBUG", true)
	require.NoError(t, err)
	b := bus.New()
	defer b.Close()
	l := NewLog(backend, b, charset.MacRoman())
	defer l.Halt()

	// 0xA5 is "•" in MacRoman; it must survive the decode/encode cycle.
	require.NoError(t, l.Post(ctx(t), []byte{0xA5, 'x'}))
	require.Equal(t, []byte{0xA5, 'x'}, l.ReadAll())
}
