// users_test.go - user registry tests
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

package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greenwood-hl/greenwood/core/log"
	"github.com/greenwood-hl/greenwood/core/wire"
	"github.com/greenwood-hl/greenwood/server/bus"
)

func testBackend(t *testing.T) *log.Backend {
	b, err := log.New("", "DEBUG", true)
	require.NoError(t, err)
	return b
}

func testRegistry(t *testing.T) (*Registry, *bus.Bus) {
	b := bus.New()
	r := NewRegistry(testBackend(t), b)
	t.Cleanup(func() {
		r.Halt()
		b.Close()
	})
	return r, b
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	r, _ := testRegistry(t)

	id1, err := r.Add(ctx(t), wire.UserNameWithInfo{Name: []byte("a")})
	require.NoError(t, err)
	require.Equal(t, int16(1), id1)

	id2, err := r.Add(ctx(t), wire.UserNameWithInfo{Name: []byte("b")})
	require.NoError(t, err)
	require.Equal(t, int16(2), id2)
}

func TestSnapshotEmptyBeforeLogin(t *testing.T) {
	r, _ := testRegistry(t)
	require.Empty(t, r.Snapshot())
}

func TestAddPublishesAfterReply(t *testing.T) {
	r, b := testRegistry(t)
	sub := b.Subscribe()

	id, err := r.Add(ctx(t), wire.UserNameWithInfo{Name: []byte("a"), IconID: 4})
	require.NoError(t, err)

	n, err := sub.Next(make(chan struct{}))
	require.NoError(t, err)
	connect, ok := n.(bus.UserConnect)
	require.True(t, ok)
	require.Equal(t, id, connect.User.ID)
	require.Equal(t, int16(4), connect.User.IconID)
}

func TestUpdateReplacesExisting(t *testing.T) {
	r, b := testRegistry(t)

	id, err := r.Add(ctx(t), wire.UserNameWithInfo{Name: []byte("a")})
	require.NoError(t, err)

	sub := b.Subscribe()
	err = r.Update(ctx(t), wire.UserNameWithInfo{ID: id, Name: []byte("b"), IconID: 9})
	require.NoError(t, err)

	u, err := r.Lookup(id)
	require.NoError(t, err)
	require.Equal(t, []byte("b"), u.Name)

	n, err := sub.Next(make(chan struct{}))
	require.NoError(t, err)
	_, ok := n.(bus.UserUpdate)
	require.True(t, ok)
}

func TestUpdateUnknownBehavesLikeAdd(t *testing.T) {
	r, b := testRegistry(t)
	sub := b.Subscribe()

	err := r.Update(ctx(t), wire.UserNameWithInfo{Name: []byte("early")})
	require.NoError(t, err)
	require.Len(t, r.Snapshot(), 1)

	n, err := sub.Next(make(chan struct{}))
	require.NoError(t, err)
	_, ok := n.(bus.UserConnect)
	require.True(t, ok)
}

func TestRemovePublishesDisconnect(t *testing.T) {
	r, b := testRegistry(t)

	id, err := r.Add(ctx(t), wire.UserNameWithInfo{Name: []byte("a")})
	require.NoError(t, err)

	sub := b.Subscribe()
	require.NoError(t, r.Remove(ctx(t), id))
	require.Empty(t, r.Snapshot())

	n, err := sub.Next(make(chan struct{}))
	require.NoError(t, err)
	disc, ok := n.(bus.UserDisconnect)
	require.True(t, ok)
	require.Equal(t, id, disc.User.ID)

	_, err = r.Lookup(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveUnknownIsSilent(t *testing.T) {
	r, b := testRegistry(t)
	sub := b.Subscribe()

	require.NoError(t, r.Remove(ctx(t), 99))

	select {
	case <-sub.Ch():
		t.Fatal("unexpected notification")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLiveIDNeverReissued(t *testing.T) {
	r, _ := testRegistry(t)

	seen := make(map[int16]bool)
	var live []int16
	for i := 0; i < 50; i++ {
		id, err := r.Add(ctx(t), wire.UserNameWithInfo{})
		require.NoError(t, err)
		require.False(t, seen[id])
		seen[id] = true
		live = append(live, id)
		if len(live) > 3 {
			victim := live[0]
			live = live[1:]
			require.NoError(t, r.Remove(ctx(t), victim))
			delete(seen, victim)
		}
	}
}
