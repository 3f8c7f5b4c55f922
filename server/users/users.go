// users.go - online-user registry actor
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

// Package users owns the set of online users. All mutation goes through
// the registry's command queue; sessions sample presence from a
// lock-free snapshot. Every command replies before its notification is
// published, so a caller observes its own change before any peer does.
package users

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"

	"gopkg.in/op/go-logging.v1"

	"github.com/greenwood-hl/greenwood/core/log"
	"github.com/greenwood-hl/greenwood/core/wire"
	"github.com/greenwood-hl/greenwood/core/worker"
	"github.com/greenwood-hl/greenwood/server/bus"
)

// ErrHalted is returned when a command races registry shutdown.
var ErrHalted = errors.New("users: registry halted")

// ErrNotFound is returned for lookups of users that are not online.
var ErrNotFound = errors.New("users: user not found")

const commandQueueDepth = 64

type addCmd struct {
	user  wire.UserNameWithInfo
	reply chan int16
}

type updateCmd struct {
	user  wire.UserNameWithInfo
	reply chan struct{}
}

type removeCmd struct {
	id    int16
	reply chan struct{}
}

// Registry is the actor owning online-user state.
type Registry struct {
	worker.Worker

	log  *logging.Logger
	bus  *bus.Bus
	cmds chan interface{}

	users    map[int16]wire.UserNameWithInfo
	nextID   int16
	snapshot atomic.Value // []wire.UserNameWithInfo
}

// NewRegistry creates the registry and starts its worker.
func NewRegistry(logBackend *log.Backend, b *bus.Bus) *Registry {
	r := &Registry{
		log:    logBackend.GetLogger("users"),
		bus:    b,
		cmds:   make(chan interface{}, commandQueueDepth),
		users:  make(map[int16]wire.UserNameWithInfo),
		nextID: 1,
	}
	r.snapshot.Store([]wire.UserNameWithInfo{})
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
	case *addCmd:
		id := r.add(c.user)
		c.reply <- id
		user := r.users[id]
		r.bus.Publish(bus.UserConnect{User: user})
	case *updateCmd:
		user, existed := r.upsert(c.user)
		c.reply <- struct{}{}
		if existed {
			r.bus.Publish(bus.UserUpdate{User: user})
		} else {
			r.bus.Publish(bus.UserConnect{User: user})
		}
	case *removeCmd:
		user, existed := r.users[c.id]
		delete(r.users, c.id)
		r.publishSnapshot()
		c.reply <- struct{}{}
		if existed {
			r.bus.Publish(bus.UserDisconnect{User: user})
		}
	}
}

func (r *Registry) add(user wire.UserNameWithInfo) int16 {
	// Skip ids still held by live users so a reused counter can never
	// collide.
	for {
		if _, taken := r.users[r.nextID]; !taken && r.nextID != 0 {
			break
		}
		r.nextID++
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	r.publishSnapshot()
	r.log.Debugf("user %d connected (%d online)", user.ID, len(r.users))
	return user.ID
}

// upsert replaces an existing record, or admits the user as new when the
// id is unknown. Clients that send SetClientUserInfo before login rely
// on the admit path.
func (r *Registry) upsert(user wire.UserNameWithInfo) (wire.UserNameWithInfo, bool) {
	if _, ok := r.users[user.ID]; ok {
		r.users[user.ID] = user
		r.publishSnapshot()
		return user, true
	}
	id := r.add(user)
	return r.users[id], false
}

func (r *Registry) publishSnapshot() {
	snap := make([]wire.UserNameWithInfo, 0, len(r.users))
	for _, u := range r.users {
		snap = append(snap, u)
	}
	sort.Slice(snap, func(i, j int) bool { return snap[i].ID < snap[j].ID })
	r.snapshot.Store(snap)
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

// Add registers a user and returns the assigned id. The UserConnect
// notification is published after the reply.
func (r *Registry) Add(ctx context.Context, user wire.UserNameWithInfo) (int16, error) {
	cmd := &addCmd{user: user, reply: make(chan int16, 1)}
	if err := r.send(ctx, cmd); err != nil {
		return 0, err
	}
	select {
	case id := <-cmd.reply:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-r.HaltCh():
		return 0, ErrHalted
	}
}

// Update replaces the stored record for user.ID, or admits the user when
// the id is unknown.
func (r *Registry) Update(ctx context.Context, user wire.UserNameWithInfo) error {
	cmd := &updateCmd{user: user, reply: make(chan struct{}, 1)}
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

// Remove deletes the user unconditionally, publishing UserDisconnect
// when a record existed.
func (r *Registry) Remove(ctx context.Context, id int16) error {
	cmd := &removeCmd{id: id, reply: make(chan struct{}, 1)}
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

// Snapshot returns the most recent user list, ordered by id. It never
// blocks on the actor.
func (r *Registry) Snapshot() []wire.UserNameWithInfo {
	return r.snapshot.Load().([]wire.UserNameWithInfo)
}

// Lookup finds an online user by id in the current snapshot.
func (r *Registry) Lookup(id int16) (wire.UserNameWithInfo, error) {
	for _, u := range r.Snapshot() {
		if u.ID == id {
			return u, nil
		}
	}
	return wire.UserNameWithInfo{}, ErrNotFound
}

// Count returns the number of online users.
func (r *Registry) Count() int {
	return len(r.Snapshot())
}
