// chat.go - chat-room registry actor
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

// Package chat owns private chat rooms: their ids, memberships, and
// subjects. Room mutation is serialised through the registry's command
// queue; chat traffic itself never passes through here — sessions
// publish lines straight to the bus and filter delivery against the
// membership snapshot.
package chat

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
var ErrHalted = errors.New("chat: registry halted")

// ErrNotFound is returned for operations on rooms that do not exist.
var ErrNotFound = errors.New("chat: room not found")

const commandQueueDepth = 64

// firstChatID is the id assigned to the first room.
const firstChatID = 1

// Room is a point-in-time view of one chat room.
type Room struct {
	ID      int16
	Subject []byte
	Members []int16
}

// HasMember reports membership in the snapshot.
func (r Room) HasMember(id int16) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}

type room struct {
	subject []byte
	members map[int16]wire.UserNameWithInfo
}

type createCmd struct {
	creator wire.UserNameWithInfo
	invited []int16
	reply   chan int16
}

type joinCmd struct {
	chatID int16
	user   wire.UserNameWithInfo
	reply  chan error
}

type leaveCmd struct {
	chatID int16
	user   wire.UserNameWithInfo
	reply  chan struct{}
}

type setSubjectCmd struct {
	chatID  int16
	subject []byte
	reply   chan error
}

type removeFromAllCmd struct {
	user  wire.UserNameWithInfo
	reply chan struct{}
}

// Registry is the actor owning chat-room state.
type Registry struct {
	worker.Worker

	log  *logging.Logger
	bus  *bus.Bus
	cmds chan interface{}

	rooms    map[int16]*room
	nextID   int16
	snapshot atomic.Value // map[int16]Room
}

// NewRegistry creates the registry and starts its worker.
func NewRegistry(logBackend *log.Backend, b *bus.Bus) *Registry {
	r := &Registry{
		log:    logBackend.GetLogger("chat"),
		bus:    b,
		cmds:   make(chan interface{}, commandQueueDepth),
		rooms:  make(map[int16]*room),
		nextID: firstChatID,
	}
	r.snapshot.Store(map[int16]Room{})
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
	case *createCmd:
		id := r.nextID
		r.nextID++
		// Membership accrues through Join; the creator's client treats
		// the reply as its admission and joins like everyone else.
		r.rooms[id] = &room{members: map[int16]wire.UserNameWithInfo{}}
		r.publishSnapshot()
		c.reply <- id
		for _, target := range c.invited {
			if target == c.creator.ID {
				continue
			}
			r.bus.Publish(bus.ChatRoomInvite{
				ChatID:  id,
				Inviter: c.creator,
				Target:  target,
			})
		}
	case *joinCmd:
		rm, ok := r.rooms[c.chatID]
		if !ok {
			c.reply <- ErrNotFound
			return
		}
		rm.members[c.user.ID] = c.user
		r.publishSnapshot()
		c.reply <- nil
		r.bus.Publish(bus.ChatRoomJoin{ChatID: c.chatID, User: c.user})
	case *leaveCmd:
		left := r.leave(c.chatID, c.user.ID)
		c.reply <- struct{}{}
		if left {
			r.bus.Publish(bus.ChatRoomLeave{ChatID: c.chatID, User: c.user})
		}
	case *setSubjectCmd:
		rm, ok := r.rooms[c.chatID]
		if !ok {
			c.reply <- ErrNotFound
			return
		}
		rm.subject = c.subject
		r.publishSnapshot()
		c.reply <- nil
		r.bus.Publish(bus.ChatRoomSubjectUpdate{ChatID: c.chatID, Subject: c.subject})
	case *removeFromAllCmd:
		var left []int16
		for id, rm := range r.rooms {
			if _, ok := rm.members[c.user.ID]; ok {
				left = append(left, id)
			}
		}
		for _, id := range left {
			r.leave(id, c.user.ID)
		}
		c.reply <- struct{}{}
		for _, id := range left {
			r.bus.Publish(bus.ChatRoomLeave{ChatID: id, User: c.user})
		}
	}
}

// leave removes the member and destroys the room once it empties out.
func (r *Registry) leave(chatID, userID int16) bool {
	rm, ok := r.rooms[chatID]
	if !ok {
		return false
	}
	if _, member := rm.members[userID]; !member {
		return false
	}
	delete(rm.members, userID)
	if len(rm.members) == 0 {
		delete(r.rooms, chatID)
		r.log.Debugf("room %d emptied and removed", chatID)
	}
	r.publishSnapshot()
	return true
}

func (r *Registry) publishSnapshot() {
	snap := make(map[int16]Room, len(r.rooms))
	for id, rm := range r.rooms {
		members := make([]int16, 0, len(rm.members))
		for m := range rm.members {
			members = append(members, m)
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		subject := append([]byte(nil), rm.subject...)
		snap[id] = Room{ID: id, Subject: subject, Members: members}
	}
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

// Create allocates a room with no members, and emits a ChatRoomInvite
// for every invited user other than the creator. Membership, the
// creator's included, accrues through Join.
func (r *Registry) Create(ctx context.Context, creator wire.UserNameWithInfo, invited []int16) (int16, error) {
	cmd := &createCmd{creator: creator, invited: invited, reply: make(chan int16, 1)}
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

// Join adds the user to the room's member set.
func (r *Registry) Join(ctx context.Context, chatID int16, user wire.UserNameWithInfo) error {
	cmd := &joinCmd{chatID: chatID, user: user, reply: make(chan error, 1)}
	if err := r.send(ctx, cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.HaltCh():
		return ErrHalted
	}
}

// Leave removes the user from the room; the room is destroyed when its
// last member leaves.
func (r *Registry) Leave(ctx context.Context, chatID int16, user wire.UserNameWithInfo) error {
	cmd := &leaveCmd{chatID: chatID, user: user, reply: make(chan struct{}, 1)}
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

// SetSubject stores the room's subject, last writer wins.
func (r *Registry) SetSubject(ctx context.Context, chatID int16, subject []byte) error {
	cmd := &setSubjectCmd{chatID: chatID, subject: subject, reply: make(chan error, 1)}
	if err := r.send(ctx, cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.HaltCh():
		return ErrHalted
	}
}

// RemoveFromAll drops the user from every room they are a member of,
// emitting ChatRoomLeave per room. Issued when a session closes so that
// no room retains an offline member.
func (r *Registry) RemoveFromAll(ctx context.Context, user wire.UserNameWithInfo) error {
	cmd := &removeFromAllCmd{user: user, reply: make(chan struct{}, 1)}
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

// Snapshot returns the most recent room table. It never blocks on the
// actor.
func (r *Registry) Snapshot() map[int16]Room {
	return r.snapshot.Load().(map[int16]Room)
}

// Lookup returns the snapshot view of one room.
func (r *Registry) Lookup(chatID int16) (Room, error) {
	if rm, ok := r.Snapshot()[chatID]; ok {
		return rm, nil
	}
	return Room{}, ErrNotFound
}
