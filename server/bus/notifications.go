// notifications.go - notification variants
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

package bus

import (
	"github.com/greenwood-hl/greenwood/core/wire"
)

// Notification is one of the typed events broadcast to every session.
type Notification interface {
	notification()
}

// UserConnect announces a user joining the server.
type UserConnect struct {
	User wire.UserNameWithInfo
}

// UserUpdate announces a change to a user's name, icon, or flags.
type UserUpdate struct {
	User wire.UserNameWithInfo
}

// UserDisconnect announces a user leaving the server.
type UserDisconnect struct {
	User wire.UserNameWithInfo
}

// Chat carries a chat line. A nil ChatID is public chat, delivered to
// everyone; otherwise delivery is filtered to the room's members.
type Chat struct {
	ChatID *int16
	Sender wire.UserNameWithInfo
	Text   []byte
}

// InstantMessage carries a private message; only the session holding the
// target user-id delivers it.
type InstantMessage struct {
	From wire.UserNameWithInfo
	To   int16
	Text []byte
}

// Broadcast carries a server-wide announcement.
type Broadcast struct {
	Text []byte
}

// News announces a freshly posted news article.
type News struct {
	Article []byte
}

// ChatRoomInvite invites a user into a room; only the invitee's session
// delivers it.
type ChatRoomInvite struct {
	ChatID  int16
	Inviter wire.UserNameWithInfo
	Target  int16
}

// ChatRoomJoin announces a user joining a room.
type ChatRoomJoin struct {
	ChatID int16
	User   wire.UserNameWithInfo
}

// ChatRoomLeave announces a user leaving a room.
type ChatRoomLeave struct {
	ChatID int16
	User   wire.UserNameWithInfo
}

// ChatRoomSubjectUpdate announces a room's new subject.
type ChatRoomSubjectUpdate struct {
	ChatID  int16
	Subject []byte
}

func (UserConnect) notification()           {}
func (UserUpdate) notification()            {}
func (UserDisconnect) notification()        {}
func (Chat) notification()                  {}
func (InstantMessage) notification()        {}
func (Broadcast) notification()             {}
func (News) notification()                  {}
func (ChatRoomInvite) notification()        {}
func (ChatRoomJoin) notification()          {}
func (ChatRoomLeave) notification()         {}
func (ChatRoomSubjectUpdate) notification() {}
