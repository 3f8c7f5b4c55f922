// notify.go - bus notification delivery
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
	"github.com/greenwood-hl/greenwood/core/wire"
	"github.com/greenwood-hl/greenwood/server/bus"
	"github.com/greenwood-hl/greenwood/server/news"
)

// handleNotification translates one bus notification into an outbound
// frame, applying the per-session delivery filters.
func (s *Session) handleNotification(n bus.Notification) error {
	switch v := n.(type) {
	case bus.Chat:
		return s.deliverChat(v)
	case bus.InstantMessage:
		if v.To != s.user.ID {
			return nil
		}
		return s.send(wire.NewFrame(wire.TypeServerMessage,
			wire.NewParameter(wire.FieldData, v.Text),
			wire.NewInt16Parameter(wire.FieldUserID, v.From.ID),
			wire.NewParameter(wire.FieldUserName, v.From.Name),
		))
	case bus.Broadcast:
		return s.send(wire.NewFrame(wire.TypeServerMessage,
			wire.NewParameter(wire.FieldData, v.Text)))
	case bus.News:
		article := append(append([]byte(nil), v.Article...), []byte(news.Separator)...)
		return s.send(wire.NewFrame(wire.TypeNewMessage,
			wire.NewParameter(wire.FieldData, article)))
	case bus.UserConnect:
		return s.sendUserChange(v.User)
	case bus.UserUpdate:
		return s.sendUserChange(v.User)
	case bus.UserDisconnect:
		return s.send(wire.NewFrame(wire.TypeNotifyUserDelete,
			wire.NewInt16Parameter(wire.FieldUserID, v.User.ID)))
	case bus.ChatRoomInvite:
		if v.Target != s.user.ID {
			return nil
		}
		return s.send(wire.NewFrame(wire.TypeInviteToChat,
			wire.NewInt16Parameter(wire.FieldChatID, v.ChatID),
			wire.NewInt16Parameter(wire.FieldUserID, v.Inviter.ID),
			wire.NewParameter(wire.FieldUserName, v.Inviter.Name),
		))
	case bus.ChatRoomJoin:
		return s.send(wire.NewFrame(wire.TypeNotifyChatUserChange,
			wire.NewInt16Parameter(wire.FieldChatID, v.ChatID),
			wire.NewInt16Parameter(wire.FieldUserID, v.User.ID),
			wire.NewInt16Parameter(wire.FieldUserIconID, v.User.IconID),
			wire.NewInt16Parameter(wire.FieldUserFlags, int16(v.User.Flags)),
			wire.NewParameter(wire.FieldUserName, v.User.Name),
		))
	case bus.ChatRoomLeave:
		return s.send(wire.NewFrame(wire.TypeNotifyChatUserDelete,
			wire.NewInt16Parameter(wire.FieldChatID, v.ChatID),
			wire.NewInt16Parameter(wire.FieldUserID, v.User.ID),
		))
	case bus.ChatRoomSubjectUpdate:
		return s.send(wire.NewFrame(wire.TypeNotifyChatSubject,
			wire.NewInt16Parameter(wire.FieldChatID, v.ChatID),
			wire.NewParameter(wire.FieldChatSubject, v.Subject),
		))
	}
	return nil
}

// deliverChat formats a chat line. Public chat reaches every session;
// room chat only reaches current members, sampled from the chat
// snapshot at delivery time.
func (s *Session) deliverChat(c bus.Chat) error {
	if c.ChatID != nil {
		room, err := s.srv.chat.Lookup(*c.ChatID)
		if err != nil || !room.HasMember(s.user.ID) {
			return nil
		}
	}
	line := make([]byte, 0, len(c.Sender.Name)+len(c.Text)+4)
	line = append(line, '\r', ' ')
	line = append(line, c.Sender.Name...)
	line = append(line, ':', ' ')
	line = append(line, c.Text...)

	params := []wire.Parameter{wire.NewParameter(wire.FieldData, line)}
	if c.ChatID != nil {
		params = append(params, wire.NewInt16Parameter(wire.FieldChatID, *c.ChatID))
	}
	return s.send(wire.NewFrame(wire.TypeChatMessage, params...))
}

func (s *Session) sendUserChange(u wire.UserNameWithInfo) error {
	return s.send(wire.NewFrame(wire.TypeNotifyUserChange,
		wire.NewInt16Parameter(wire.FieldUserID, u.ID),
		wire.NewInt16Parameter(wire.FieldUserIconID, u.IconID),
		wire.NewInt16Parameter(wire.FieldUserFlags, int16(u.Flags)),
		wire.NewParameter(wire.FieldUserName, u.Name),
	))
}
