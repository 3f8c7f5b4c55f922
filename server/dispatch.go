// dispatch.go - established-state request handling
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
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/greenwood-hl/greenwood/core/wire"
	"github.com/greenwood-hl/greenwood/server/bus"
)

// handleFrame dispatches one request. A per-request failure answers with
// a non-zero error code (when the request expects a reply) or a log line
// and keeps the session open; only transport failures close it.
func (s *Session) handleFrame(frame wire.Frame) error {
	s.srv.metrics.transactions.WithLabelValues(frame.Header.Type.String()).Inc()

	switch frame.Header.Type {
	case wire.TypeGetUserNameList:
		return s.handleGetUserNameList(frame)
	case wire.TypeGetMessages:
		return s.handleGetMessages(frame)
	case wire.TypeOldPostNews:
		return s.handlePostNews(frame)
	case wire.TypeGetFileNameList:
		return s.handleGetFileNameList(frame)
	case wire.TypeGetFileInfo:
		return s.handleGetFileInfo(frame)
	case wire.TypeSetClientUserInfo:
		return s.handleSetClientUserInfo(frame)
	case wire.TypeSendChat:
		return s.handleSendChat(frame)
	case wire.TypeSendInstantMessage:
		return s.handleSendInstantMessage(frame)
	case wire.TypeUserBroadcast:
		return s.handleBroadcast(frame)
	case wire.TypeInviteToNewChat:
		return s.handleInviteToNewChat(frame)
	case wire.TypeInviteToChat:
		return s.handleInviteToChat(frame)
	case wire.TypeJoinChat:
		return s.handleJoinChat(frame)
	case wire.TypeLeaveChat:
		return s.handleLeaveChat(frame)
	case wire.TypeSetChatSubject:
		return s.handleSetChatSubject(frame)
	case wire.TypeGetClientInfoText:
		return s.handleGetClientInfoText(frame)
	case wire.TypeDownloadFile:
		return s.handleDownloadFile(frame)
	case wire.TypeUploadFile:
		return s.handleUploadFile(frame)
	case wire.TypeConnectionKeepAlive:
		return s.reply(frame.Header)
	}

	// Unsupported transactions are logged and ignored; the client is
	// not disconnected.
	if frame.Header.Type.Known() {
		s.log.Debugf("ignoring unhandled transaction %v", frame.Header.Type)
	} else {
		s.log.Debugf("ignoring unknown transaction type %d", int16(frame.Header.Type))
	}
	return nil
}

func (s *Session) handleGetUserNameList(frame wire.Frame) error {
	params := []wire.Parameter{}
	for _, u := range s.srv.users.Snapshot() {
		params = append(params, wire.NewUserNameWithInfoParameter(u))
	}
	return s.reply(frame.Header, params...)
}

func (s *Session) handleGetMessages(frame wire.Frame) error {
	return s.reply(frame.Header,
		wire.NewParameter(wire.FieldData, s.srv.news.ReadAll()))
}

func (s *Session) handlePostNews(frame wire.Frame) error {
	p, err := frame.Body.RequireField(wire.FieldData)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	if err := s.reply(frame.Header); err != nil {
		return err
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	if err := s.srv.news.Post(ctx, p.Data); err != nil {
		s.log.Warningf("news post failed: %v", err)
	}
	return nil
}

func (s *Session) handleGetFileNameList(frame wire.Frame) error {
	path, err := wire.PathFromBody(frame.Body)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	entries, err := s.srv.files.List(s.pathComponents(path))
	if err != nil {
		return s.replyError(frame.Header, "cannot list folder")
	}
	params := []wire.Parameter{}
	for _, e := range entries {
		params = append(params, wire.NewFileNameWithInfoParameter(wire.FileNameWithInfo{
			Type:    e.Type,
			Creator: e.Creator,
			Size:    int32(e.Size),
			Name:    s.srv.codec.Encode(e.Name),
		}))
	}
	return s.reply(frame.Header, params...)
}

func (s *Session) handleGetFileInfo(frame wire.Frame) error {
	name, path, err := s.fileTarget(frame.Body)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	info, err := s.srv.files.Stat(append(s.pathComponents(path), name))
	if err != nil {
		return s.replyError(frame.Header, "no such file")
	}
	return s.reply(frame.Header,
		wire.NewParameter(wire.FieldFileName, s.srv.codec.Encode(info.Name)),
		wire.NewParameter(wire.FieldFileType, info.Type[:]),
		wire.NewParameter(wire.FieldFileCreatorString, info.Creator[:]),
		wire.NewDateParameter(wire.FieldFileCreateDate, info.CreatedAt),
		wire.NewDateParameter(wire.FieldFileModifyDate, info.ModifiedAt),
		wire.NewParameter(wire.FieldFileComment, s.srv.codec.Encode(info.Comment)),
		wire.NewInt32Parameter(wire.FieldFileSize, int32(info.Size)),
		wire.NewParameter(wire.FieldFileTypeString, info.Type[:]),
	)
}

func (s *Session) handleSetClientUserInfo(frame wire.Frame) error {
	nameParam, err := frame.Body.RequireField(wire.FieldUserName)
	if err != nil {
		s.log.Debugf("SetClientUserInfo missing name: %v", err)
		return nil
	}
	iconParam, err := frame.Body.RequireField(wire.FieldUserIconID)
	if err != nil {
		s.log.Debugf("SetClientUserInfo missing icon: %v", err)
		return nil
	}
	icon, err := iconParam.Int16()
	if err != nil {
		s.log.Debugf("SetClientUserInfo bad icon: %v", err)
		return nil
	}

	ctx, cancel := s.requestContext()
	defer cancel()
	if s.user.ID == 0 {
		// Some clients send SetClientUserInfo before login; the user is
		// quietly admitted, matching historical behaviour.
		user := wire.UserNameWithInfo{Name: nameParam.Data, IconID: icon}
		id, err := s.srv.users.Add(ctx, user)
		if err != nil {
			return nil
		}
		user.ID = id
		s.user = user
		s.srv.metrics.onlineUsers.Inc()
		return nil
	}
	user := s.user
	user.Name = nameParam.Data
	user.IconID = icon
	if err := s.srv.users.Update(ctx, user); err != nil {
		s.log.Warningf("user update failed: %v", err)
		return nil
	}
	s.user = user
	return nil
}

func (s *Session) handleSendChat(frame wire.Frame) error {
	data, err := frame.Body.RequireField(wire.FieldData)
	if err != nil {
		s.log.Debugf("SendChat without data: %v", err)
		return nil
	}
	var chatID *int16
	if p, ok := frame.Body.Field(wire.FieldChatID); ok {
		if id, err := p.Int16(); err == nil {
			chatID = &id
		}
	}
	s.srv.bus.Publish(bus.Chat{ChatID: chatID, Sender: s.user, Text: data.Data})
	return nil
}

func (s *Session) handleSendInstantMessage(frame wire.Frame) error {
	target, err := frame.Body.RequireField(wire.FieldUserID)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	targetID, err := target.Int16()
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	data, err := frame.Body.RequireField(wire.FieldData)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	if _, err := s.srv.users.Lookup(targetID); err == nil {
		s.srv.bus.Publish(bus.InstantMessage{From: s.user, To: targetID, Text: data.Data})
	}
	return s.reply(frame.Header)
}

func (s *Session) handleBroadcast(frame wire.Frame) error {
	data, err := frame.Body.RequireField(wire.FieldData)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	s.srv.bus.Publish(bus.Broadcast{Text: data.Data})
	return s.reply(frame.Header)
}

func (s *Session) handleInviteToNewChat(frame wire.Frame) error {
	var invited []int16
	for _, p := range frame.Body.Fields(wire.FieldUserID) {
		id, err := p.Int16()
		if err != nil {
			return s.replyError(frame.Header, err.Error())
		}
		invited = append(invited, id)
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	chatID, err := s.srv.chat.Create(ctx, s.user, invited)
	if err != nil {
		return s.replyError(frame.Header, "cannot create chat")
	}
	return s.reply(frame.Header,
		wire.NewInt16Parameter(wire.FieldChatID, chatID),
		wire.NewInt16Parameter(wire.FieldUserID, s.user.ID),
		wire.NewInt16Parameter(wire.FieldUserIconID, s.user.IconID),
		wire.NewInt16Parameter(wire.FieldUserFlags, int16(s.user.Flags)),
		wire.NewParameter(wire.FieldUserName, s.user.Name),
	)
}

func (s *Session) handleInviteToChat(frame wire.Frame) error {
	targetParam, err := frame.Body.RequireField(wire.FieldUserID)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	target, err := targetParam.Int16()
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	chatParam, err := frame.Body.RequireField(wire.FieldChatID)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	chatID, err := chatParam.Int16()
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	s.srv.bus.Publish(bus.ChatRoomInvite{ChatID: chatID, Inviter: s.user, Target: target})
	return s.reply(frame.Header,
		wire.NewInt16Parameter(wire.FieldChatID, chatID),
		wire.NewInt16Parameter(wire.FieldUserID, target),
		wire.NewInt16Parameter(wire.FieldUserIconID, s.user.IconID),
		wire.NewInt16Parameter(wire.FieldUserFlags, int16(s.user.Flags)),
		wire.NewParameter(wire.FieldUserName, s.user.Name),
	)
}

func (s *Session) handleJoinChat(frame wire.Frame) error {
	chatParam, err := frame.Body.RequireField(wire.FieldChatID)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	chatID, err := chatParam.Int16()
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	if err := s.srv.chat.Join(ctx, chatID, s.user); err != nil {
		return s.replyError(frame.Header, "no such chat")
	}
	room, err := s.srv.chat.Lookup(chatID)
	if err != nil {
		return s.replyError(frame.Header, "no such chat")
	}
	params := []wire.Parameter{}
	if len(room.Subject) > 0 {
		params = append(params, wire.NewParameter(wire.FieldChatSubject, room.Subject))
	}
	for _, member := range room.Members {
		if u, err := s.srv.users.Lookup(member); err == nil {
			params = append(params, wire.NewUserNameWithInfoParameter(u))
		}
	}
	return s.reply(frame.Header, params...)
}

func (s *Session) handleLeaveChat(frame wire.Frame) error {
	chatParam, err := frame.Body.RequireField(wire.FieldChatID)
	if err != nil {
		s.log.Debugf("LeaveChat without chat id: %v", err)
		return nil
	}
	chatID, err := chatParam.Int16()
	if err != nil {
		return nil
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	if err := s.srv.chat.Leave(ctx, chatID, s.user); err != nil {
		s.log.Debugf("leave failed: %v", err)
	}
	return nil
}

func (s *Session) handleSetChatSubject(frame wire.Frame) error {
	chatParam, err := frame.Body.RequireField(wire.FieldChatID)
	if err != nil {
		s.log.Debugf("SetChatSubject without chat id: %v", err)
		return nil
	}
	chatID, err := chatParam.Int16()
	if err != nil {
		return nil
	}
	subject, err := frame.Body.RequireField(wire.FieldChatSubject)
	if err != nil {
		s.log.Debugf("SetChatSubject without subject: %v", err)
		return nil
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	if err := s.srv.chat.SetSubject(ctx, chatID, subject.Data); err != nil {
		s.log.Debugf("subject change failed: %v", err)
	}
	return nil
}

func (s *Session) handleGetClientInfoText(frame wire.Frame) error {
	idParam, err := frame.Body.RequireField(wire.FieldUserID)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	id, err := idParam.Int16()
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	u, err := s.srv.users.Lookup(id)
	if err != nil {
		return s.replyError(frame.Header, "no such user")
	}
	text := strings.ReplaceAll(spew.Sdump(u), "\n", "\r")
	return s.reply(frame.Header,
		wire.NewParameter(wire.FieldUserName, u.Name),
		wire.NewParameter(wire.FieldData, []byte(text)),
	)
}

func (s *Session) handleDownloadFile(frame wire.Frame) error {
	name, path, err := s.fileTarget(frame.Body)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	reply, err := s.srv.transfers.ReserveDownload(ctx, append(s.pathComponents(path), name))
	if err != nil {
		return s.replyError(frame.Header, "no such file")
	}
	return s.reply(frame.Header,
		wire.NewInt32Parameter(wire.FieldTransferSize, reply.TransferSize),
		wire.NewInt32Parameter(wire.FieldFileSize, reply.FileSize),
		wire.NewInt32Parameter(wire.FieldReferenceNumber, int32(reply.Reference)),
		wire.NewInt32Parameter(wire.FieldWaitingCount, 0),
	)
}

func (s *Session) handleUploadFile(frame wire.Frame) error {
	name, path, err := s.fileTarget(frame.Body)
	if err != nil {
		return s.replyError(frame.Header, err.Error())
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	reference, err := s.srv.transfers.ReserveUpload(ctx, append(s.pathComponents(path), name))
	if err != nil {
		return s.replyError(frame.Header, "cannot upload there")
	}
	return s.reply(frame.Header,
		wire.NewInt32Parameter(wire.FieldReferenceNumber, int32(reference)))
}

// fileTarget extracts the FileName and optional FilePath pair common to
// the file transactions.
func (s *Session) fileTarget(body wire.Body) (string, wire.FilePath, error) {
	nameParam, err := body.RequireField(wire.FieldFileName)
	if err != nil {
		return "", wire.FilePath{}, err
	}
	path, err := wire.PathFromBody(body)
	if err != nil {
		return "", wire.FilePath{}, err
	}
	return s.srv.codec.Decode(nameParam.Data), path, nil
}

// pathComponents converts a wire path to filesystem components in the
// server's text encoding.
func (s *Session) pathComponents(p wire.FilePath) []string {
	out := make([]string, 0, len(p.Components()))
	for _, c := range p.Components() {
		out = append(out, s.srv.codec.Decode(c))
	}
	return out
}
