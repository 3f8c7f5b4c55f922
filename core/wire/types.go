// types.go - transaction type and field id constants
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

package wire

import (
	"fmt"
)

// TransactionType identifies the operation requested by a transaction.
// The numeric values are fixed by the wire protocol.
type TransactionType int16

const (
	TypeReply TransactionType = 0

	TypeError                TransactionType = 100
	TypeGetMessages          TransactionType = 101
	TypeNewMessage           TransactionType = 102
	TypeOldPostNews          TransactionType = 103
	TypeServerMessage        TransactionType = 104
	TypeSendChat             TransactionType = 105
	TypeChatMessage          TransactionType = 106
	TypeLogin                TransactionType = 107
	TypeSendInstantMessage   TransactionType = 108
	TypeShowAgreement        TransactionType = 109
	TypeDisconnectUser       TransactionType = 110
	TypeDisconnectMessage    TransactionType = 111
	TypeInviteToNewChat      TransactionType = 112
	TypeInviteToChat         TransactionType = 113
	TypeRejectChatInvite     TransactionType = 114
	TypeJoinChat             TransactionType = 115
	TypeLeaveChat            TransactionType = 116
	TypeNotifyChatUserChange TransactionType = 117
	TypeNotifyChatUserDelete TransactionType = 118
	TypeNotifyChatSubject    TransactionType = 119
	TypeSetChatSubject       TransactionType = 120
	TypeAgreed               TransactionType = 121
	TypeServerBanner         TransactionType = 122

	TypeGetFileNameList TransactionType = 200
	TypeDownloadFile    TransactionType = 202
	TypeUploadFile      TransactionType = 203
	TypeDeleteFile      TransactionType = 204
	TypeNewFolder       TransactionType = 205
	TypeGetFileInfo     TransactionType = 206
	TypeSetFileInfo     TransactionType = 207
	TypeMoveFile        TransactionType = 208
	TypeMakeFileAlias   TransactionType = 209
	TypeDownloadFolder  TransactionType = 210
	TypeDownloadBanner  TransactionType = 211
	TypeUploadFolder    TransactionType = 212

	TypeGetUserNameList   TransactionType = 300
	TypeNotifyUserChange  TransactionType = 301
	TypeNotifyUserDelete  TransactionType = 302
	TypeGetClientInfoText TransactionType = 303
	TypeSetClientUserInfo TransactionType = 304

	TypeNewUser       TransactionType = 350
	TypeDeleteUser    TransactionType = 351
	TypeGetUser       TransactionType = 352
	TypeSetUser       TransactionType = 353
	TypeUserAccess    TransactionType = 354
	TypeUserBroadcast TransactionType = 355

	TypeConnectionKeepAlive TransactionType = 500
)

var transactionTypeNames = map[TransactionType]string{
	TypeReply:                "Reply",
	TypeError:                "Error",
	TypeGetMessages:          "GetMessages",
	TypeNewMessage:           "NewMessage",
	TypeOldPostNews:          "OldPostNews",
	TypeServerMessage:        "ServerMessage",
	TypeSendChat:             "SendChat",
	TypeChatMessage:          "ChatMessage",
	TypeLogin:                "Login",
	TypeSendInstantMessage:   "SendInstantMessage",
	TypeShowAgreement:        "ShowAgreement",
	TypeDisconnectUser:       "DisconnectUser",
	TypeDisconnectMessage:    "DisconnectMessage",
	TypeInviteToNewChat:      "InviteToNewChat",
	TypeInviteToChat:         "InviteToChat",
	TypeRejectChatInvite:     "RejectChatInvite",
	TypeJoinChat:             "JoinChat",
	TypeLeaveChat:            "LeaveChat",
	TypeNotifyChatUserChange: "NotifyChatUserChange",
	TypeNotifyChatUserDelete: "NotifyChatUserDelete",
	TypeNotifyChatSubject:    "NotifyChatSubject",
	TypeSetChatSubject:       "SetChatSubject",
	TypeAgreed:               "Agreed",
	TypeServerBanner:         "ServerBanner",
	TypeGetFileNameList:      "GetFileNameList",
	TypeDownloadFile:         "DownloadFile",
	TypeUploadFile:           "UploadFile",
	TypeDeleteFile:           "DeleteFile",
	TypeNewFolder:            "NewFolder",
	TypeGetFileInfo:          "GetFileInfo",
	TypeSetFileInfo:          "SetFileInfo",
	TypeMoveFile:             "MoveFile",
	TypeMakeFileAlias:        "MakeFileAlias",
	TypeDownloadFolder:       "DownloadFolder",
	TypeDownloadBanner:       "DownloadBanner",
	TypeUploadFolder:         "UploadFolder",
	TypeGetUserNameList:      "GetUserNameList",
	TypeNotifyUserChange:     "NotifyUserChange",
	TypeNotifyUserDelete:     "NotifyUserDelete",
	TypeGetClientInfoText:    "GetClientInfoText",
	TypeSetClientUserInfo:    "SetClientUserInfo",
	TypeNewUser:              "NewUser",
	TypeDeleteUser:           "DeleteUser",
	TypeGetUser:              "GetUser",
	TypeSetUser:              "SetUser",
	TypeUserAccess:           "UserAccess",
	TypeUserBroadcast:        "UserBroadcast",
	TypeConnectionKeepAlive:  "ConnectionKeepAlive",
}

func (t TransactionType) String() string {
	if s, ok := transactionTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TransactionType(%d)", int16(t))
}

// Known returns true when t names a transaction type defined by the
// protocol, whether or not this server handles it.
func (t TransactionType) Known() bool {
	_, ok := transactionTypeNames[t]
	return ok
}

// FieldID identifies a parameter within a transaction body. The numeric
// values are fixed by the wire protocol.
type FieldID int16

const (
	FieldErrorText       FieldID = 100
	FieldData            FieldID = 101
	FieldUserName        FieldID = 102
	FieldUserID          FieldID = 103
	FieldUserIconID      FieldID = 104
	FieldUserLogin       FieldID = 105
	FieldUserPassword    FieldID = 106
	FieldReferenceNumber FieldID = 107
	FieldTransferSize    FieldID = 108
	FieldChatOptions     FieldID = 109
	FieldUserAccess      FieldID = 110
	FieldUserAlias       FieldID = 111
	FieldUserFlags       FieldID = 112
	FieldOptions         FieldID = 113
	FieldChatID          FieldID = 114
	FieldChatSubject     FieldID = 115
	FieldWaitingCount    FieldID = 116

	FieldServerAgreement   FieldID = 150
	FieldServerBanner      FieldID = 151
	FieldServerBannerType  FieldID = 152
	FieldServerBannerURL   FieldID = 153
	FieldNoServerAgreement FieldID = 154

	FieldVersion           FieldID = 160
	FieldCommunityBannerID FieldID = 161
	FieldServerName        FieldID = 162

	FieldFileNameWithInfo    FieldID = 200
	FieldFileName            FieldID = 201
	FieldFilePath            FieldID = 202
	FieldFileResumeData      FieldID = 203
	FieldFileTransferOptions FieldID = 204
	FieldFileTypeString      FieldID = 205
	FieldFileCreatorString   FieldID = 206
	FieldFileSize            FieldID = 207
	FieldFileCreateDate      FieldID = 208
	FieldFileModifyDate      FieldID = 209
	FieldFileComment         FieldID = 210
	FieldFileNewName         FieldID = 211
	FieldFileNewPath         FieldID = 212
	FieldFileType            FieldID = 213
	FieldQuotingMessage      FieldID = 214
	FieldAutomaticResponse   FieldID = 215

	FieldFolderItemCount FieldID = 220

	FieldUserNameWithInfo FieldID = 300
)

func (f FieldID) String() string {
	return fmt.Sprintf("FieldID(%d)", int16(f))
}
