// params.go - typed transaction parameters
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
	"encoding/binary"
)

// UserFlags is the presence bitfield carried in user records.
type UserFlags uint16

const (
	UserFlagAway UserFlags = 1 << iota
	UserFlagAdmin
	UserFlagRefuseMessage
	UserFlagRefuseChat
)

// UserNameWithInfo is the user tuple embedded in user-list replies and
// presence notifications: id, icon, flags, and a length-prefixed name.
type UserNameWithInfo struct {
	ID     int16
	IconID int16
	Flags  UserFlags
	Name   []byte
}

// EncodeUserNameWithInfo renders the tuple's packed form.
func EncodeUserNameWithInfo(u UserNameWithInfo) []byte {
	out := make([]byte, 0, 8+len(u.Name))
	out = appendInt16(out, u.ID)
	out = appendInt16(out, u.IconID)
	out = appendInt16(out, int16(u.Flags))
	out = appendInt16(out, int16(len(u.Name)))
	return append(out, u.Name...)
}

// DecodeUserNameWithInfo decodes the packed tuple. The name length must
// account for exactly the remaining payload.
func DecodeUserNameWithInfo(b []byte) (UserNameWithInfo, error) {
	if len(b) < 8 {
		return UserNameWithInfo{}, ErrShortInput
	}
	nameLen := int(int16(binary.BigEndian.Uint16(b[6:8])))
	if nameLen < 0 || len(b) != 8+nameLen {
		return UserNameWithInfo{}, ErrLengthMismatch
	}
	name := make([]byte, nameLen)
	copy(name, b[8:])
	return UserNameWithInfo{
		ID:     int16(binary.BigEndian.Uint16(b[0:2])),
		IconID: int16(binary.BigEndian.Uint16(b[2:4])),
		Flags:  UserFlags(binary.BigEndian.Uint16(b[4:6])),
		Name:   name,
	}, nil
}

// NewUserNameWithInfoParameter wraps the tuple in its parameter.
func NewUserNameWithInfoParameter(u UserNameWithInfo) Parameter {
	return Parameter{ID: FieldUserNameWithInfo, Data: EncodeUserNameWithInfo(u)}
}

// UserNameWithInfo decodes the parameter payload as a user tuple.
func (p Parameter) UserNameWithInfo() (UserNameWithInfo, error) {
	u, err := DecodeUserNameWithInfo(p.Data)
	if err != nil {
		return UserNameWithInfo{}, &MalformedFieldError{Field: p.ID}
	}
	return u, nil
}

// Obfuscate applies the wire's credential obfuscation: the bitwise
// complement of every byte. The transform is involutive. This is wire
// compatibility, not security.
func Obfuscate(b []byte) []byte {
	out := make([]byte, len(b))
	for i, by := range b {
		out[i] = ^by
	}
	return out
}

// Credential holds login or password bytes exactly as they appeared on
// the wire (obfuscated). It never exposes cleartext through formatting.
type Credential struct {
	data []byte
}

// NewCredential wraps raw wire bytes.
func NewCredential(raw []byte) Credential {
	return Credential{data: raw}
}

// CredentialFromCleartext obfuscates cleartext for sending.
func CredentialFromCleartext(clear []byte) Credential {
	return Credential{data: Obfuscate(clear)}
}

// Raw returns the obfuscated wire bytes.
func (c Credential) Raw() []byte {
	return c.data
}

// Deobfuscate returns the cleartext bytes.
func (c Credential) Deobfuscate() []byte {
	return Obfuscate(c.data)
}

// Empty returns true for a zero-length credential.
func (c Credential) Empty() bool {
	return len(c.data) == 0
}

// String implements fmt.Stringer without leaking the credential.
func (c Credential) String() string {
	return "[redacted]"
}

// FileNameWithInfo is the directory-listing entry parameter: type and
// creator codes, size, a name script, and a length-prefixed name.
type FileNameWithInfo struct {
	Type       [4]byte
	Creator    [4]byte
	Size       int32
	NameScript int16
	Name       []byte
}

// NewFileNameWithInfoParameter renders the entry into its parameter.
func NewFileNameWithInfoParameter(f FileNameWithInfo) Parameter {
	out := make([]byte, 0, 20+len(f.Name))
	out = append(out, f.Type[:]...)
	out = append(out, f.Creator[:]...)
	out = appendInt32(out, f.Size)
	out = append(out, 0, 0, 0, 0)
	out = appendInt16(out, f.NameScript)
	out = appendInt16(out, int16(len(f.Name)))
	out = append(out, f.Name...)
	return Parameter{ID: FieldFileNameWithInfo, Data: out}
}

// FileNameWithInfo decodes the parameter payload as a listing entry.
func (p Parameter) FileNameWithInfo() (FileNameWithInfo, error) {
	b := p.Data
	if len(b) < 20 {
		return FileNameWithInfo{}, &MalformedFieldError{Field: p.ID}
	}
	var f FileNameWithInfo
	copy(f.Type[:], b[0:4])
	copy(f.Creator[:], b[4:8])
	f.Size = int32(binary.BigEndian.Uint32(b[8:12]))
	f.NameScript = int16(binary.BigEndian.Uint16(b[16:18]))
	nameLen := int(int16(binary.BigEndian.Uint16(b[18:20])))
	if nameLen < 0 || len(b) != 20+nameLen {
		return FileNameWithInfo{}, &MalformedFieldError{Field: p.ID}
	}
	f.Name = make([]byte, nameLen)
	copy(f.Name, b[20:])
	return f, nil
}
