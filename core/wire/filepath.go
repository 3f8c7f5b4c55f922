// filepath.go - file-path list parameter
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
	"fmt"
)

// FilePath is the protocol's path list: a component depth followed by
// length-prefixed component names. A zero depth is the share root.
type FilePath struct {
	components [][]byte
}

// RootPath is the zero-depth path.
var RootPath = FilePath{}

// NewFilePath builds a path from components. Component names are limited
// to 255 bytes by the wire format.
func NewFilePath(components ...[]byte) (FilePath, error) {
	for _, c := range components {
		if len(c) > 255 {
			return FilePath{}, fmt.Errorf("wire: path component of %d bytes exceeds limit", len(c))
		}
	}
	return FilePath{components: components}, nil
}

// IsRoot returns true for the zero-depth path.
func (p FilePath) IsRoot() bool {
	return len(p.components) == 0
}

// Components returns the path's component names in order.
func (p FilePath) Components() [][]byte {
	return p.components
}

// Join returns the path extended by one component.
func (p FilePath) Join(name []byte) (FilePath, error) {
	components := make([][]byte, 0, len(p.components)+1)
	components = append(components, p.components...)
	components = append(components, name)
	return NewFilePath(components...)
}

// Encode renders the path list: an i16 depth, then per component two
// reserved bytes, a u8 name length, and the name.
func (p FilePath) Encode() []byte {
	out := appendInt16(nil, int16(len(p.components)))
	for _, c := range p.components {
		out = append(out, 0, 0, byte(len(c)))
		out = append(out, c...)
	}
	return out
}

// DecodeFilePath decodes a complete path-list payload. A zero-depth
// encoding decodes to the root.
func DecodeFilePath(b []byte) (FilePath, error) {
	if len(b) < 2 {
		return FilePath{}, ErrShortInput
	}
	depth := int(int16(binary.BigEndian.Uint16(b[:2])))
	if depth < 0 {
		return FilePath{}, ErrLengthMismatch
	}
	b = b[2:]
	var components [][]byte
	for i := 0; i < depth; i++ {
		if len(b) < 3 {
			return FilePath{}, ErrShortInput
		}
		size := int(b[2])
		b = b[3:]
		if len(b) < size {
			return FilePath{}, ErrShortInput
		}
		name := make([]byte, size)
		copy(name, b[:size])
		components = append(components, name)
		b = b[size:]
	}
	if len(b) != 0 {
		return FilePath{}, ErrLengthMismatch
	}
	return FilePath{components: components}, nil
}

// NewFilePathParameter wraps the path in its parameter.
func NewFilePathParameter(p FilePath) Parameter {
	return Parameter{ID: FieldFilePath, Data: p.Encode()}
}

// FilePath decodes the parameter payload as a path list.
func (p Parameter) FilePath() (FilePath, error) {
	fp, err := DecodeFilePath(p.Data)
	if err != nil {
		return FilePath{}, &MalformedFieldError{Field: p.ID}
	}
	return fp, nil
}

// PathFromBody extracts the FilePath parameter from a body, defaulting
// to the root when the parameter is absent.
func PathFromBody(b Body) (FilePath, error) {
	param, ok := b.Field(FieldFilePath)
	if !ok {
		return RootPath, nil
	}
	return param.FilePath()
}
