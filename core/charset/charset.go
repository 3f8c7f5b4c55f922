// charset.go - single-byte text codec
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

// Package charset converts between the single-byte text encodings used
// by legacy Hotline clients and UTF-8. Byte strings on the wire are
// passed through untouched; a Codec is only applied where the server is
// the authority on text, such as the news feed and diagnostic output.
package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Codec converts between a client-side byte encoding and UTF-8 strings.
type Codec interface {
	// Decode converts encoded bytes to a UTF-8 string. Unmappable bytes
	// are substituted, never dropped.
	Decode(b []byte) string
	// Encode converts a UTF-8 string to the client encoding. Unmappable
	// runes are substituted with '?'.
	Encode(s string) []byte
	// Name returns the codec's configuration name.
	Name() string
}

type charmapCodec struct {
	name string
	cm   *charmap.Charmap
}

func (c *charmapCodec) Decode(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, by := range b {
		sb.WriteRune(c.cm.DecodeByte(by))
	}
	return sb.String()
}

func (c *charmapCodec) Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := c.cm.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

func (c *charmapCodec) Name() string {
	return c.name
}

// MacRoman returns the codec historically used by Mac OS Hotline clients.
func MacRoman() Codec {
	return &charmapCodec{name: "macroman", cm: charmap.Macintosh}
}

// Latin1 returns an ISO 8859-1 codec.
func Latin1() Codec {
	return &charmapCodec{name: "latin1", cm: charmap.ISO8859_1}
}

// ForName maps a configuration name to a Codec.
func ForName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "macroman", "mac-roman", "macintosh":
		return MacRoman(), nil
	case "latin1", "iso-8859-1":
		return Latin1(), nil
	}
	return nil, fmt.Errorf("charset: unknown encoding '%v'", name)
}
