// date.go - packed date parameter
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
	"time"
)

// DateLen is the encoded size of a Date.
const DateLen = 8

// Date is the protocol's packed date: a year, a millisecond count, and
// the seconds elapsed since the start of that year (January 1, UTC).
type Date struct {
	Year         int16
	Milliseconds int16
	Seconds      int32
}

// NewDate converts a time to the packed representation. Times before the
// Unix epoch clamp to the epoch, matching what clients expect for files
// with unknown timestamps.
func NewDate(t time.Time) Date {
	t = t.UTC()
	if t.Before(time.Unix(0, 0)) {
		t = time.Unix(0, 0).UTC()
	}
	yearStart := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return Date{
		Year:    int16(t.Year()),
		Seconds: int32(t.Sub(yearStart) / time.Second),
	}
}

// Time converts the packed date back to a time.Time in UTC.
func (d Date) Time() time.Time {
	yearStart := time.Date(int(d.Year), time.January, 1, 0, 0, 0, 0, time.UTC)
	return yearStart.
		Add(time.Duration(d.Seconds) * time.Second).
		Add(time.Duration(d.Milliseconds) * time.Millisecond)
}

// AppendDate appends the 8-byte encoding of d to b.
func AppendDate(b []byte, d Date) []byte {
	b = appendInt16(b, d.Year)
	b = appendInt16(b, d.Milliseconds)
	return appendInt32(b, d.Seconds)
}

// DecodeDate decodes a date from the front of b and returns the
// remaining input.
func DecodeDate(b []byte) (Date, []byte, error) {
	if len(b) < DateLen {
		return Date{}, b, ErrShortInput
	}
	d := Date{
		Year:         int16(binary.BigEndian.Uint16(b[0:2])),
		Milliseconds: int16(binary.BigEndian.Uint16(b[2:4])),
		Seconds:      int32(binary.BigEndian.Uint32(b[4:8])),
	}
	return d, b[DateLen:], nil
}

// NewDateParameter packs a date into a parameter with the given field.
func NewDateParameter(id FieldID, t time.Time) Parameter {
	return Parameter{ID: id, Data: AppendDate(nil, NewDate(t))}
}

// Date decodes the parameter payload as a packed date.
func (p Parameter) Date() (Date, error) {
	if len(p.Data) != DateLen {
		return Date{}, &MalformedFieldError{Field: p.ID}
	}
	d, _, err := DecodeDate(p.Data)
	return d, err
}
