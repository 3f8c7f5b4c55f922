// errors.go - wire protocol error types
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
	"errors"
	"fmt"
)

var (
	// ErrShortInput is the error returned when a decoder needs more
	// bytes than the input holds.
	ErrShortInput = errors.New("wire: need more input")

	// ErrBadMagic is the error returned when a handshake or container
	// magic tag does not match.
	ErrBadMagic = errors.New("wire: bad magic")

	// ErrLengthMismatch is the error returned when a declared size field
	// disagrees with the bytes that follow it.
	ErrLengthMismatch = errors.New("wire: length mismatch")

	// ErrBodyTooLarge is the error returned when a transaction header
	// declares a body beyond the sanity cap.
	ErrBodyTooLarge = errors.New("wire: transaction body too large")
)

// UnsupportedTransactionError indicates a header referring to a
// transaction type this implementation does not know.
type UnsupportedTransactionError struct {
	Type TransactionType
}

func (e *UnsupportedTransactionError) Error() string {
	return fmt.Sprintf("wire: unsupported transaction type %d", int16(e.Type))
}

// UnexpectedTransactionError indicates a frame of the wrong type was
// handed to a request decoder.
type UnexpectedTransactionError struct {
	Expected    TransactionType
	Encountered TransactionType
}

func (e *UnexpectedTransactionError) Error() string {
	return fmt.Sprintf("wire: expected transaction %v, got %v", e.Expected, e.Encountered)
}

// MissingFieldError indicates a required parameter was absent from a
// transaction body.
type MissingFieldError struct {
	Field FieldID
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("wire: transaction body is missing field %v", e.Field)
}

// MalformedFieldError indicates a parameter whose payload could not be
// decoded as the expected shape.
type MalformedFieldError struct {
	Field FieldID
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("wire: malformed data in field %v", e.Field)
}
