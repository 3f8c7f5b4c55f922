// worker_test.go - worker lifecycle tests
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

package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHaltWaitsForWorkers(t *testing.T) {
	var w Worker
	var done atomic.Int32

	for i := 0; i < 3; i++ {
		w.Go(func() {
			<-w.HaltCh()
			done.Add(1)
		})
	}

	w.Halt()
	require.EqualValues(t, 3, done.Load())
}

func TestHaltIsIdempotent(t *testing.T) {
	var w Worker
	w.Go(func() { <-w.HaltCh() })
	w.Halt()
	w.Halt()
}

func TestZeroValueHaltCh(t *testing.T) {
	var w Worker
	select {
	case <-w.HaltCh():
		t.Fatal("halt channel closed before Halt")
	default:
	}
}
