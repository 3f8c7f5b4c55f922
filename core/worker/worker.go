// worker.go - worker goroutine lifecycle helper
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

// Package worker provides a simple goroutine lifecycle helper. Long-lived
// types embed Worker, spawn their goroutines with Go, and tear everything
// down with Halt. Workers watch HaltCh for the termination signal.
package worker

import (
	"sync"
)

// Worker tracks a set of goroutines belonging to one owner.
//
// The zero value is ready to use.
type Worker struct {
	initOnce sync.Once
	haltOnce sync.Once
	wg       sync.WaitGroup
	haltCh   chan struct{}
}

func (w *Worker) init() {
	w.initOnce.Do(func() {
		w.haltCh = make(chan struct{})
	})
}

// Go spawns fn in a new goroutine tracked by the Worker.
func (w *Worker) Go(fn func()) {
	w.init()
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
}

// HaltCh returns the channel that is closed when Halt is called.
func (w *Worker) HaltCh() <-chan struct{} {
	w.init()
	return w.haltCh
}

// Halt signals all of the Worker's goroutines to terminate and blocks
// until they have all returned. It is safe to call more than once.
func (w *Worker) Halt() {
	w.init()
	w.haltOnce.Do(func() {
		close(w.haltCh)
	})
	w.wg.Wait()
}
