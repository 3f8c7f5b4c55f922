// log.go - logging backend
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

// Package log provides the process-wide logging backend. Components ask
// the backend for a named module logger and never touch the underlying
// sink directly.
package log

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"gopkg.in/op/go-logging.v1"
)

const fmtStr = "%{time:15:04:05.000} %{level:.4s} %{module}: %{message}"

// Backend handles the logging for the entire server.
type Backend struct {
	backend logging.LeveledBackend
	w       io.Writer
}

// GetLogger returns a per-module logger that writes to the backend.
func (b *Backend) GetLogger(module string) *logging.Logger {
	l := logging.MustGetLogger(module)
	l.SetBackend(b.backend)
	return l
}

// GetLogWriter returns an io.Writer that logs each line written to it at
// the provided level, for adapting collaborators that expect a Writer.
func (b *Backend) GetLogWriter(module, level string) io.Writer {
	lvl, err := logLevelFromString(level)
	if err != nil {
		panic(err)
	}
	return &logWriter{l: b.GetLogger(module), lvl: lvl}
}

type logWriter struct {
	l   *logging.Logger
	lvl logging.Level
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		switch w.lvl {
		case logging.ERROR:
			w.l.Error(line)
		case logging.WARNING:
			w.l.Warning(line)
		case logging.NOTICE:
			w.l.Notice(line)
		case logging.INFO:
			w.l.Info(line)
		default:
			w.l.Debug(line)
		}
	}
	return len(p), nil
}

func logLevelFromString(l string) (logging.Level, error) {
	switch strings.ToUpper(l) {
	case "ERROR":
		return logging.ERROR, nil
	case "WARNING":
		return logging.WARNING, nil
	case "NOTICE":
		return logging.NOTICE, nil
	case "INFO":
		return logging.INFO, nil
	case "DEBUG":
		return logging.DEBUG, nil
	}
	return logging.ERROR, fmt.Errorf("log: invalid level: '%v'", l)
}

// New initializes the logging backend. An empty file logs to stdout,
// disable suppresses all output.
func New(file string, level string, disable bool) (*Backend, error) {
	lvl, err := logLevelFromString(level)
	if err != nil {
		return nil, err
	}

	b := new(Backend)
	switch {
	case disable:
		b.w = ioutil.Discard
	case file == "":
		b.w = os.Stdout
	default:
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("log: failed to open log file: %v", err)
		}
		b.w = f
	}

	base := logging.NewLogBackend(b.w, "", 0)
	formatted := logging.NewBackendFormatter(base, logging.MustStringFormatter(fmtStr))
	b.backend = logging.AddModuleLevel(formatted)
	b.backend.SetLevel(lvl, "")
	return b, nil
}
