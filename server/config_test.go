// config_test.go - configuration tests
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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]byte(`
[Files]
Root = "/tmp"
`))
	require.NoError(t, err)
	require.Equal(t, 5500, cfg.Server.ControlPort)
	require.Equal(t, 5501, cfg.Server.TransferPort)
	require.Equal(t, 123, cfg.Server.ProtocolVersion)
	require.Equal(t, []string{""}, cfg.Server.Addresses)
	require.Equal(t, "INFO", cfg.Logging.Level)
	require.Equal(t, "macroman", cfg.NewsCodec().Name())
}

func TestLoadFullDocument(t *testing.T) {
	cfg, err := Load([]byte(`
[Server]
Addresses = ["127.0.0.1"]
ControlPort = 6500
Name = "testserver"

[Files]
Root = "/srv/share"

[Accounts]
Directory = "/srv/accounts"
AllowGuests = true

[News]
Encoding = "latin1"
Welcome = "hello"

[Logging]
Level = "DEBUG"

[Metrics]
Enable = true
`))
	require.NoError(t, err)
	require.Equal(t, 6500, cfg.Server.ControlPort)
	require.Equal(t, 6501, cfg.Server.TransferPort)
	require.True(t, cfg.Accounts.AllowGuests)
	require.Equal(t, "latin1", cfg.NewsCodec().Name())
	require.Equal(t, "127.0.0.1:9100", cfg.Metrics.Address)
}

func TestLoadRejectsMissingRoot(t *testing.T) {
	_, err := Load([]byte(`[Server]
ControlPort = 5500`))
	require.Error(t, err)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load([]byte(`
[Files]
Root = "/tmp"
Rooot = "/oops"
`))
	require.Error(t, err)
}

func TestLoadRejectsPortCollision(t *testing.T) {
	_, err := Load([]byte(`
[Server]
ControlPort = 7000
TransferPort = 7000

[Files]
Root = "/tmp"
`))
	require.Error(t, err)
}

func TestLoadRejectsUnknownEncoding(t *testing.T) {
	_, err := Load([]byte(`
[Files]
Root = "/tmp"

[News]
Encoding = "utf-17"
`))
	require.Error(t, err)
}
