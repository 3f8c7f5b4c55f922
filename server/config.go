// config.go - server configuration
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
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/greenwood-hl/greenwood/core/charset"
)

const (
	defaultControlPort     = 5500
	defaultProtocolVersion = 123
	defaultMaxConnections  = 512
)

// ServerConfig is the listener section.
type ServerConfig struct {
	// Addresses is the bind address list; all interfaces by default.
	Addresses []string

	// ControlPort is the transaction listener port.
	ControlPort int

	// TransferPort is the file-transfer listener port; control + 1 when
	// unset.
	TransferPort int

	// Name is the advertised server name.
	Name string

	// ProtocolVersion is carried in the Login reply.
	ProtocolVersion int

	// MaxConnections caps concurrently accepted control connections.
	MaxConnections int
}

// FilesConfig is the shared-directory section.
type FilesConfig struct {
	// Root is the directory served to clients.
	Root string
}

// AccountsConfig is the authentication section.
type AccountsConfig struct {
	// Directory holds one TOML account file per user.
	Directory string

	// AllowGuests admits logins carrying no credentials.
	AllowGuests bool
}

// NewsConfig is the news-feed section.
type NewsConfig struct {
	// Encoding names the feed's output text encoding.
	Encoding string

	// Welcome is an article posted at startup when non-empty.
	Welcome string
}

// LoggingConfig is the logging section.
type LoggingConfig struct {
	// Disable suppresses all output.
	Disable bool

	// File is the log sink; stdout when empty.
	File string

	// Level is one of ERROR, WARNING, NOTICE, INFO, DEBUG.
	Level string
}

// MetricsConfig is the instrumentation section.
type MetricsConfig struct {
	// Enable exposes Prometheus metrics over HTTP.
	Enable bool

	// Address is the metrics listener bind address.
	Address string
}

// Config is the top-level server configuration.
type Config struct {
	Server   ServerConfig
	Files    FilesConfig
	Accounts AccountsConfig
	News     NewsConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// FixupAndValidate applies defaults and sanity-checks the configuration.
func (c *Config) FixupAndValidate() error {
	if len(c.Server.Addresses) == 0 {
		c.Server.Addresses = []string{""}
	}
	if c.Server.ControlPort == 0 {
		c.Server.ControlPort = defaultControlPort
	}
	if c.Server.ControlPort < 0 || c.Server.ControlPort > 65535 {
		return fmt.Errorf("config: invalid control port %d", c.Server.ControlPort)
	}
	if c.Server.TransferPort == 0 {
		c.Server.TransferPort = c.Server.ControlPort + 1
	}
	if c.Server.TransferPort < 0 || c.Server.TransferPort > 65535 {
		return fmt.Errorf("config: invalid transfer port %d", c.Server.TransferPort)
	}
	if c.Server.TransferPort == c.Server.ControlPort {
		return fmt.Errorf("config: control and transfer ports collide on %d", c.Server.ControlPort)
	}
	if c.Server.ProtocolVersion == 0 {
		c.Server.ProtocolVersion = defaultProtocolVersion
	}
	if c.Server.MaxConnections <= 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if c.Files.Root == "" {
		return fmt.Errorf("config: files.root is required")
	}
	if _, err := charset.ForName(c.News.Encoding); err != nil {
		return err
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Metrics.Enable && c.Metrics.Address == "" {
		c.Metrics.Address = "127.0.0.1:9100"
	}
	return nil
}

// NewsCodec returns the configured news codec.
func (c *Config) NewsCodec() charset.Codec {
	codec, err := charset.ForName(c.News.Encoding)
	if err != nil {
		// FixupAndValidate vets the name.
		panic(err)
	}
	return codec
}

// Load parses a configuration document.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: undecoded keys: %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads and parses a configuration file.
func LoadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
