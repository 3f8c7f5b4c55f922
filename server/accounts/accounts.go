// accounts.go - user-account store
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

// Package accounts reads user accounts from a directory of TOML files,
// one account per file. Passwords are stored as bcrypt hashes; the
// cleartext recovered from the wire's obfuscation is compared against
// the hash and never retained.
package accounts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownLogin is returned when no account matches a login.
var ErrUnknownLogin = errors.New("accounts: unknown login")

// ErrBadPassword is returned when the password does not match.
var ErrBadPassword = errors.New("accounts: bad password")

// Identity is an account's naming and credential block.
type Identity struct {
	Name     string `toml:"name"`
	Login    string `toml:"login"`
	Password string `toml:"password"`
}

// Permissions is a flag table per concern: operation name to allowed.
type Permissions struct {
	File map[string]bool `toml:"file"`
	User map[string]bool `toml:"user"`
	News map[string]bool `toml:"news"`
	Chat map[string]bool `toml:"chat"`
	Misc map[string]bool `toml:"misc"`
}

// Account is one on-disk user account.
type Account struct {
	Identity    Identity    `toml:"identity"`
	Permissions Permissions `toml:"permissions"`
}

// can reports whether the flag table allows an operation.
func can(table map[string]bool, op string) bool {
	return table[op]
}

// CanFile reports a file-operation permission such as "download".
func (a *Account) CanFile(op string) bool { return can(a.Permissions.File, op) }

// CanUser reports a user-operation permission.
func (a *Account) CanUser(op string) bool { return can(a.Permissions.User, op) }

// CanNews reports a news-operation permission.
func (a *Account) CanNews(op string) bool { return can(a.Permissions.News, op) }

// CanChat reports a chat-operation permission.
func (a *Account) CanChat(op string) bool { return can(a.Permissions.Chat, op) }

// CanMisc reports a misc-operation permission.
func (a *Account) CanMisc(op string) bool { return can(a.Permissions.Misc, op) }

// VerifyPassword compares cleartext against the stored bcrypt hash.
func (a *Account) VerifyPassword(cleartext []byte) error {
	if err := bcrypt.CompareHashAndPassword([]byte(a.Identity.Password), cleartext); err != nil {
		return ErrBadPassword
	}
	return nil
}

// ParseAccount decodes one account file.
func ParseAccount(b []byte) (*Account, error) {
	a := new(Account)
	if err := toml.Unmarshal(b, a); err != nil {
		return nil, err
	}
	if a.Identity.Login == "" {
		return nil, fmt.Errorf("accounts: account file missing identity.login")
	}
	return a, nil
}

// Store is an in-memory view of the accounts directory. External
// tooling edits the files; the server reads them at startup. Add changes
// only the in-memory view, never the files.
type Store struct {
	byLogin map[string]*Account
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{byLogin: make(map[string]*Account)}
}

// Load reads every .toml file under dir. A missing directory yields an
// empty store, leaving guest-only servers configuration-free.
func Load(dir string) (*Store, error) {
	s := NewStore()
	if dir == "" {
		return s, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		a, err := ParseAccount(b)
		if err != nil {
			return nil, fmt.Errorf("accounts: %s: %v", e.Name(), err)
		}
		s.byLogin[a.Identity.Login] = a
	}
	return s, nil
}

// Add registers an account, replacing any existing one with the same
// login.
func (s *Store) Add(a *Account) {
	s.byLogin[a.Identity.Login] = a
}

// Get finds an account by login.
func (s *Store) Get(login string) (*Account, error) {
	if a, ok := s.byLogin[login]; ok {
		return a, nil
	}
	return nil, ErrUnknownLogin
}

// Len returns the number of loaded accounts.
func (s *Store) Len() int {
	return len(s.byLogin)
}

// HashPassword produces the bcrypt hash stored in account files.
func HashPassword(cleartext []byte) (string, error) {
	h, err := bcrypt.GenerateFromPassword(cleartext, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
