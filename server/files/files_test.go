// files_test.go - rooted filesystem tests
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

package files

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*Store, string) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hello"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "uploads"), 0755))
	s, err := NewStore(dir)
	require.NoError(t, err)
	return s, dir
}

func TestListRoot(t *testing.T) {
	s, _ := testStore(t)

	entries, err := s.List(nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "readme.txt", entries[0].Name)
	require.False(t, entries[0].Dir)
	require.Equal(t, [4]byte{'T', 'E', 'X', 'T'}, entries[0].Type)
	require.Equal(t, [4]byte{'?', '?', '?', '?'}, entries[0].Creator)
	require.EqualValues(t, 5, entries[0].Size)

	require.Equal(t, "uploads", entries[1].Name)
	require.True(t, entries[1].Dir)
	require.Equal(t, [4]byte{'f', 'l', 'd', 'r'}, entries[1].Type)
}

func TestStat(t *testing.T) {
	s, _ := testStore(t)

	info, err := s.Stat([]string{"readme.txt"})
	require.NoError(t, err)
	require.Equal(t, "readme.txt", info.Name)
	require.EqualValues(t, 5, info.Size)
	require.False(t, info.ModifiedAt.IsZero())
}

func TestTraversalRejectedWithoutIO(t *testing.T) {
	s, _ := testStore(t)

	for _, components := range [][]string{
		{".."},
		{"uploads", "..", "..", "x"},
		{"/etc"},
		{"a/b"},
	} {
		_, err := s.List(components)
		require.ErrorIs(t, err, ErrTraversal, "components %v", components)
		_, err = s.Stat(components)
		require.ErrorIs(t, err, ErrTraversal)
		_, err = s.Read(components, 0)
		require.ErrorIs(t, err, ErrTraversal)
		_, err = s.Write(components, 0)
		require.ErrorIs(t, err, ErrTraversal)
	}
}

func TestReadAtOffset(t *testing.T) {
	s, _ := testStore(t)

	r, err := s.Read([]string{"readme.txt"}, 2)
	require.NoError(t, err)
	defer r.Close()

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "llo", string(b))
}

func TestWriteCreates(t *testing.T) {
	s, dir := testStore(t)

	w, err := s.Write([]string{"uploads", "new.bin"}, 0)
	require.NoError(t, err)
	_, err = w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := os.ReadFile(filepath.Join(dir, "uploads", "new.bin"))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, b)
}

func TestNewStoreRejectsFileRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	_, err := NewStore(path)
	require.Error(t, err)
}
