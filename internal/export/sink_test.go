package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		id   uint64
		want string
	}{
		{1, "book_01.txt"},
		{9, "book_09.txt"},
		{42, "book_42.txt"},
		{123, "book_123.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.id))
	}
}

func TestFileSink(t *testing.T) {
	t.Run("writes lines in order", func(t *testing.T) {
		sink, err := NewFileSink(t.TempDir())
		require.NoError(t, err)

		art, err := sink.Export(1, "Moby Dick", []string{"Call me Ishmael", "Some years ago"})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(sink.Dir(), "book_01.txt"), art.Path)
		data, err := os.ReadFile(art.Path)
		require.NoError(t, err)
		assert.Equal(t, "Call me Ishmael\nSome years ago\n", string(data))
		assert.Equal(t, int64(len(data)), art.Bytes)
	})

	t.Run("zero lines writes empty file", func(t *testing.T) {
		sink, err := NewFileSink(t.TempDir())
		require.NoError(t, err)

		art, err := sink.Export(2, "empty", nil)
		require.NoError(t, err)

		info, err := os.Stat(art.Path)
		require.NoError(t, err)
		assert.Equal(t, int64(0), info.Size())
		assert.Equal(t, int64(0), art.Bytes)
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "out")
		sink, err := NewFileSink(dir)
		require.NoError(t, err)

		_, err = sink.Export(3, "t", []string{"x"})
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "book_03.txt"))
	})

	t.Run("empty dir defaults to working directory", func(t *testing.T) {
		sink, err := NewFileSink("")
		require.NoError(t, err)
		assert.Equal(t, ".", sink.Dir())
	})

	t.Run("write failure is reported", func(t *testing.T) {
		dir := t.TempDir()
		sink, err := NewFileSink(dir)
		require.NoError(t, err)
		require.NoError(t, os.RemoveAll(dir))

		_, err = sink.Export(4, "gone", []string{"x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "book_04.txt")
	})
}
