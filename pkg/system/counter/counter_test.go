package counter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counter")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadUint64(t *testing.T) {
	t.Run("trailing_newline", func(t *testing.T) {
		v, err := ReadUint64(write(t, "123456789\n"))
		require.NoError(t, err)
		assert.Equal(t, uint64(123456789), v)
	})
	t.Run("surrounding_spaces", func(t *testing.T) {
		v, err := ReadUint64(write(t, "  42 \n\n"))
		require.NoError(t, err)
		assert.Equal(t, uint64(42), v)
	})
	t.Run("missing_file", func(t *testing.T) {
		_, err := ReadUint64(filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPath))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
	t.Run("not_a_number", func(t *testing.T) {
		_, err := ReadUint64(write(t, "max\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrParse))
		assert.False(t, errors.Is(err, ErrPath))
	})
	t.Run("negative", func(t *testing.T) {
		_, err := ReadUint64(write(t, "-1"))
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestReadUint64List(t *testing.T) {
	t.Run("four_cores", func(t *testing.T) {
		vals, err := ReadUint64List(write(t, "10 20 30 40 \n"))
		require.NoError(t, err)
		assert.Equal(t, []uint64{10, 20, 30, 40}, vals)
	})
	t.Run("empty", func(t *testing.T) {
		vals, err := ReadUint64List(write(t, "\n"))
		require.NoError(t, err)
		assert.Empty(t, vals)
	})
	t.Run("bad_entry", func(t *testing.T) {
		_, err := ReadUint64List(write(t, "10 x 30"))
		assert.ErrorIs(t, err, ErrParse)
	})
	t.Run("missing_file", func(t *testing.T) {
		_, err := ReadUint64List(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, ErrPath)
	})
}

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(write(t, "8:0 Read 100\n8:0 Write 200\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"8:0 Read 100", "8:0 Write 200"}, lines)

	lines, err = ReadLines(write(t, ""))
	require.NoError(t, err)
	assert.Empty(t, lines)
}
