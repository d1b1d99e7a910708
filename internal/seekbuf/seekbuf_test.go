package seekbuf

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainSource hides every method of strings.Reader except Read and Seek.
type plainSource struct {
	rs io.ReadSeeker
}

func (p *plainSource) Read(b []byte) (int, error) { return p.rs.Read(b) }

func (p *plainSource) Seek(offset int64, whence int) (int64, error) {
	return p.rs.Seek(offset, whence)
}

func newPlain(s string) *plainSource {
	return &plainSource{rs: strings.NewReader(s)}
}

func position(t *testing.T, s io.Seeker) int64 {
	t.Helper()
	pos, err := s.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	return pos
}

func TestReader_ReadByteTracksLogicalPosition(t *testing.T) {
	t.Parallel()

	b := New(newPlain("hello world"), 4)
	for i := range 11 {
		c, err := b.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, "hello world"[i], c)
		assert.Equal(t, int64(i+1), position(t, b))
	}

	_, err := b.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(11), position(t, b))
}

func TestReader_Read(t *testing.T) {
	t.Parallel()

	t.Run("small reads through buffer", func(t *testing.T) {
		t.Parallel()
		b := New(newPlain("abcdefghij"), 8)

		buf := make([]byte, 3)
		n, err := b.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(buf[:n]))
		assert.Equal(t, int64(3), position(t, b))
	})

	t.Run("large read bypasses buffer", func(t *testing.T) {
		t.Parallel()
		b := New(newPlain("abcdefghij"), 4)

		buf := make([]byte, 6)
		n, err := b.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "abcdef", string(buf[:n]))
		assert.Equal(t, int64(6), position(t, b))
	})

	t.Run("read all", func(t *testing.T) {
		t.Parallel()
		b := New(newPlain("abcdefghij"), 4)

		data, err := io.ReadAll(b)
		require.NoError(t, err)
		assert.Equal(t, "abcdefghij", string(data))
		assert.Equal(t, int64(10), position(t, b))
	})
}

func TestReader_Seek(t *testing.T) {
	t.Parallel()

	b := New(newPlain("0123456789"), 4)
	_, err := b.ReadByte()
	require.NoError(t, err)

	// Inside the buffered window.
	pos, err := b.Seek(2, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)
	c, err := b.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('2'), c)

	// Outside it.
	pos, err = b.Seek(8, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos)
	c, err = b.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('8'), c)

	pos, err = b.Seek(-5, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	pos, err = b.Seek(-1, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(9), pos)
	c, err = b.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('9'), c)
}

func TestReader_SeekErrorIsVerbatim(t *testing.T) {
	t.Parallel()

	src := newPlain("0123")
	_, wantErr := strings.NewReader("0123").Seek(-1, io.SeekStart)
	require.Error(t, wantErr)

	b := New(src, 4)
	_, err := b.Seek(-1, io.SeekStart)
	assert.Equal(t, wantErr.Error(), err.Error())
	assert.Equal(t, int64(0), position(t, b))
}

func TestReader_UnreadByte(t *testing.T) {
	t.Parallel()

	t.Run("at start", func(t *testing.T) {
		t.Parallel()
		b := New(newPlain("ab"), 4)
		assert.ErrorIs(t, b.UnreadByte(), ErrInvalidUnreadByte)
	})

	t.Run("after seek past buffer", func(t *testing.T) {
		t.Parallel()
		b := New(newPlain("abcdefghij"), 4)
		_, err := b.Seek(6, io.SeekStart)
		require.NoError(t, err)

		require.NoError(t, b.UnreadByte())
		assert.Equal(t, int64(5), position(t, b))
		c, err := b.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte('f'), c)
	})
}

func TestReader_ReadRune(t *testing.T) {
	t.Parallel()

	// "é" is two bytes and straddles the 4-byte buffer boundary.
	b := New(newPlain("abcé!"), 4)
	var got []rune
	for {
		r, _, err := b.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, r)
	}
	assert.Equal(t, []rune("abcé!"), got)
	assert.Equal(t, int64(6), position(t, b))
}

func TestReader_UnreadRune(t *testing.T) {
	t.Parallel()

	b := New(newPlain("é1"), 4)
	assert.ErrorIs(t, b.UnreadRune(), ErrInvalidUnreadRune)

	r, size, err := b.ReadRune()
	require.NoError(t, err)
	assert.Equal(t, 'é', r)
	assert.Equal(t, 2, size)

	require.NoError(t, b.UnreadRune())
	assert.Equal(t, int64(0), position(t, b))
	assert.ErrorIs(t, b.UnreadRune(), ErrInvalidUnreadRune)
}

func TestReader_UnreadRuneAfterPositionQuery(t *testing.T) {
	t.Parallel()

	b := New(newPlain("aé"), 4)
	_, err := b.ReadByte()
	require.NoError(t, err)
	_, _, err = b.ReadRune()
	require.NoError(t, err)

	assert.Equal(t, int64(3), position(t, b))
	require.NoError(t, b.UnreadRune())
	assert.Equal(t, int64(1), position(t, b))

	// A seek that moves the cursor still invalidates the rune.
	_, _, err = b.ReadRune()
	require.NoError(t, err)
	_, err = b.Seek(-1, io.SeekCurrent)
	require.NoError(t, err)
	assert.ErrorIs(t, b.UnreadRune(), ErrInvalidUnreadRune)
}

func TestReader_Size(t *testing.T) {
	t.Parallel()

	t.Run("sized source", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, int64(5), New(strings.NewReader("hello"), 0).Size())
	})

	t.Run("unsized source", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, int64(-1), New(newPlain("hello"), 0).Size())
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "data.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello file"), 0o600))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		b := New(f, 0)
		assert.Equal(t, int64(10), b.Size())

		data, err := io.ReadAll(b)
		require.NoError(t, err)
		assert.Equal(t, "hello file", string(data))
	})
}

func TestReader_StartsAtSourcePosition(t *testing.T) {
	t.Parallel()

	src := newPlain("0123456789")
	_, err := src.Seek(3, io.SeekStart)
	require.NoError(t, err)

	b := New(src, 4)
	assert.Equal(t, int64(3), position(t, b))
	c, err := b.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('3'), c)
}
