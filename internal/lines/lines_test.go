package lines

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mary = "Mary\nHad\nA little\nLamb"

func TestRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		sep      string
		limit    int
		expected string
		pos      int64
	}{
		{
			name:     "default separator",
			input:    mary,
			sep:      "\n",
			limit:    NoLimit,
			expected: "Mary\n",
			pos:      5,
		},
		{
			name:     "custom separator",
			input:    mary,
			sep:      "y",
			limit:    NoLimit,
			expected: "Mary",
			pos:      4,
		},
		{
			name:     "limit",
			input:    mary,
			sep:      "\n",
			limit:    3,
			expected: "Mar",
			pos:      3,
		},
		{
			name:     "separator and limit",
			input:    mary,
			sep:      "a",
			limit:    2,
			expected: "Ma",
			pos:      2,
		},
		{
			name:     "multi-byte separator",
			input:    "one\r\ntwo\r\n",
			sep:      "\r\n",
			limit:    NoLimit,
			expected: "one\r\n",
			pos:      5,
		},
		{
			name:     "empty separator reads remainder",
			input:    mary,
			sep:      "",
			limit:    NoLimit,
			expected: mary,
			pos:      22,
		},
		{
			name:     "final line without separator",
			input:    "Lamb",
			sep:      "\n",
			limit:    NoLimit,
			expected: "Lamb",
			pos:      4,
		},
		{
			name:     "zero limit reads nothing",
			input:    mary,
			sep:      "\n",
			limit:    0,
			expected: "",
			pos:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := strings.NewReader(tt.input)

			line, err := Read(r, tt.sep, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, line)

			pos, err := r.Seek(0, io.SeekCurrent)
			require.NoError(t, err)
			assert.Equal(t, tt.pos, pos)
		})
	}
}

func TestRead_EOF(t *testing.T) {
	t.Parallel()

	line, err := Read(strings.NewReader(""), "\n", NoLimit)
	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, line)
}

func TestRead_PropagatesSourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := &failingByteReader{data: []byte("ab"), err: boom}

	line, err := Read(r, "\n", NoLimit)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "ab", line)
}

func TestReadAll(t *testing.T) {
	t.Parallel()

	t.Run("default separator", func(t *testing.T) {
		t.Parallel()
		got, err := ReadAll(strings.NewReader(mary), "\n", NoLimit)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mary\n", "Had\n", "A little\n", "Lamb"}, got)
	})

	t.Run("custom separator", func(t *testing.T) {
		t.Parallel()
		got, err := ReadAll(strings.NewReader(mary), "e", NoLimit)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mary\nHad\nA little", "\nLamb"}, got)
	})

	t.Run("exhausted source", func(t *testing.T) {
		t.Parallel()
		got, err := ReadAll(strings.NewReader(""), "\n", NoLimit)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("zero limit", func(t *testing.T) {
		t.Parallel()
		_, err := ReadAll(strings.NewReader(mary), "\n", 0)
		assert.ErrorIs(t, err, ErrZeroLimit)
	})
}

// failingByteReader returns data and then err instead of io.EOF.
type failingByteReader struct {
	data []byte
	err  error
}

func (f *failingByteReader) ReadByte() (byte, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	c := f.data[0]
	f.data = f.data[1:]
	return c, nil
}
