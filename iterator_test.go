package progressio

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Each(t *testing.T) {
	t.Parallel()

	for _, each := range []struct {
		name string
		fn   func(*Reader, func(string) error, ...LineOption) error
	}{
		{name: "Each", fn: (*Reader).Each},
		{name: "EachLine", fn: (*Reader).EachLine},
	} {
		t.Run(each.name, func(t *testing.T) {
			t.Parallel()
			r, rec := newRecorded(mary)

			var got []string
			err := each.fn(r, func(line string) error {
				got = append(got, line)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"Mary\n", "Had\n", "A little\n", "Lamb"}, got)
			assert.Equal(t, []int64{5, 9, 18, 22}, rec.positions())
		})
	}
}

func TestReader_EachHandlerRunsBeforeNotification(t *testing.T) {
	t.Parallel()

	var order []string
	r := New(strings.NewReader("a\nb\n"), OnPosition(func(int64) {
		order = append(order, "notify")
	}))
	err := r.Each(func(string) error {
		order = append(order, "handler")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"handler", "notify", "handler", "notify"}, order)
}

func TestReader_EachWithSeparator(t *testing.T) {
	t.Parallel()

	r, rec := newRecorded(mary)
	var got []string
	err := r.Each(func(line string) error {
		got = append(got, line)
		return nil
	}, WithSeparator("e"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Mary\nHad\nA little", "\nLamb"}, got)
	assert.Equal(t, []int64{17, 22}, rec.positions())
}

func TestReader_EachStop(t *testing.T) {
	t.Parallel()

	r, rec := newRecorded(mary)
	var got []string
	err := r.Each(func(line string) error {
		got = append(got, line)
		if len(got) == 2 {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mary\n", "Had\n"}, got)
	assert.Equal(t, []int64{5}, rec.positions())

	// The rest of the stream is still there.
	rest, err := r.ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"A little\n", "Lamb"}, rest)
}

func TestReader_EachHandlerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r, rec := newRecorded(mary)
	err := r.Each(func(string) error { return boom })
	assert.Same(t, boom, err)
	assert.Empty(t, rec.events)
}

func TestReader_EachZeroLimit(t *testing.T) {
	t.Parallel()

	r, rec := newRecorded(mary)
	err := r.Each(func(string) error { return nil }, WithLimit(0))
	assert.ErrorIs(t, err, ErrInvalidLimit)

	it := r.EachIter(WithLimit(0))
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrInvalidLimit)
	assert.Empty(t, rec.events)
}

func TestReader_EachNilHandler(t *testing.T) {
	t.Parallel()

	r, rec := newRecorded(mary)
	assert.ErrorIs(t, r.Each(nil), ErrNilHandler)
	assert.ErrorIs(t, r.EachLine(nil), ErrNilHandler)
	assert.ErrorIs(t, r.EachByte(nil), ErrNilHandler)
	assert.Empty(t, rec.events)

	pos, err := r.Pos()
	require.NoError(t, err)
	assert.Zero(t, pos)
}

func TestReader_EachByte(t *testing.T) {
	t.Parallel()

	r, rec := newRecorded("123")
	var got []byte
	err := r.EachByte(func(b byte) error {
		got = append(got, b)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{49, 50, 51}, got)
	assert.Equal(t, []int64{1, 2, 3}, rec.positions())
}

func TestReader_EachByteStop(t *testing.T) {
	t.Parallel()

	r, rec := newRecorded("123")
	err := r.EachByte(func(b byte) error {
		if b == '2' {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, rec.positions())
}

func TestLineIterator_MatchesEach(t *testing.T) {
	t.Parallel()

	eager, eagerRec := newRecorded(mary)
	var want []string
	require.NoError(t, eager.Each(func(line string) error {
		want = append(want, line)
		return nil
	}))

	t.Run("Next", func(t *testing.T) {
		t.Parallel()
		r, rec := newRecorded(mary)
		it := r.EachIter()

		var got []string
		for it.Next() {
			got = append(got, it.Line())
		}
		require.NoError(t, it.Err())
		assert.Equal(t, want, got)
		assert.Equal(t, eagerRec.positions(), rec.positions())
		assert.False(t, it.Next())
	})

	t.Run("All", func(t *testing.T) {
		t.Parallel()
		r, rec := newRecorded(mary)
		it := r.EachLineIter()

		var got []string
		for line := range it.All() {
			got = append(got, line)
		}
		require.NoError(t, it.Err())
		assert.Equal(t, want, got)
		assert.Equal(t, eagerRec.positions(), rec.positions())
	})
}

func TestLineIterator_IsLazy(t *testing.T) {
	t.Parallel()

	r, rec := newRecorded(mary)
	it := r.EachIter()
	assert.Empty(t, rec.events)

	require.True(t, it.Next())
	assert.Equal(t, "Mary\n", it.Line())
	assert.Equal(t, []int64{5}, rec.positions())

	pos, err := r.Pos()
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos)
}

func TestLineIterator_Op(t *testing.T) {
	t.Parallel()

	r := New(strings.NewReader(mary), nil)
	assert.Equal(t, OpEach, r.EachIter().Op())
	assert.Equal(t, OpEachLine, r.EachLineIter().Op())
	assert.NotEqual(t, r.EachIter().Op(), r.EachLineIter().Op())
	assert.Equal(t, OpEachByte, r.EachByteIter().Op())
}

func TestLineIterator_AllRestarts(t *testing.T) {
	t.Parallel()

	r, rec := newRecorded(mary)
	it := r.EachIter()

	var first []string
	for line := range it.All() {
		first = append(first, line)
		break
	}
	assert.Equal(t, []string{"Mary\n"}, first)
	assert.Empty(t, rec.events)

	var rest []string
	for line := range it.All() {
		rest = append(rest, line)
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"Had\n", "A little\n", "Lamb"}, rest)
	assert.Equal(t, []int64{9, 18, 22}, rec.positions())

	// Rewinding the stream makes the same iterator produce everything again.
	_, err := r.SetPos(0)
	require.NoError(t, err)
	var again []string
	for line := range it.All() {
		again = append(again, line)
	}
	assert.Len(t, again, 4)
}

func TestLineIterator_CallbackError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := New(strings.NewReader(mary), func(p Progress) error {
		if p.Position > 5 {
			return boom
		}
		return nil
	})
	it := r.EachIter()

	require.True(t, it.Next())
	assert.False(t, it.Next())
	assert.Same(t, boom, it.Err())
	assert.Empty(t, it.Line())
}

func TestByteIterator(t *testing.T) {
	t.Parallel()

	t.Run("Next", func(t *testing.T) {
		t.Parallel()
		r, rec := newRecorded("123")
		it := r.EachByteIter()

		var got []byte
		for it.Next() {
			got = append(got, it.Byte())
		}
		require.NoError(t, it.Err())
		assert.Equal(t, []byte{49, 50, 51}, got)
		assert.Equal(t, []int64{1, 2, 3}, rec.positions())
	})

	t.Run("All", func(t *testing.T) {
		t.Parallel()
		r, rec := newRecorded("123")
		it := r.EachByteIter()

		var got []byte
		for b := range it.All() {
			got = append(got, b)
		}
		require.NoError(t, it.Err())
		assert.Equal(t, []byte{49, 50, 51}, got)
		assert.Equal(t, []int64{1, 2, 3}, rec.positions())
	})

	t.Run("stream error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		r := New(&failingStream{Reader: strings.NewReader("123"), err: boom}, nil)
		it := r.EachByteIter()

		assert.False(t, it.Next())
		assert.Same(t, boom, it.Err())
	})
}
