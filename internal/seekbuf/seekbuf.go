// Package seekbuf adds read-ahead buffering to an io.ReadSeeker.
//
// Unlike bufio.Reader, a seekbuf.Reader is itself seekable and reports the
// logical position: Seek(0, io.SeekCurrent) is the offset of the next byte the
// caller will receive, not the offset the underlying source has been read to.
package seekbuf

import (
	"errors"
	"io"
	"io/fs"
	"unicode/utf8"
)

// DefaultSize is the buffer size used when New is given a size that is too
// small to hold a full UTF-8 sequence.
const DefaultSize = 32 * 1024

// maxEmptyReads bounds the number of consecutive (0, nil) reads tolerated
// from the underlying source before giving up with io.ErrNoProgress.
const maxEmptyReads = 100

var (
	// ErrInvalidUnreadByte is returned when UnreadByte is called at offset zero.
	ErrInvalidUnreadByte = errors.New("seekbuf: invalid use of UnreadByte")

	// ErrInvalidUnreadRune is returned when UnreadRune does not directly
	// follow a ReadRune.
	ErrInvalidUnreadRune = errors.New("seekbuf: invalid use of UnreadRune")
)

// Reader buffers reads from an io.ReadSeeker.
//
// The buffer holds the bytes of the source at [start, start+w); the logical
// position is start+r.
type Reader struct {
	rs   io.ReadSeeker
	size int64
	buf  []byte

	start int64
	r, w  int
	known bool // start is valid

	lastRuneSize int // -1 when UnreadRune is not allowed
}

// New returns a Reader over rs with a buffer of the given size. The total
// size of rs is captured once, from a Size() int64 method or from Stat() on
// regular files, and is -1 when neither is available.
func New(rs io.ReadSeeker, size int) *Reader {
	if size < utf8.UTFMax {
		size = DefaultSize
	}
	return &Reader{
		rs:           rs,
		size:         sizeOf(rs),
		buf:          make([]byte, size),
		lastRuneSize: -1,
	}
}

// Size returns the total size of the underlying source, or -1 if unknown.
func (b *Reader) Size() int64 {
	return b.size
}

// Unwrap returns the underlying source. Reading from it directly invalidates
// the buffer.
func (b *Reader) Unwrap() io.ReadSeeker {
	return b.rs
}

// Read implements io.Reader. Reads at least as large as the buffer bypass it
// when it is empty.
func (b *Reader) Read(p []byte) (int, error) {
	b.lastRuneSize = -1
	if len(p) == 0 {
		return 0, nil
	}

	if b.r == b.w {
		if err := b.origin(); err != nil {
			return 0, err
		}
		if len(p) >= len(b.buf) {
			b.reset(b.start + int64(b.r))
			n, err := b.rs.Read(p)
			b.start += int64(n)
			return n, err
		}
		if err := b.fill(); err != nil {
			return 0, err
		}
	}

	n := copy(p, b.buf[b.r:b.w])
	b.r += n
	return n, nil
}

// ReadByte implements io.ByteReader.
func (b *Reader) ReadByte() (byte, error) {
	b.lastRuneSize = -1
	if b.r == b.w {
		if err := b.fill(); err != nil {
			return 0, err
		}
	}
	c := b.buf[b.r]
	b.r++
	return c, nil
}

// UnreadByte implements io.ByteScanner. It steps back one byte, seeking the
// source if the byte is no longer buffered.
func (b *Reader) UnreadByte() error {
	b.lastRuneSize = -1
	if b.r > 0 {
		b.r--
		return nil
	}

	pos, err := b.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if pos <= 0 {
		return ErrInvalidUnreadByte
	}
	_, err = b.Seek(pos-1, io.SeekStart)
	return err
}

// ReadRune implements io.RuneReader. Invalid or truncated sequences decode as
// utf8.RuneError with size 1.
func (b *Reader) ReadRune() (rune, int, error) {
	b.lastRuneSize = -1
	for b.r+utf8.UTFMax > b.w && !utf8.FullRune(b.buf[b.r:b.w]) {
		if err := b.fill(); err != nil {
			if b.r == b.w {
				return 0, 0, err
			}
			break
		}
	}

	ch, size := rune(b.buf[b.r]), 1
	if ch >= utf8.RuneSelf {
		ch, size = utf8.DecodeRune(b.buf[b.r:b.w])
	}
	b.r += size
	b.lastRuneSize = size
	return ch, size, nil
}

// UnreadRune implements io.RuneScanner.
func (b *Reader) UnreadRune() error {
	if b.lastRuneSize < 0 || b.r < b.lastRuneSize {
		return ErrInvalidUnreadRune
	}
	b.r -= b.lastRuneSize
	b.lastRuneSize = -1
	return nil
}

// Seek implements io.Seeker. Targets inside the buffered window move the
// read cursor without touching the source. Seek(0, io.SeekCurrent) only
// reports the position, so UnreadRune still works after it.
func (b *Reader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent && offset == 0 {
		if err := b.origin(); err != nil {
			return 0, err
		}
		return b.start + int64(b.r), nil
	}
	b.lastRuneSize = -1

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		if err := b.origin(); err != nil {
			return 0, err
		}
		abs = b.start + int64(b.r) + offset
	default:
		pos, err := b.rs.Seek(offset, whence)
		if err != nil {
			return 0, err
		}
		b.reset(pos)
		return pos, nil
	}

	if b.known && abs >= b.start && abs <= b.start+int64(b.w) {
		b.r = int(abs - b.start)
		return abs, nil
	}

	pos, err := b.rs.Seek(abs, io.SeekStart)
	if err != nil {
		return 0, err
	}
	b.reset(pos)
	return pos, nil
}

// origin records the source position the first time it is needed.
func (b *Reader) origin() error {
	if b.known {
		return nil
	}
	pos, err := b.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	b.reset(pos)
	return nil
}

func (b *Reader) reset(pos int64) {
	b.start, b.r, b.w, b.known = pos, 0, 0, true
}

// fill discards consumed bytes and reads more from the source. It returns an
// error only when no bytes were added.
func (b *Reader) fill() error {
	if err := b.origin(); err != nil {
		return err
	}
	if b.r > 0 {
		copy(b.buf, b.buf[b.r:b.w])
		b.start += int64(b.r)
		b.w -= b.r
		b.r = 0
	}

	for range maxEmptyReads {
		n, err := b.rs.Read(b.buf[b.w:])
		b.w += n
		if n > 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return io.ErrNoProgress
}

func sizeOf(rs io.ReadSeeker) int64 {
	switch v := rs.(type) {
	case interface{ Size() int64 }:
		return v.Size()
	case interface{ Stat() (fs.FileInfo, error) }:
		info, err := v.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return -1
		}
		return info.Size()
	}
	return -1
}
