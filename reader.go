package progressio

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"unicode/utf8"

	"github.com/meigma/progressio/internal/lines"
)

// Reader decorates a Stream and calls its Callback after every operation
// that can move the stream position.
//
// The Reader borrows the stream: it never closes it, and the caller stays
// responsible for the stream's lifecycle. A Reader is not safe for
// concurrent use.
type Reader struct {
	stream   Stream
	callback Callback
	total    int64
	logger   *slog.Logger

	// runeSize is the byte length of the character returned by the last
	// ReadRune, GetChar or ReadChar, and 0 after any other operation.
	runeSize int
}

// Compile-time interface implementation checks.
var (
	_ io.ReadSeeker  = (*Reader)(nil)
	_ io.ByteScanner = (*Reader)(nil)
	_ io.RuneScanner = (*Reader)(nil)
	_ Stream         = (*Reader)(nil)
)

// New wraps s. cb may be nil and can be set later with SetCallback.
//
// Unless WithTotal or WithoutTotal is given, the total size is captured once
// from s: from a Size() int64 method, or from Stat() when s is a regular
// file. Streams with neither report UnknownTotal.
func New(s Stream, cb Callback, opts ...Option) *Reader {
	cfg := readerConfig{total: UnknownTotal}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	r := &Reader{
		stream:   s,
		callback: cb,
		total:    cfg.total,
		logger:   cfg.logger,
	}
	if !cfg.totalSet {
		r.total = r.streamTotal()
	}
	return r
}

// SetCallback replaces the callback. A nil callback disables notifications.
// Operations performed before registration are not replayed.
func (r *Reader) SetCallback(cb Callback) {
	r.callback = cb
}

// Callback returns the registered callback, or nil.
func (r *Reader) Callback() Callback {
	return r.callback
}

// Total returns the size captured at construction, or UnknownTotal.
func (r *Reader) Total() int64 {
	return r.total
}

// Unwrap returns the decorated stream, for operations outside the
// instrumented surface. Operations on it do not notify.
func (r *Reader) Unwrap() Stream {
	return r.stream
}

// Pos returns the current position without notifying.
func (r *Reader) Pos() (int64, error) {
	return r.stream.Seek(0, io.SeekCurrent)
}

// Read implements io.Reader. It notifies after every call that returned
// data, nil, or io.EOF; a failed read that returned nothing does not notify.
func (r *Reader) Read(p []byte) (int, error) {
	r.runeSize = 0
	n, err := r.stream.Read(p)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		return n, err
	}
	if nerr := r.notify(); nerr != nil {
		return n, nerr
	}
	return n, err
}

// ReadAll reads the rest of the stream and notifies once.
func (r *Reader) ReadAll() ([]byte, error) {
	r.runeSize = 0
	data, err := io.ReadAll(r.stream)
	if err != nil {
		return data, err
	}
	if err := r.notify(); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadN reads up to n bytes. Reaching the end of the stream is not an error:
// fewer bytes are returned, nil when none were left, and the notification
// still fires.
func (r *Reader) ReadN(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeCount
	}

	buf, err := r.readUpTo(n)
	if err != nil {
		return buf, err
	}
	if len(buf) == 0 && n > 0 {
		buf = nil
	}
	if err := r.notify(); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadFull reads exactly n bytes. At the end of the stream it returns
// io.EOF and does not notify.
//
// A partial read returns the bytes that were available together with
// io.ErrUnexpectedEOF. The stream position has then moved past those bytes,
// but no notification is sent for it.
func (r *Reader) ReadFull(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeCount
	}

	buf, err := r.readUpTo(n)
	if err != nil {
		return buf, err
	}
	switch {
	case len(buf) == n:
	case len(buf) == 0:
		return buf, io.EOF
	default:
		return buf, io.ErrUnexpectedEOF
	}
	if err := r.notify(); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadByte implements io.ByteReader. io.EOF does not notify.
func (r *Reader) ReadByte() (byte, error) {
	r.runeSize = 0
	c, err := r.stream.ReadByte()
	if err != nil {
		return c, err
	}
	if err := r.notify(); err != nil {
		return 0, err
	}
	return c, nil
}

// ReadRune implements io.RuneReader. io.EOF does not notify.
func (r *Reader) ReadRune() (rune, int, error) {
	r.runeSize = 0
	ch, size, err := r.stream.ReadRune()
	if err != nil {
		return ch, size, err
	}
	r.runeSize = size
	if err := r.notify(); err != nil {
		return 0, 0, err
	}
	return ch, size, nil
}

// GetChar reads one character. At the end of the stream it returns "" and a
// nil error, and still notifies.
func (r *Reader) GetChar() (string, error) {
	ch, err := r.readChar()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if err := r.notify(); err != nil {
		return "", err
	}
	return ch, nil
}

// ReadChar reads one character. At the end of the stream it returns io.EOF
// and does not notify.
func (r *Reader) ReadChar() (string, error) {
	ch, err := r.readChar()
	if err != nil {
		return "", err
	}
	if err := r.notify(); err != nil {
		return "", err
	}
	return ch, nil
}

// Gets reads one line, including its separator. At the end of the stream it
// returns "" and a nil error, and still notifies.
func (r *Reader) Gets(opts ...LineOption) (string, error) {
	r.runeSize = 0
	cfg := newLineConfig(opts)
	line, err := lines.Read(r.stream, cfg.sep, cfg.limit)
	if err != nil && !errors.Is(err, io.EOF) {
		return line, err
	}
	if err := r.notify(); err != nil {
		return "", err
	}
	return line, nil
}

// ReadLine reads one line, including its separator. At the end of the
// stream it returns io.EOF and does not notify.
func (r *Reader) ReadLine(opts ...LineOption) (string, error) {
	r.runeSize = 0
	cfg := newLineConfig(opts)
	line, err := lines.Read(r.stream, cfg.sep, cfg.limit)
	if err != nil {
		return line, err
	}
	if err := r.notify(); err != nil {
		return "", err
	}
	return line, nil
}

// ReadLines reads every remaining line and notifies once, after the last.
func (r *Reader) ReadLines(opts ...LineOption) ([]string, error) {
	r.runeSize = 0
	cfg := newLineConfig(opts)
	all, err := lines.ReadAll(r.stream, cfg.sep, cfg.limit)
	if err != nil {
		return all, err
	}
	if err := r.notify(); err != nil {
		return nil, err
	}
	return all, nil
}

// Seek implements io.Seeker and notifies with the resulting position.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	r.runeSize = 0
	pos, err := r.stream.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	if err := r.notify(); err != nil {
		return 0, err
	}
	return pos, nil
}

// SetPos moves to the absolute position pos and notifies.
func (r *Reader) SetPos(pos int64) (int64, error) {
	return r.Seek(pos, io.SeekStart)
}

// UnreadByte implements io.ByteScanner. The notification reports the
// decremented position.
func (r *Reader) UnreadByte() error {
	r.runeSize = 0
	if err := r.stream.UnreadByte(); err != nil {
		return err
	}
	return r.notify()
}

// UnreadRune implements io.RuneScanner. It steps back over the character
// returned by the preceding ReadRune, GetChar or ReadChar and notifies with
// the decremented position. Without such a read it defers to the stream's
// UnreadRune, which normally fails.
func (r *Reader) UnreadRune() error {
	size := r.runeSize
	r.runeSize = 0
	if size == 0 {
		if err := r.stream.UnreadRune(); err != nil {
			return err
		}
		return r.notify()
	}

	// Stepping back by offset keeps working after notify has queried the
	// position, which clears the stream's own unread state.
	if _, err := r.stream.Seek(-int64(size), io.SeekCurrent); err != nil {
		return err
	}
	return r.notify()
}

// readChar reads one UTF-8 character. Bytes that do not start a valid
// sequence are returned as they are rather than as utf8.RuneError.
func (r *Reader) readChar() (string, error) {
	r.runeSize = 0
	ch, size, err := r.stream.ReadRune()
	if err != nil {
		return "", err
	}
	if ch != utf8.RuneError || size != 1 {
		r.runeSize = size
		return string(ch), nil
	}

	if err := r.stream.UnreadRune(); err != nil {
		return "", err
	}
	c, err := r.stream.ReadByte()
	if err != nil {
		return "", err
	}
	r.runeSize = 1
	return string([]byte{c}), nil
}

// readUpTo reads until n bytes or the end of the stream, growing the buffer
// as data arrives instead of allocating n bytes up front.
func (r *Reader) readUpTo(n int) ([]byte, error) {
	r.runeSize = 0
	if n == 0 {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r.stream, int64(n)))
}

// notify reports the current position to the callback, if one is set.
func (r *Reader) notify() error {
	if r.callback == nil {
		return nil
	}

	pos, err := r.stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := r.callback(Progress{Position: pos, Total: r.total}); err != nil {
		r.logger.Debug("progress callback failed", "position", pos, "total", r.total, "error", err)
		return err
	}
	return nil
}

// streamTotal captures the stream size if the stream exposes one.
func (r *Reader) streamTotal() int64 {
	switch s := r.stream.(type) {
	case interface{ Size() int64 }:
		size := s.Size()
		if size < 0 {
			r.logger.Debug("stream size unknown")
			return UnknownTotal
		}
		r.logger.Debug("captured stream size", "total", size)
		return size
	case interface{ Stat() (fs.FileInfo, error) }:
		info, err := s.Stat()
		if err != nil {
			r.logger.Debug("stat stream", "error", err)
			return UnknownTotal
		}
		if !info.Mode().IsRegular() {
			return UnknownTotal
		}
		r.logger.Debug("captured stream size", "total", info.Size())
		return info.Size()
	}
	return UnknownTotal
}
