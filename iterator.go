package progressio

import (
	"errors"
	"io"
	"iter"

	"github.com/meigma/progressio/internal/lines"
)

// Op identifies the iteration method a lazy iterator was created by.
type Op string

// Iteration methods.
const (
	OpEach     Op = "each"
	OpEachLine Op = "each_line"
	OpEachByte Op = "each_byte"
)

// Each calls fn for every remaining line, then notifies with the position
// after that line. If fn returns ErrStop, Each stops and returns nil; any
// other error from fn is returned as is. In both cases the line fn rejected
// is not reported. A nil fn returns ErrNilHandler without reading; use
// EachIter to pull lines without a handler.
func (r *Reader) Each(fn func(line string) error, opts ...LineOption) error {
	return r.eachLine(newLineConfig(opts), fn)
}

// EachLine is an alias for Each.
func (r *Reader) EachLine(fn func(line string) error, opts ...LineOption) error {
	return r.eachLine(newLineConfig(opts), fn)
}

// EachIter returns a lazy iterator over the remaining lines, for callers that
// pull lines instead of passing a handler. It reports OpEach.
func (r *Reader) EachIter(opts ...LineOption) *LineIterator {
	return &LineIterator{r: r, op: OpEach, cfg: newLineConfig(opts)}
}

// EachLineIter is EachIter reporting OpEachLine.
func (r *Reader) EachLineIter(opts ...LineOption) *LineIterator {
	return &LineIterator{r: r, op: OpEachLine, cfg: newLineConfig(opts)}
}

// EachByte calls fn for every remaining byte, then notifies. ErrStop and
// handler errors behave as in Each, and so does a nil fn.
func (r *Reader) EachByte(fn func(b byte) error) error {
	if fn == nil {
		return ErrNilHandler
	}
	for {
		c, ok, err := r.nextByte()
		if err != nil || !ok {
			return err
		}
		if err := fn(c); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
		if err := r.notify(); err != nil {
			return err
		}
	}
}

// EachByteIter returns a lazy iterator over the remaining bytes.
func (r *Reader) EachByteIter() *ByteIterator {
	return &ByteIterator{r: r}
}

func (r *Reader) eachLine(cfg lineConfig, fn func(line string) error) error {
	if fn == nil {
		return ErrNilHandler
	}
	if cfg.limit == 0 {
		return ErrInvalidLimit
	}
	for {
		line, ok, err := r.nextLine(cfg)
		if err != nil || !ok {
			return err
		}
		if err := fn(line); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
		if err := r.notify(); err != nil {
			return err
		}
	}
}

// nextLine reads one line without notifying. ok is false at the end of the
// stream.
func (r *Reader) nextLine(cfg lineConfig) (string, bool, error) {
	r.runeSize = 0
	line, err := lines.Read(r.stream, cfg.sep, cfg.limit)
	switch {
	case errors.Is(err, io.EOF):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return line, true, nil
}

// nextByte reads one byte without notifying. ok is false at the end of the
// stream.
func (r *Reader) nextByte() (byte, bool, error) {
	r.runeSize = 0
	c, err := r.stream.ReadByte()
	switch {
	case errors.Is(err, io.EOF):
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	return c, true, nil
}

// LineIterator pulls lines from a Reader one at a time. Every line it
// produces is reported to the Reader's callback exactly as Each would report
// it.
//
//	it := r.EachIter()
//	for it.Next() {
//	    process(it.Line())
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
type LineIterator struct {
	r    *Reader
	op   Op
	cfg  lineConfig
	line string
	err  error
	done bool
}

// Op reports the method that created the iterator.
func (it *LineIterator) Op() Op {
	return it.op
}

// Next reads the next line and notifies. It returns false at the end of the
// stream or on error.
func (it *LineIterator) Next() bool {
	if it.done {
		return false
	}
	if it.cfg.limit == 0 {
		return it.fail(ErrInvalidLimit)
	}

	line, ok, err := it.r.nextLine(it.cfg)
	if err != nil || !ok {
		return it.fail(err)
	}
	if err := it.r.notify(); err != nil {
		return it.fail(err)
	}
	it.line = line
	return true
}

// Line returns the line produced by the last successful Next.
func (it *LineIterator) Line() string {
	return it.line
}

// Err returns the first error encountered, or nil at a clean end of stream.
func (it *LineIterator) Err() error {
	return it.err
}

// All returns the lines as a range-over-func sequence. Each element is
// yielded before it is reported, as with Each; breaking out of the loop
// leaves that line unreported. Ranging again restarts iteration at the
// stream's current position. Check Err after the loop.
func (it *LineIterator) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		it.done, it.err = false, nil
		err := it.r.eachLine(it.cfg, func(line string) error {
			it.line = line
			if !yield(line) {
				return ErrStop
			}
			return nil
		})
		it.err = err
	}
}

func (it *LineIterator) fail(err error) bool {
	it.line, it.err, it.done = "", err, true
	return false
}

// ByteIterator pulls bytes from a Reader one at a time, notifying once per
// byte.
type ByteIterator struct {
	r    *Reader
	c    byte
	err  error
	done bool
}

// Op reports OpEachByte.
func (it *ByteIterator) Op() Op {
	return OpEachByte
}

// Next reads the next byte and notifies. It returns false at the end of the
// stream or on error.
func (it *ByteIterator) Next() bool {
	if it.done {
		return false
	}

	c, ok, err := it.r.nextByte()
	if err != nil || !ok {
		return it.fail(err)
	}
	if err := it.r.notify(); err != nil {
		return it.fail(err)
	}
	it.c = c
	return true
}

// Byte returns the byte produced by the last successful Next.
func (it *ByteIterator) Byte() byte {
	return it.c
}

// Err returns the first error encountered, or nil at a clean end of stream.
func (it *ByteIterator) Err() error {
	return it.err
}

// All returns the bytes as a range-over-func sequence with the same
// semantics as LineIterator.All.
func (it *ByteIterator) All() iter.Seq[byte] {
	return func(yield func(byte) bool) {
		it.done, it.err = false, nil
		it.err = it.r.EachByte(func(c byte) error {
			it.c = c
			if !yield(c) {
				return ErrStop
			}
			return nil
		})
	}
}

func (it *ByteIterator) fail(err error) bool {
	it.c, it.err, it.done = 0, err, true
	return false
}
