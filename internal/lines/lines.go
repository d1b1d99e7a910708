// Package lines splits a byte source into separator-terminated lines.
//
// Lines are read one byte at a time so the source is never consumed past the
// end of the line being returned. Callers that need the source position to
// match what they have been handed (progress reporting, resumable reads) rely
// on this.
package lines

import (
	"bytes"
	"errors"
	"io"
)

// NoLimit disables the per-line byte limit.
const NoLimit = -1

// Read reads from r until sep has been consumed, limit bytes have been read,
// or r is exhausted, and returns the bytes read including the separator.
//
// An empty sep reads to the end of r. A negative limit means no limit and a
// zero limit returns "" without touching r. When r is already exhausted Read
// returns "", io.EOF; a final line without a trailing separator is returned
// with a nil error. Any other error from r is returned together with the
// bytes read before it.
func Read(r io.ByteReader, sep string, limit int) (string, error) {
	if limit == 0 {
		return "", nil
	}

	sepBytes := []byte(sep)
	var buf []byte
	for limit < 0 || len(buf) < limit {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				return string(buf), nil
			}
			return string(buf), err
		}
		buf = append(buf, c)
		if len(sepBytes) > 0 && bytes.HasSuffix(buf, sepBytes) {
			break
		}
	}
	return string(buf), nil
}

// ReadAll reads every remaining line of r. It returns an empty, non-nil slice
// when r is already exhausted.
func ReadAll(r io.ByteReader, sep string, limit int) ([]string, error) {
	if limit == 0 {
		return nil, ErrZeroLimit
	}

	out := []string{}
	for {
		line, err := Read(r, sep, limit)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, line)
	}
}

// ErrZeroLimit is returned when a zero limit is used with an operation that
// reads more than one line, which could never make progress.
var ErrZeroLimit = errors.New("lines: zero limit")
