package progressio

import (
	"io"

	"github.com/meigma/progressio/internal/seekbuf"
)

// Stream is the read and seek surface a Reader decorates.
//
// Position is queried with Seek(0, io.SeekCurrent). *strings.Reader and
// *bytes.Reader satisfy Stream directly; use NewStream for sources such as
// *os.File that only implement io.ReadSeeker.
type Stream interface {
	io.Reader
	io.Seeker
	io.ByteScanner
	io.RuneScanner
}

// NewStream adapts rs into a Stream. A source that already is a Stream is
// returned unchanged; anything else gets a read-ahead buffer that keeps
// reporting the logical position, so progress never runs ahead of what the
// caller has consumed. The buffer also exposes the size of sized sources.
func NewStream(rs io.ReadSeeker) Stream {
	if s, ok := rs.(Stream); ok {
		return s
	}
	return seekbuf.New(rs, seekbuf.DefaultSize)
}
