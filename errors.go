package progressio

import (
	"errors"

	"github.com/meigma/progressio/internal/lines"
)

// Sentinel errors. Errors from the underlying stream and from callbacks are
// never wrapped; these are the only errors the package creates.
var (
	// ErrStop can be returned by an Each, EachLine or EachByte handler to end
	// iteration early. The iteration method then returns nil.
	ErrStop = errors.New("progressio: stop iteration")

	// ErrInvalidLimit indicates a zero line limit was passed to an operation
	// that reads more than one line.
	ErrInvalidLimit = lines.ErrZeroLimit

	// ErrNilHandler indicates a nil handler was passed to Each, EachLine or
	// EachByte.
	ErrNilHandler = errors.New("progressio: nil handler")

	// ErrNegativeCount indicates a negative byte count was passed to ReadN or
	// ReadFull.
	ErrNegativeCount = errors.New("progressio: negative count")
)
