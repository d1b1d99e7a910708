package progressio

// UnknownTotal is the Total reported when the stream has no introspectable
// size.
const UnknownTotal int64 = -1

// Progress is a single notification, sent after an operation that can move
// the stream position.
type Progress struct {
	// Position is the stream offset queried after the operation completed.
	Position int64
	// Total is the stream size captured when the Reader was created, or
	// UnknownTotal.
	Total int64
}

// Known reports whether the total size is available.
func (p Progress) Known() bool {
	return p.Total >= 0
}

// Fraction returns Position/Total, or 0 when the total is unknown. An empty
// stream counts as complete.
func (p Progress) Fraction() float64 {
	switch {
	case !p.Known():
		return 0
	case p.Total == 0:
		return 1
	default:
		return float64(p.Position) / float64(p.Total)
	}
}

// Callback is called after each position-changing operation. A non-nil
// error is returned to the caller of that operation unchanged.
type Callback func(Progress) error

// OnPosition adapts a function that only wants the current position.
func OnPosition(fn func(pos int64)) Callback {
	return func(p Progress) error {
		fn(p.Position)
		return nil
	}
}

// OnProgress adapts a function that takes the position and the total
// (UnknownTotal when absent).
func OnProgress(fn func(pos, total int64)) Callback {
	return func(p Progress) error {
		fn(p.Position, p.Total)
		return nil
	}
}
