// Package progressio reports read progress on seekable streams.
//
// A Reader wraps a Stream and calls a Callback after every operation that can
// move the stream position: reads of every shape, line and byte iteration,
// seeks and push-backs. The callback receives the position queried from the
// stream after the operation, plus the stream size when it is known. Return
// values and errors from the stream are passed through untouched, so code
// that consumes the stream does not change.
//
// # Basic Usage
//
// Wrap a file and count its lines while printing progress:
//
//	f, err := os.Open("large.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	r := progressio.New(progressio.NewStream(f), func(p progressio.Progress) error {
//	    fmt.Printf("\r%.0f%%", p.Fraction()*100)
//	    return nil
//	})
//
//	var n int
//	err = r.Each(func(string) error {
//	    n++
//	    return nil
//	})
//
// The Reader never closes the stream; its owner does.
//
// # Notifications
//
// Exactly one notification is sent per position-changing call, and one per
// element when iterating. Strict reads (ReadChar, ReadLine, ReadFull,
// ReadByte, ReadRune) that hit the end of the stream return io.EOF and do not
// notify; their lenient counterparts (GetChar, Gets, ReadN, Read) return an
// empty value and do notify. A callback error is returned from the call that
// triggered it.
//
// # Lazy Iteration
//
// EachIter, EachLineIter and EachByteIter return pull-style iterators that
// notify on every element they produce, so progress is reported even when
// lines are drawn on demand:
//
//	it := r.EachIter(progressio.WithSeparator("\r\n"))
//	for line := range it.All() {
//	    handle(line)
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
package progressio
