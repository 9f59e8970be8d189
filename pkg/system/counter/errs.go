package counter

import "errors"

var (
	// ErrPath indicates that a counter file could not be opened or read.
	ErrPath = errors.New("counter: unreadable path")

	// ErrParse indicates that a counter file held something other than the
	// expected number(s).
	ErrParse = errors.New("counter: malformed value")
)
