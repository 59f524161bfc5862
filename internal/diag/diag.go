// Package diag reports broken internal invariants.
//
// A Fault is terminal: the machine renders it on the LCD and stops. It carries
// the same information the firmware assert screen shows, a message plus the
// source location that detected the violation.
package diag

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Fault describes an invariant violation detected at File:Line.
type Fault struct {
	Msg  string
	File string // base name only, the LCD has room for 14 characters
	Line int
}

func (f *Fault) Error() string {
	return fmt.Sprintf("assert: %s (%s:%d)", f.Msg, f.File, f.Line)
}

// Assert returns nil when cond holds, otherwise a *Fault located at the caller.
func Assert(cond bool, msg string) error {
	if cond {
		return nil
	}
	return newFault(2, msg)
}

// Assertf is Assert with a formatted message.
func Assertf(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return newFault(2, fmt.Sprintf(format, args...))
}

func newFault(skip int, msg string) *Fault {
	f := &Fault{Msg: msg, File: "?"}
	if _, file, line, ok := runtime.Caller(skip); ok {
		f.File = filepath.Base(file)
		f.Line = line
	}
	return f
}
