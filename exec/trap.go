// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import "fmt"

// TrapKind classifies why execution stopped abnormally. The taxonomy
// mirrors the discrete trap reasons a WebAssembly interpreter must be
// able to report separately, since callers (and conformance tests)
// branch on which trap fired, not just that one did.
type TrapKind int

const (
	TrapMisc TrapKind = iota
	TrapDivByZero
	TrapIntegerOverflow
	TrapOutOfBoundsMemoryAccess
	TrapOutOfBoundsDataAccess
	TrapOutOfBoundsTableAccess
	TrapOutOfBoundsElementAccess
	TrapUnreachable
	TrapTooManyFrames
	TrapTooManyStackValues
	TrapCallIndirectOutOfBounds
	TrapCallIndirectSignatureMismatch
	TrapCallIndirectNullElement
	TrapInvalidConversionToInteger
	TrapVoluntaryExit
)

var trapNames = map[TrapKind]string{
	TrapMisc:                          "misc",
	TrapDivByZero:                     "integer divide by zero",
	TrapIntegerOverflow:               "integer overflow",
	TrapOutOfBoundsMemoryAccess:       "out of bounds memory access",
	TrapOutOfBoundsDataAccess:         "out of bounds data access",
	TrapOutOfBoundsTableAccess:        "out of bounds table access",
	TrapOutOfBoundsElementAccess:      "out of bounds element access",
	TrapUnreachable:                   "unreachable executed",
	TrapTooManyFrames:                 "call stack exhausted",
	TrapTooManyStackValues:            "operand stack exhausted",
	TrapCallIndirectOutOfBounds:       "undefined element in call_indirect",
	TrapCallIndirectSignatureMismatch: "indirect call signature mismatch",
	TrapCallIndirectNullElement:       "call_indirect through a null reference",
	TrapInvalidConversionToInteger:    "invalid conversion to integer",
	TrapVoluntaryExit:                 "voluntary exit",
}

func (k TrapKind) String() string {
	if s, ok := trapNames[k]; ok {
		return s
	}
	return fmt.Sprintf("trap(%d)", int(k))
}

// Trap is the error value execution stops with. It is never recovered
// from within the interpreter: the caller of Invoke/Run decides
// whether (and how) to resume.
type Trap struct {
	Kind    TrapKind
	Message string

	// ExitCode is meaningful only when Kind == TrapVoluntaryExit: the
	// payload WASI's proc_exit passes through so the host-side caller
	// of Invoke can observe the process exit status the guest asked
	// for.
	ExitCode int
}

func (t Trap) Error() string {
	if t.Message == "" {
		return "trap: " + t.Kind.String()
	}
	return fmt.Sprintf("trap: %s: %s", t.Kind, t.Message)
}

func trap(kind TrapKind, format string, args ...interface{}) Trap {
	return Trap{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Exit builds the VOLUNTARY_EXIT trap a host function uses to
// terminate execution cleanly with the given exit code (WASI's
// proc_exit), rather than reporting a genuine fault.
func Exit(code int) Trap {
	return Trap{Kind: TrapVoluntaryExit, Message: fmt.Sprintf("exit(%d)", code), ExitCode: code}
}
