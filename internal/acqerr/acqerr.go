// Package acqerr is the daemon's error taxonomy: every component reports
// failures as an *Error tagged with one of the Kind values below, so the
// supervisor can decide whether to contain, abort-and-restart, or abort the
// process without inspecting component-specific error types.
package acqerr

import "fmt"

// Kind classifies a failure for the propagation policy described in the
// component design: some kinds are contained and logged, some abort the
// current acquisition cycle for the supervisor to restart, and some are
// fatal to the whole process.
type Kind int

const (
	// Io is a transport failure other than a read timeout.
	Io Kind = iota
	// ParseGrammar is a line that matched no SKSTACK grammar production.
	ParseGrammar
	// BinaryDecode is a malformed ECHONET Lite frame.
	BinaryDecode
	// UnknownProperty is an EPC the property catalogue does not recognize.
	UnknownProperty
	// CommandFail is a FAIL response to an outbound SKSTACK command.
	CommandFail
	// SessionDisconnected is a lost or expired PANA session.
	SessionDisconnected
	// InvalidCredential is a route-B ID or password of the wrong length.
	InvalidCredential
	// InvalidMac is a MAC address that cannot be parsed or derived from.
	InvalidMac
	// TimeArithmetic is a failure computing a recorded-at timestamp.
	TimeArithmetic
	// Schedule is a failure in the cron-style transmit schedule.
	Schedule
	// Sink is a persistence failure.
	Sink
	// Config is missing or invalid daemon configuration.
	Config
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case ParseGrammar:
		return "parse-grammar"
	case BinaryDecode:
		return "binary-decode"
	case UnknownProperty:
		return "unknown-property"
	case CommandFail:
		return "command-fail"
	case SessionDisconnected:
		return "session-disconnected"
	case InvalidCredential:
		return "invalid-credential"
	case InvalidMac:
		return "invalid-mac"
	case TimeArithmetic:
		return "time-arithmetic"
	case Schedule:
		return "schedule"
	case Sink:
		return "sink"
	case Config:
		return "config"
	default:
		return "unknown"
	}
}

// Error is the taxonomy-tagged error every component returns. Code is only
// meaningful for CommandFail, where it carries the device's two-digit
// error code.
type Error struct {
	Kind Kind
	Code byte
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == CommandFail {
		return fmt.Sprintf("%s: ER%02X", e.Kind, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a taxonomy error wrapping cause.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// NewCommandFail builds the CommandFail variant carrying the device's
// error code.
func NewCommandFail(code byte) *Error {
	return &Error{Kind: CommandFail, Code: code}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
	} else {
		return false
	}
	return e.Kind == kind
}

// Contained reports whether kind is one the receiver loop logs and
// discards rather than propagating, per the error handling design
// (ParseGrammar, BinaryDecode, UnknownProperty, and Sink are contained).
func Contained(kind Kind) bool {
	switch kind {
	case ParseGrammar, BinaryDecode, UnknownProperty, Sink:
		return true
	default:
		return false
	}
}

// Fatal reports whether kind must abort the whole process rather than
// trigger a supervisor restart (InvalidCredential, InvalidMac, Config).
func Fatal(kind Kind) bool {
	switch kind {
	case InvalidCredential, InvalidMac, Config:
		return true
	default:
		return false
	}
}
