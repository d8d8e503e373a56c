package errcode

import "errors"

// Code is a stable, caller-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	Timeout       Code = "timeout"

	// Resource ownership.
	UnknownPin         Code = "unknown_pin"
	PinInUse           Code = "pin_in_use"
	UnknownPeripheral  Code = "unknown_peripheral"
	PeripheralInUse    Code = "peripheral_in_use"
	UnknownBoard       Code = "unknown_board"
	BoardNotConfigured Code = "board_not_configured"

	// Serial.
	InvalidBaud     Code = "invalid_baud"
	BaudTooHigh     Code = "baud_too_high"
	DivisorOverflow Code = "divisor_overflow"

	// Analog.
	InvalidChannel     Code = "invalid_channel"
	AlreadyInitialised Code = "already_initialised"
	NotInitialised     Code = "not_initialised"
	NotReady           Code = "not_ready"
	ChannelBusy        Code = "channel_busy"

	// Persistence.
	OutOfRange     Code = "out_of_range"
	StorageFailure Code = "storage_failure"

	// Motor safety.
	Interlock Code = "interlock"

	Error Code = "error" // generic fallback
)

// E keeps an operation name and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.X) match a wrapped E carrying X.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap returns an *E for op with code c and cause err.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// New returns an *E for op with code c and a message.
func New(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}

// Of extracts a Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}
