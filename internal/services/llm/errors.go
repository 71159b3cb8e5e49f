package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind tags why a model call failed. Only timeouts are retried.
type ErrorKind int

const (
	KindTimeout ErrorKind = iota + 1
	KindConnection
	KindProtocol
	KindDecode
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindDecode:
		return "decode"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed on a new attempt.
func (k ErrorKind) Retryable() bool {
	return k == KindTimeout
}

// Error is returned by every Generator when no reply could be produced.
type Error struct {
	Kind       ErrorKind
	Op         string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind carried by err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return 0
}

// classifyTransportError tags an error returned while sending a request or
// reading its body. ctx is the caller's context, used to tell a per-attempt
// timeout apart from the caller giving up.
func classifyTransportError(ctx context.Context, op string, err error) *Error {
	if ctx.Err() != nil {
		return &Error{Kind: KindCanceled, Op: op, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	return &Error{Kind: KindConnection, Op: op, Err: err}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
