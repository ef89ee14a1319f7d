package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/piwi3910/BarCut/internal/milp"
)

// Kind classifies engine failures.
type Kind int

const (
	KindInternal    Kind = iota // Unexpected failure
	KindInput                   // Rejected input
	KindInfeasible              // Not enough stock for the order
	KindInvariant               // A stage produced a result that contradicts an earlier one
	KindTimeout                 // Solver budget exhausted
	KindTooComplex              // Search space above the configured limit
	KindUnsupported             // Request outside what the selected strategy handles
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindInfeasible:
		return "infeasible"
	case KindInvariant:
		return "invariant"
	case KindTimeout:
		return "timeout"
	case KindTooComplex:
		return "too_complex"
	case KindUnsupported:
		return "unsupported"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to the status code a REST surface would use.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInput, KindUnsupported:
		return http.StatusBadRequest
	case KindInfeasible:
		return http.StatusUnprocessableEntity
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindTooComplex:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// User-facing messages.
const (
	MsgNegative        = "Negative numbers are not allowed"
	MsgZeroLength      = "Lengths must be greater than zero"
	MsgTooPrecise      = "Lengths may have at most %d decimal places"
	MsgEmptyStock      = "The warehouse is empty. Enter at least one quantity greater than zero"
	MsgEmptyDemand     = "The order is empty. Enter at least one quantity greater than zero"
	MsgUnreachable     = "Pieces of length %s cannot be cut from the available stock"
	MsgInfeasible      = "Cutting is impossible: not enough stock in the warehouse"
	MsgInvariant       = "Internal error: the minimum-waste solution could not be redistributed"
	MsgTimeout         = "The solver time limit was exceeded. Reduce the number of lengths or raise the limit"
	MsgTooComplex      = "Too many cutting patterns (more than %d). Reduce the number of piece lengths"
	MsgDivisorSingle   = "The divisor strategy supports a single piece length only"
	MsgNoZeroWaste     = "No zero-waste cutting found"
	MsgInvalidNumber   = "Invalid number %q in field %s"
	MsgUnpairedField   = "Field %s has no matching %s field"
	MsgUnknownStrategy = "Unknown strategy %q"
	MsgInternal        = "Internal error"
)

// Error is a classified engine failure. Message is safe to show to users.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func inputError(format string, args ...any) *Error {
	return newError(KindInput, fmt.Sprintf(format, args...), nil)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// Message converts err into the string shown to users. Foreign errors never
// leak their details.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}
	return MsgInternal
}

// solverError classifies an error returned by a milp.Solver. infeasible is
// the error to report when the model has no solution.
func solverError(err error, infeasible *Error) error {
	switch {
	case errors.Is(err, milp.ErrInfeasible):
		return infeasible
	case errors.Is(err, milp.ErrTimeLimit), errors.Is(err, milp.ErrNodeLimit),
		errors.Is(err, context.DeadlineExceeded):
		return newError(KindTimeout, MsgTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return newError(KindInternal, MsgInternal, err)
	}
}
