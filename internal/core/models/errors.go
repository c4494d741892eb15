package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies maneuver failures. Overshoot and misalignment are not
// errors; they restart the approach.
type ErrorKind uint8

const (
	_ ErrorKind = iota
	TargetInvalid
	WrongPartition
	UnexpectedDiscreteState
	NoRouteFound
)

func (k ErrorKind) String() string {
	switch k {
	case TargetInvalid:
		return "target invalid"
	case WrongPartition:
		return "wrong partition"
	case UnexpectedDiscreteState:
		return "unexpected discrete state"
	case NoRouteFound:
		return "no route found"
	default:
		return "unknown error kind"
	}
}

// Error is a classified maneuver failure.
type Error struct {
	Kind   ErrorKind
	Op     string
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Detail)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrTargetInvalid) works
// regardless of Op and Detail.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrTargetInvalid   = &Error{Kind: TargetInvalid}
	ErrWrongPartition  = &Error{Kind: WrongPartition}
	ErrUnexpectedState = &Error{Kind: UnexpectedDiscreteState}
	ErrNoRoute         = &Error{Kind: NoRouteFound}
)

func NewError(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, if it carries one.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
