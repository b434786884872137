package record

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a raw item could not become a Record.
type FailureKind int

const (
	MalformedInput FailureKind = iota + 1
	MissingOrInvalidCreateTime
	MissingOrInvalidCloseTime
	MissingTimeline
	MissingUserID
	MissingActorID
	MissingField
	InvalidEventTime
	NoCloserResolved
)

var kindNames = map[FailureKind]string{
	MalformedInput:             "malformed_input",
	MissingOrInvalidCreateTime: "missing_or_invalid_create_time",
	MissingOrInvalidCloseTime:  "missing_or_invalid_close_time",
	MissingTimeline:            "missing_timeline",
	MissingUserID:              "missing_user_id",
	MissingActorID:             "missing_actor_id",
	MissingField:               "missing_field",
	InvalidEventTime:           "invalid_event_time",
	NoCloserResolved:           "no_closer_resolved",
}

func (k FailureKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("failure_kind(%d)", int(k))
}

// Kinds lists every failure kind in declaration order.
func Kinds() []FailureKind {
	return []FailureKind{
		MalformedInput,
		MissingOrInvalidCreateTime,
		MissingOrInvalidCloseTime,
		MissingTimeline,
		MissingUserID,
		MissingActorID,
		MissingField,
		InvalidEventTime,
		NoCloserResolved,
	}
}

// ParseError is returned for every item that is rejected.
// Field names the offending JSON path when there is one.
type ParseError struct {
	Kind  FailureKind
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets callers match on kind alone: errors.Is(err, &ParseError{Kind: NoCloserResolved}).
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the failure kind from err, or 0 if err is not a ParseError.
func KindOf(err error) FailureKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func fail(kind FailureKind, field string, err error) *ParseError {
	return &ParseError{Kind: kind, Field: field, Err: err}
}
