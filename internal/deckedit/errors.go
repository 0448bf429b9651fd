package deckedit

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse means the model returned nothing that could be read as a
// command.
var ErrEmptyResponse = errors.New("model returned no usable function call")

// MalformedResponseError reports a response whose structure is wrong: not an
// object or array of calls, or a call without name or arguments.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed model response: " + e.Reason
}

// JSONDecodeError reports arguments that are not valid JSON.
type JSONDecodeError struct {
	Err error
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("invalid JSON in model response: %v", e.Err)
}

func (e *JSONDecodeError) Unwrap() error { return e.Err }

// SchemaError reports a command whose arguments do not match its kind.
type SchemaError struct {
	Index   int
	Command Name
	Field   string
	Reason  string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("command %d (%s): %s", e.Index, e.Command, e.Reason)
	}
	return fmt.Sprintf("command %d (%s): %s: %s", e.Index, e.Command, e.Field, e.Reason)
}

// UnknownIDError is raised before a proposal is stored when a command refers
// to a card the snapshot does not contain.
type UnknownIDError struct {
	ID string
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("ID %s not in deck", e.ID)
}

// UnknownCardError is raised by the interpreter when an update targets a card
// missing from the snapshot it was given.
type UnknownCardError struct {
	ID string
}

func (e *UnknownCardError) Error() string {
	return fmt.Sprintf("card %s does not exist in the deck snapshot", e.ID)
}

// IndexOutOfRangeError reports an accepted index that does not select a
// command of the proposal.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("accepted index %d out of range [0, %d)", e.Index, e.Len)
}
