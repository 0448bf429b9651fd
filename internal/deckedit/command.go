// Package deckedit implements the propose-then-apply edit protocol for decks:
// the command schema offered to the model, decoding and validation of what
// the model sends back, and the interpreter that applies accepted commands to
// a deck snapshot.
package deckedit

import "encoding/json"

// Name identifies a command kind on the wire.
type Name string

const (
	AddCard    Name = "add_card"
	UpdateCard Name = "update_card"
	DeleteCard Name = "delete_card"
	BulkAdd    Name = "bulk_add"
	BulkDelete Name = "bulk_delete"
	BulkUpdate Name = "bulk_update"

	// ChangeDifficulty is part of the wire vocabulary but is never offered to
	// the model and has no interpreter semantics.
	ChangeDifficulty Name = "change_difficulty"
)

// RawCommand is the wire form of one command, as sent to and stored for the
// client: {"name": ..., "arguments": {...}}.
type RawCommand struct {
	Name      Name            `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Command is a decoded, shape-checked edit. The concrete types below are the
// only implementations.
type Command interface {
	Kind() Name
	isCommand()
}

// NewCard is a card to create. An empty ID asks the interpreter for a fresh one.
type NewCard struct {
	ID    string `json:"id,omitempty"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// CardUpdate changes only the fields that are non-nil.
type CardUpdate struct {
	ID    string  `json:"id"`
	Front *string `json:"front,omitempty"`
	Back  *string `json:"back,omitempty"`
}

type AddCardCommand struct {
	Card NewCard
}

type UpdateCardCommand struct {
	Update CardUpdate
}

type DeleteCardCommand struct {
	ID string
}

type BulkAddCommand struct {
	Cards []NewCard
}

type BulkDeleteCommand struct {
	IDs []string
}

type BulkUpdateCommand struct {
	Updates []CardUpdate
}

func (AddCardCommand) Kind() Name    { return AddCard }
func (UpdateCardCommand) Kind() Name { return UpdateCard }
func (DeleteCardCommand) Kind() Name { return DeleteCard }
func (BulkAddCommand) Kind() Name    { return BulkAdd }
func (BulkDeleteCommand) Kind() Name { return BulkDelete }
func (BulkUpdateCommand) Kind() Name { return BulkUpdate }

func (AddCardCommand) isCommand()    {}
func (UpdateCardCommand) isCommand() {}
func (DeleteCardCommand) isCommand() {}
func (BulkAddCommand) isCommand()    {}
func (BulkDeleteCommand) isCommand() {}
func (BulkUpdateCommand) isCommand() {}

// ProposalPacket is what a chat turn returns to the client. HumanSummary[i]
// describes Commands[i].
type ProposalPacket struct {
	ProposalID   string       `json:"proposalId"`
	Commands     []RawCommand `json:"commands"`
	HumanSummary []string     `json:"humanSummary"`
}
