package deckedit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type arguments map[string]json.RawMessage

// Decode checks a raw command against the argument schema of its kind.
// Unknown argument keys are ignored. Errors are *SchemaError with Index 0;
// DecodeAll fills in the position.
func Decode(raw RawCommand) (Command, error) {
	fail := func(field, reason string) error {
		return &SchemaError{Command: raw.Name, Field: field, Reason: reason}
	}

	var args arguments
	trimmed := bytes.TrimSpace(raw.Arguments)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fail("", "arguments must be a JSON object")
	}
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, fail("", "arguments must be a JSON object")
	}

	switch raw.Name {
	case AddCard:
		card, err := decodeNewCard(args, "")
		if err != nil {
			return nil, fail(err.field, err.reason)
		}
		return AddCardCommand{Card: card}, nil

	case UpdateCard:
		u, err := decodeUpdate(args, "")
		if err != nil {
			return nil, fail(err.field, err.reason)
		}
		return UpdateCardCommand{Update: u}, nil

	case DeleteCard:
		id, err := requiredString(args, "", "id")
		if err != nil {
			return nil, fail(err.field, err.reason)
		}
		return DeleteCardCommand{ID: id}, nil

	case BulkAdd:
		items, err := objectList(args, "cards")
		if err != nil {
			return nil, fail(err.field, err.reason)
		}
		cards := make([]NewCard, 0, len(items))
		for i, item := range items {
			card, err := decodeNewCard(item, fmt.Sprintf("cards[%d].", i))
			if err != nil {
				return nil, fail(err.field, err.reason)
			}
			cards = append(cards, card)
		}
		return BulkAddCommand{Cards: cards}, nil

	case BulkDelete:
		idsRaw, ok := present(args, "ids")
		if !ok {
			return nil, fail("ids", "missing required argument")
		}
		var ids []string
		if err := json.Unmarshal(idsRaw, &ids); err != nil {
			return nil, fail("ids", "must be a list of strings")
		}
		if len(ids) == 0 {
			return nil, fail("ids", "must not be empty")
		}
		for i, id := range ids {
			if strings.TrimSpace(id) == "" {
				return nil, fail(fmt.Sprintf("ids[%d]", i), "must not be empty")
			}
		}
		return BulkDeleteCommand{IDs: ids}, nil

	case BulkUpdate:
		items, err := objectList(args, "updates")
		if err != nil {
			return nil, fail(err.field, err.reason)
		}
		updates := make([]CardUpdate, 0, len(items))
		for i, item := range items {
			u, err := decodeUpdate(item, fmt.Sprintf("updates[%d].", i))
			if err != nil {
				return nil, fail(err.field, err.reason)
			}
			updates = append(updates, u)
		}
		return BulkUpdateCommand{Updates: updates}, nil

	case ChangeDifficulty:
		return nil, fail("", "unsupported command")

	default:
		return nil, fail("", "unknown command")
	}
}

// DecodeAll decodes cmds in order and stops at the first failure.
func DecodeAll(raws []RawCommand) ([]Command, error) {
	cmds := make([]Command, 0, len(raws))
	for i, raw := range raws {
		cmd, err := Decode(raw)
		if err != nil {
			if se, ok := err.(*SchemaError); ok {
				se.Index = i
			}
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// Encode renders a command back to its wire form.
func Encode(cmd Command) (RawCommand, error) {
	var payload any
	switch c := cmd.(type) {
	case AddCardCommand:
		payload = c.Card
	case UpdateCardCommand:
		payload = c.Update
	case DeleteCardCommand:
		payload = struct {
			ID string `json:"id"`
		}{c.ID}
	case BulkAddCommand:
		payload = struct {
			Cards []NewCard `json:"cards"`
		}{c.Cards}
	case BulkDeleteCommand:
		payload = struct {
			IDs []string `json:"ids"`
		}{c.IDs}
	case BulkUpdateCommand:
		payload = struct {
			Updates []CardUpdate `json:"updates"`
		}{c.Updates}
	default:
		return RawCommand{}, fmt.Errorf("cannot encode command %T", cmd)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return RawCommand{}, err
	}
	return RawCommand{Name: cmd.Kind(), Arguments: b}, nil
}

type fieldError struct {
	field  string
	reason string
}

// present returns the raw value of key, treating JSON null as absent.
func present(args arguments, key string) (json.RawMessage, bool) {
	raw, ok := args[key]
	if !ok {
		return nil, false
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

// optionalString reads the first of keys that is present. An empty string
// is a valid value.
func optionalString(args arguments, prefix string, keys ...string) (*string, *fieldError) {
	_, s, err := lookupString(args, prefix, keys)
	return s, err
}

// requiredString reads the first of keys that is present; later keys are
// accepted aliases. Blank values are rejected.
func requiredString(args arguments, prefix string, keys ...string) (string, *fieldError) {
	key, s, err := lookupString(args, prefix, keys)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", &fieldError{prefix + keys[0], "missing required argument"}
	}
	if strings.TrimSpace(*s) == "" {
		return "", &fieldError{prefix + key, "must not be empty"}
	}
	return *s, nil
}

func lookupString(args arguments, prefix string, keys []string) (string, *string, *fieldError) {
	for _, key := range keys {
		raw, ok := present(args, key)
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return key, nil, &fieldError{prefix + key, "must be a string"}
		}
		return key, &s, nil
	}
	return "", nil, nil
}

func decodeNewCard(args arguments, prefix string) (NewCard, *fieldError) {
	var card NewCard
	if raw, ok := present(args, "id"); ok {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return card, &fieldError{prefix + "id", "must be a string"}
		}
		card.ID = strings.TrimSpace(id)
	}
	front, err := requiredString(args, prefix, "front", "question")
	if err != nil {
		return card, err
	}
	back, err := requiredString(args, prefix, "back", "answer")
	if err != nil {
		return card, err
	}
	card.Front, card.Back = front, back
	return card, nil
}

func decodeUpdate(args arguments, prefix string) (CardUpdate, *fieldError) {
	var u CardUpdate
	id, err := requiredString(args, prefix, "id")
	if err != nil {
		return u, err
	}
	front, err := optionalString(args, prefix, "front", "question")
	if err != nil {
		return u, err
	}
	back, err := optionalString(args, prefix, "back", "answer")
	if err != nil {
		return u, err
	}
	u.ID, u.Front, u.Back = id, front, back
	return u, nil
}

func objectList(args arguments, key string) ([]arguments, *fieldError) {
	raw, ok := present(args, key)
	if !ok {
		return nil, &fieldError{key, "missing required argument"}
	}
	var items []arguments
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &fieldError{key, "must be a list of objects"}
	}
	if len(items) == 0 {
		return nil, &fieldError{key, "must not be empty"}
	}
	for i, item := range items {
		if item == nil {
			return nil, &fieldError{fmt.Sprintf("%s[%d]", key, i), "must be an object"}
		}
	}
	return items, nil
}
