package deckedit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vytor/studyflash/internal/llm"
)

// ParseResponse extracts the raw command list from a model response.
//
// A function call with a name is one command. A call without a name carries a
// JSON array (or a single object) of {name, arguments} in its arguments. When
// the model answered with text instead, the text is read the same way after
// stripping markdown code fences.
func ParseResponse(resp *llm.Response) ([]RawCommand, error) {
	if resp == nil || (len(resp.Calls) == 0 && strings.TrimSpace(resp.Content) == "") {
		return nil, ErrEmptyResponse
	}

	var raws []RawCommand
	if len(resp.Calls) > 0 {
		for i, call := range resp.Calls {
			args := strings.TrimSpace(call.Arguments)
			if call.Name == "" && args == "" {
				return nil, &MalformedResponseError{Reason: fmt.Sprintf("function call %d has neither name nor arguments", i)}
			}
			if call.Name != "" {
				if err := checkJSON([]byte(args)); err != nil {
					return nil, err
				}
				raws = append(raws, RawCommand{Name: Name(call.Name), Arguments: json.RawMessage(args)})
				continue
			}
			batch, err := parseBatch([]byte(args))
			if err != nil {
				return nil, err
			}
			raws = append(raws, batch...)
		}
	} else {
		batch, err := parseBatch([]byte(stripCodeFence(resp.Content)))
		if err != nil {
			return nil, err
		}
		raws = batch
	}

	if len(raws) == 0 {
		return nil, ErrEmptyResponse
	}
	return raws, nil
}

func checkJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &JSONDecodeError{Err: err}
	}
	return nil
}

func parseBatch(data []byte) ([]RawCommand, error) {
	data = bytes.TrimSpace(data)
	if err := checkJSON(data); err != nil {
		return nil, err
	}

	var items []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, &JSONDecodeError{Err: err}
		}
	case '{':
		items = []json.RawMessage{data}
	default:
		return nil, &MalformedResponseError{Reason: "expected a JSON array or object of function calls"}
	}

	raws := make([]RawCommand, 0, len(items))
	for i, item := range items {
		raw, err := parseCall(i, item)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func parseCall(i int, item json.RawMessage) (RawCommand, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return RawCommand{}, &MalformedResponseError{Reason: fmt.Sprintf("call %d is not an object", i)}
	}

	var name string
	if raw, ok := fields["name"]; !ok || json.Unmarshal(raw, &name) != nil || name == "" {
		return RawCommand{}, &MalformedResponseError{Reason: fmt.Sprintf("call %d is missing a name", i)}
	}

	args, ok := fields["arguments"]
	if !ok {
		return RawCommand{}, &MalformedResponseError{Reason: fmt.Sprintf("call %d (%s) is missing arguments", i, name)}
	}
	args = bytes.TrimSpace(args)

	// Some models encode arguments as a JSON string holding the object.
	if len(args) > 0 && args[0] == '"' {
		var inner string
		if err := json.Unmarshal(args, &inner); err != nil {
			return RawCommand{}, &JSONDecodeError{Err: err}
		}
		if err := checkJSON([]byte(inner)); err != nil {
			return RawCommand{}, err
		}
		args = json.RawMessage(strings.TrimSpace(inner))
	}

	return RawCommand{Name: Name(name), Arguments: args}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
