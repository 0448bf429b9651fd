package deckedit

import (
	"fmt"
	"strings"

	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/models"
)

// ChatTemperature is the sampling temperature used for edit requests.
const ChatTemperature = 0.5

const systemPrompt = `You are a flashcard editor. Reply ONLY with a JSON array of function calls that match the provided schema. No prose.
Even if you emit a single function call, wrap it in a one-element JSON array.
Refer to existing cards by the id shown in brackets in the deck outline. Never invent ids for cards you update or delete.

Examples:
User: Make cards 1 and 2 more detailed
Assistant:
[{"name": "bulk_update", "arguments": {"updates": [
  {"id": "1", "front": "Define photosynthesis in detail."},
  {"id": "2", "front": "Explain the role of chlorophyll in energy transfer."}
]}}]

User: Add two cards about thermodynamics
Assistant:
[{"name": "bulk_add", "arguments": {"cards": [
  {"front": "Define entropy.", "back": "A measure of system disorder."},
  {"front": "State the 2nd law of thermodynamics.", "back": "Entropy of an isolated system never decreases."}
]}}]

User: Remove cards 3 and 4
Assistant:
[{"name": "bulk_delete", "arguments": {"ids": ["3", "4"]}}]`

// SystemPrompt returns the instruction sent with every edit request.
func SystemPrompt() string { return systemPrompt }

// Outline renders the snapshot as one line per card so the model can refer to
// cards by id.
func Outline(snapshot models.DeckSnapshot) string {
	if len(snapshot.Cards) == 0 {
		return "The deck is empty."
	}
	var b strings.Builder
	b.WriteString("Current deck:\n")
	for i, c := range snapshot.Cards {
		fmt.Fprintf(&b, "%d. [%s] %s → %s\n", i+1, c.ID, c.Front, c.Back)
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildRequest assembles the model request for one chat turn. Only the last
// historyLimit turns of history are sent; turns with another role or no
// content are dropped.
func BuildRequest(message string, snapshot models.DeckSnapshot, history []llm.Message, historyLimit int) llm.Request {
	kept := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if (m.Role != llm.RoleUser && m.Role != llm.RoleAssistant) || strings.TrimSpace(m.Content) == "" {
			continue
		}
		kept = append(kept, m)
	}
	if historyLimit >= 0 && len(kept) > historyLimit {
		kept = kept[len(kept)-historyLimit:]
	}

	msgs := make([]llm.Message, 0, len(kept)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: Outline(snapshot)})
	msgs = append(msgs, kept...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	return llm.Request{
		System:      systemPrompt,
		Messages:    msgs,
		Functions:   Tools(),
		Temperature: ChatTemperature,
	}
}

// Tools returns the function definitions offered to the model, one per
// supported command.
func Tools() []llm.FunctionDefinition {
	str := map[string]any{"type": "string"}
	newCard := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":    str,
			"front": str,
			"back":  str,
		},
		"required": []string{"front", "back"},
	}
	update := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":    str,
			"front": str,
			"back":  str,
		},
		"required": []string{"id"},
	}
	object := func(props map[string]any, required ...string) map[string]any {
		return map[string]any{"type": "object", "properties": props, "required": required}
	}
	array := func(items map[string]any) map[string]any {
		return map[string]any{"type": "array", "items": items, "minItems": 1}
	}

	return []llm.FunctionDefinition{
		{Name: string(AddCard), Description: "Create one card. Omit id to get a fresh one.", Parameters: newCard},
		{Name: string(UpdateCard), Description: "Change the front and/or back of an existing card.", Parameters: update},
		{Name: string(DeleteCard), Description: "Remove one card.", Parameters: object(map[string]any{"id": str}, "id")},
		{Name: string(BulkAdd), Description: "Create several cards.", Parameters: object(map[string]any{"cards": array(newCard)}, "cards")},
		{Name: string(BulkDelete), Description: "Remove several cards.", Parameters: object(map[string]any{"ids": array(str)}, "ids")},
		{Name: string(BulkUpdate), Description: "Change several existing cards.", Parameters: object(map[string]any{"updates": array(update)}, "updates")},
	}
}
