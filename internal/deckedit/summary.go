package deckedit

import "fmt"

// Summarize returns the one-line description shown to the user for cmd.
func Summarize(cmd Command) string {
	switch c := cmd.(type) {
	case AddCardCommand:
		return "➕ Add new card"
	case UpdateCardCommand:
		return "✏️ Update card " + c.Update.ID
	case DeleteCardCommand:
		return "🗑️ Delete card " + c.ID
	case BulkAddCommand:
		return "➕ Add " + countCards(len(c.Cards))
	case BulkUpdateCommand:
		return "✏️ Update " + countCards(len(c.Updates))
	case BulkDeleteCommand:
		return "🗑️ Delete " + countCards(len(c.IDs))
	default:
		return string(cmd.Kind())
	}
}

func Summaries(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, cmd := range cmds {
		out[i] = Summarize(cmd)
	}
	return out
}

func countCards(n int) string {
	if n == 1 {
		return "1 card"
	}
	return fmt.Sprintf("%d cards", n)
}
