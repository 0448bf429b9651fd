package deckedit_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/deckedit"
	"github.com/vytor/studyflash/internal/llm"
)

func TestOutline(t *testing.T) {
	out := deckedit.Outline(deck(card("1", "Q1", "A1"), card("abc", "Q2", "A2")))
	assert.Equal(t, "Current deck:\n1. [1] Q1 → A1\n2. [abc] Q2 → A2", out)

	assert.Equal(t, "The deck is empty.", deckedit.Outline(deck()))
}

func TestBuildRequest_KeepsRecentHistory(t *testing.T) {
	var history []llm.Message
	for i := 0; i < 6; i++ {
		role := llm.RoleUser
		if i%2 == 1 {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}
	history = append(history, llm.Message{Role: "system", Content: "ignore me"}, llm.Message{Role: llm.RoleUser, Content: " "})

	req := deckedit.BuildRequest("add a card", deck(card("1", "Q", "A")), history, 3)

	require.Len(t, req.Messages, 5)
	assert.Equal(t, llm.RoleAssistant, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "[1] Q → A")
	assert.Equal(t, "turn 3", req.Messages[1].Content)
	assert.Equal(t, "turn 5", req.Messages[3].Content)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "add a card"}, req.Messages[4])
	assert.Equal(t, deckedit.SystemPrompt(), req.System)
	assert.Equal(t, deckedit.ChatTemperature, req.Temperature)
	assert.Empty(t, req.RequireFunction)
}

func TestBuildRequest_ZeroHistoryLimit(t *testing.T) {
	req := deckedit.BuildRequest("hi", deck(), []llm.Message{{Role: llm.RoleUser, Content: "old"}}, 0)
	assert.Len(t, req.Messages, 2)
}

func TestTools_OffersSixCommands(t *testing.T) {
	var names []string
	for _, fn := range deckedit.Tools() {
		names = append(names, fn.Name)
		assert.Equal(t, "object", fn.Parameters["type"])
	}
	assert.Equal(t, []string{"add_card", "update_card", "delete_card", "bulk_add", "bulk_delete", "bulk_update"}, names)
	assert.NotContains(t, names, string(deckedit.ChangeDifficulty))
}

func TestSummaries(t *testing.T) {
	got := deckedit.Summaries([]deckedit.Command{
		deckedit.UpdateCardCommand{Update: deckedit.CardUpdate{ID: "1", Front: strPtr("x")}},
		deckedit.DeleteCardCommand{ID: "2"},
		deckedit.AddCardCommand{Card: deckedit.NewCard{Front: "Q", Back: "A"}},
		deckedit.BulkAddCommand{Cards: []deckedit.NewCard{{Front: "a", Back: "b"}, {Front: "c", Back: "d"}}},
		deckedit.BulkDeleteCommand{IDs: []string{"3"}},
		deckedit.BulkUpdateCommand{Updates: []deckedit.CardUpdate{{ID: "1"}, {ID: "2"}, {ID: "3"}}},
	})

	assert.Equal(t, []string{
		"✏️ Update card 1",
		"🗑️ Delete card 2",
		"➕ Add new card",
		"➕ Add 2 cards",
		"🗑️ Delete 1 card",
		"✏️ Update 3 cards",
	}, got)
}

func TestValidateIDs(t *testing.T) {
	s := deck(card("1", "Q1", "A1"))

	t.Run("unknown bulk delete id", func(t *testing.T) {
		err := deckedit.ValidateIDs(s, []deckedit.Command{deckedit.BulkDeleteCommand{IDs: []string{"9"}}})
		var unknown *deckedit.UnknownIDError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "9", unknown.ID)
		assert.Equal(t, "ID 9 not in deck", err.Error())
	})

	t.Run("id added earlier in the batch", func(t *testing.T) {
		err := deckedit.ValidateIDs(s, []deckedit.Command{
			deckedit.AddCardCommand{Card: deckedit.NewCard{ID: "new", Front: "Q", Back: "A"}},
			deckedit.UpdateCardCommand{Update: deckedit.CardUpdate{ID: "new", Back: strPtr("B")}},
			deckedit.DeleteCardCommand{ID: "1"},
		})
		assert.NoError(t, err)
	})

	t.Run("update before the add", func(t *testing.T) {
		err := deckedit.ValidateIDs(s, []deckedit.Command{
			deckedit.UpdateCardCommand{Update: deckedit.CardUpdate{ID: "new", Back: strPtr("B")}},
			deckedit.AddCardCommand{Card: deckedit.NewCard{ID: "new", Front: "Q", Back: "A"}},
		})
		var unknown *deckedit.UnknownIDError
		assert.ErrorAs(t, err, &unknown)
	})

	t.Run("update after delete in the batch", func(t *testing.T) {
		cmds := []deckedit.Command{
			deckedit.DeleteCardCommand{ID: "1"},
			deckedit.UpdateCardCommand{Update: deckedit.CardUpdate{ID: "1", Front: strPtr("F")}},
		}
		err := deckedit.ValidateIDs(s, cmds)
		var unknown *deckedit.UnknownIDError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "1", unknown.ID)
	})

	t.Run("bulk update after bulk delete in the batch", func(t *testing.T) {
		err := deckedit.ValidateIDs(s, []deckedit.Command{
			deckedit.BulkDeleteCommand{IDs: []string{"1"}},
			deckedit.BulkUpdateCommand{Updates: []deckedit.CardUpdate{{ID: "1", Back: strPtr("B")}}},
		})
		var unknown *deckedit.UnknownIDError
		assert.ErrorAs(t, err, &unknown)
	})

	t.Run("repeated delete and re-add", func(t *testing.T) {
		cmds := []deckedit.Command{
			deckedit.DeleteCardCommand{ID: "1"},
			deckedit.BulkDeleteCommand{IDs: []string{"1"}},
			deckedit.AddCardCommand{Card: deckedit.NewCard{ID: "1", Front: "Q", Back: "A"}},
			deckedit.UpdateCardCommand{Update: deckedit.CardUpdate{ID: "1", Back: strPtr("B")}},
		}
		require.NoError(t, deckedit.ValidateIDs(s, cmds))

		_, err := deckedit.NewInterpreter().Apply(s, cmds)
		assert.NoError(t, err)
	})

	t.Run("snapshot ids are not modified", func(t *testing.T) {
		_ = deckedit.ValidateIDs(s, []deckedit.Command{
			deckedit.AddCardCommand{Card: deckedit.NewCard{ID: "zzz", Front: "Q", Back: "A"}},
		})
		assert.NotContains(t, s.IDs(), "zzz")
	})
}
