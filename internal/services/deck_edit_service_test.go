package services

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/deckedit"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/proposal"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	assert.Equal(t, status, appErr.Status)
}

func twoCardDeck() models.DeckSnapshot {
	return models.DeckSnapshot{Cards: []models.FlashCard{
		{ID: "1", Front: "What is ATP?", Back: "Energy currency"},
		{ID: "2", Front: "What is DNA?", Back: "Genetic code"},
	}}
}

func newTestDeckEditService(t *testing.T, client llm.Client) (*deckEditService, *proposal.MemoryStore) {
	store := proposal.NewMemoryStore(time.Hour, time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	next := 0
	interp := deckedit.NewInterpreter(deckedit.WithIDGenerator(func() string {
		next++
		return fmt.Sprintf("new-%d", next)
	}))
	svc := NewDeckEditService(client, store, interp, 10).(*deckEditService)
	svc.newID = func() string { return "proposal-1" }
	return svc, store
}

func TestChat_StoresProposal(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		last := req.Messages[len(req.Messages)-1]
		return last.Role == llm.RoleUser && last.Content == "make card 1 harder and add two cards"
	})).Return(mocks.TextResponse(`[
		{"name": "update_card", "arguments": {"id": "1", "front": "Explain how ATP stores energy."}},
		{"name": "bulk_add", "arguments": {"cards": [{"front": "a", "back": "b"}, {"question": "c", "answer": "d"}]}}
	]`), nil)

	svc, store := newTestDeckEditService(t, client)
	packet, err := svc.Chat(context.Background(), 7, ChatInput{
		Message:  "make card 1 harder and add two cards",
		Snapshot: twoCardDeck(),
	})
	require.NoError(t, err)

	assert.Equal(t, "proposal-1", packet.ProposalID)
	require.Len(t, packet.Commands, 2)
	assert.Equal(t, deckedit.UpdateCard, packet.Commands[0].Name)
	assert.Equal(t, deckedit.BulkAdd, packet.Commands[1].Name)
	assert.JSONEq(t, `{"cards":[{"front":"a","back":"b"},{"front":"c","back":"d"}]}`, string(packet.Commands[1].Arguments))
	assert.Equal(t, []string{"✏️ Update card 1", "➕ Add 2 cards"}, packet.HumanSummary)

	stored, err := store.Get(context.Background(), "proposal-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.UserID)
	assert.Len(t, stored.Commands, 2)
	client.AssertExpectations(t)
}

func TestChat_UnknownIDIsRejected(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return(mocks.CallResponse("delete_card", `{"id": "99"}`), nil)

	svc, store := newTestDeckEditService(t, client)
	_, err := svc.Chat(context.Background(), 7, ChatInput{Message: "delete card 99", Snapshot: twoCardDeck()})

	assertStatus(t, err, http.StatusBadRequest)
	var unknown *deckedit.UnknownIDError
	require.True(t, stderrors.As(err, &unknown))
	assert.Equal(t, "99", unknown.ID)
	assert.Zero(t, store.Len())
}

func TestChat_AddedIDCanBeUpdatedInSameBatch(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(mocks.TextResponse(
		`[{"name":"add_card","arguments":{"id":"x","front":"f","back":"b"}},{"name":"update_card","arguments":{"id":"x","back":"B"}}]`,
	), nil)

	svc, _ := newTestDeckEditService(t, client)
	packet, err := svc.Chat(context.Background(), 7, ChatInput{Message: "add and fix", Snapshot: twoCardDeck()})
	require.NoError(t, err)
	assert.Len(t, packet.Commands, 2)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response *llm.Response
		llmErr   error
		status   int
	}{
		{"llm failure", nil, stderrors.New("connection reset"), http.StatusBadGateway},
		{"empty response", &llm.Response{}, nil, http.StatusBadRequest},
		{"bad json", mocks.TextResponse(`[{"name": "add_card", "arguments": {`), nil, http.StatusBadRequest},
		{"schema", mocks.CallResponse("add_card", `{"front": "only front"}`), nil, http.StatusBadRequest},
		{"unsupported", mocks.CallResponse("change_difficulty", `{"level": "hard"}`), nil, http.StatusBadRequest},
		{"update after delete", mocks.TextResponse(`[
			{"name": "delete_card", "arguments": {"id": "1"}},
			{"name": "update_card", "arguments": {"id": "1", "front": "again"}}
		]`), nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mocks.MockLLMClient)
			if tt.llmErr != nil {
				client.On("Complete", mock.Anything, mock.Anything).Return(nil, tt.llmErr)
			} else {
				client.On("Complete", mock.Anything, mock.Anything).Return(tt.response, nil)
			}

			svc, store := newTestDeckEditService(t, client)
			_, err := svc.Chat(context.Background(), 7, ChatInput{Message: "do something", Snapshot: twoCardDeck()})
			assertStatus(t, err, tt.status)
			assert.Zero(t, store.Len())
		})
	}
}

func TestChat_UpdateWithIDOnlyIsAccepted(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(mocks.CallResponse("update_card", `{"id": "2"}`), nil)

	svc, store := newTestDeckEditService(t, client)
	packet, err := svc.Chat(context.Background(), 7, ChatInput{Message: "touch card 2", Snapshot: twoCardDeck()})
	require.NoError(t, err)
	assert.Equal(t, []string{"✏️ Update card 2"}, packet.HumanSummary)
	assert.Equal(t, 1, store.Len())

	deck, err := svc.Apply(context.Background(), 7, ApplyInput{ProposalID: packet.ProposalID, AcceptedIndexes: []int{0}, Snapshot: twoCardDeck()})
	require.NoError(t, err)
	assert.Equal(t, twoCardDeck(), deck)
}

func TestChat_LLMFailureIsLoggedWithErrorField(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, stderrors.New("connection reset"))

	var buf bytes.Buffer
	ctx := logger.NewContext(context.Background(), logger.New(logger.WithOutput(&buf), logger.WithColors(false)))

	svc, _ := newTestDeckEditService(t, client)
	_, err := svc.Chat(ctx, 7, ChatInput{Message: "add a card", Snapshot: twoCardDeck()})
	assertStatus(t, err, http.StatusBadGateway)
	assert.Contains(t, buf.String(), "llm request failed error=connection reset")
}

func TestChat_EmptyMessage(t *testing.T) {
	client := new(mocks.MockLLMClient)
	svc, _ := newTestDeckEditService(t, client)

	_, err := svc.Chat(context.Background(), 7, ChatInput{Message: "   "})
	assertStatus(t, err, http.StatusBadRequest)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func putProposal(t *testing.T, store proposal.Store, userID int64, cmds ...deckedit.Command) {
	t.Helper()
	raws := make([]deckedit.RawCommand, 0, len(cmds))
	for _, c := range cmds {
		raw, err := deckedit.Encode(c)
		require.NoError(t, err)
		raws = append(raws, raw)
	}
	require.NoError(t, store.Put(context.Background(), &proposal.Proposal{ID: "proposal-1", UserID: userID, Commands: raws}))
}

func TestApply_AcceptedSubsetInGivenOrder(t *testing.T) {
	svc, store := newTestDeckEditService(t, new(mocks.MockLLMClient))
	front := "Updated"
	putProposal(t, store, 7,
		deckedit.DeleteCardCommand{ID: "2"},
		deckedit.UpdateCardCommand{Update: deckedit.CardUpdate{ID: "1", Front: &front}},
		deckedit.AddCardCommand{Card: deckedit.NewCard{Front: "f", Back: "b"}},
	)

	result, err := svc.Apply(context.Background(), 7, ApplyInput{
		ProposalID:      "proposal-1",
		AcceptedIndexes: []int{2, 1},
		Snapshot:        twoCardDeck(),
	})
	require.NoError(t, err)
	assert.Equal(t, []models.FlashCard{
		{ID: "1", Front: "Updated", Back: "Energy currency"},
		{ID: "2", Front: "What is DNA?", Back: "Genetic code"},
		{ID: "new-1", Front: "f", Back: "b"},
	}, result.Cards)

	_, err = store.Get(context.Background(), "proposal-1")
	assert.ErrorIs(t, err, proposal.ErrNotFound)
}

func TestApply_IsSingleUse(t *testing.T) {
	svc, store := newTestDeckEditService(t, new(mocks.MockLLMClient))
	putProposal(t, store, 7, deckedit.DeleteCardCommand{ID: "1"})

	in := ApplyInput{ProposalID: "proposal-1", AcceptedIndexes: []int{0}, Snapshot: twoCardDeck()}
	_, err := svc.Apply(context.Background(), 7, in)
	require.NoError(t, err)

	_, err = svc.Apply(context.Background(), 7, in)
	assertStatus(t, err, http.StatusNotFound)
}

func TestApply_IndexOutOfRangeKeepsProposal(t *testing.T) {
	svc, store := newTestDeckEditService(t, new(mocks.MockLLMClient))
	putProposal(t, store, 7, deckedit.DeleteCardCommand{ID: "1"})

	_, err := svc.Apply(context.Background(), 7, ApplyInput{
		ProposalID: "proposal-1", AcceptedIndexes: []int{0, 5}, Snapshot: twoCardDeck(),
	})
	assertStatus(t, err, http.StatusBadRequest)
	var outOfRange *deckedit.IndexOutOfRangeError
	assert.True(t, stderrors.As(err, &outOfRange))

	_, err = store.Get(context.Background(), "proposal-1")
	assert.NoError(t, err)
}

func TestApply_OtherUsersProposal(t *testing.T) {
	svc, store := newTestDeckEditService(t, new(mocks.MockLLMClient))
	putProposal(t, store, 7, deckedit.DeleteCardCommand{ID: "1"})

	_, err := svc.Apply(context.Background(), 8, ApplyInput{ProposalID: "proposal-1", AcceptedIndexes: []int{0}})
	assertStatus(t, err, http.StatusNotFound)
}

func TestApply_UnknownProposal(t *testing.T) {
	svc, _ := newTestDeckEditService(t, new(mocks.MockLLMClient))

	_, err := svc.Apply(context.Background(), 7, ApplyInput{ProposalID: "missing"})
	assertStatus(t, err, http.StatusNotFound)
}

func TestApply_DivergedSnapshotConflicts(t *testing.T) {
	svc, store := newTestDeckEditService(t, new(mocks.MockLLMClient))
	back := "new back"
	putProposal(t, store, 7, deckedit.UpdateCardCommand{Update: deckedit.CardUpdate{ID: "2", Back: &back}})

	diverged := models.DeckSnapshot{Cards: []models.FlashCard{{ID: "1", Front: "f", Back: "b"}}}
	_, err := svc.Apply(context.Background(), 7, ApplyInput{
		ProposalID: "proposal-1", AcceptedIndexes: []int{0}, Snapshot: diverged,
	})
	assertStatus(t, err, http.StatusConflict)
}

func TestApply_NothingAcceptedReturnsSnapshot(t *testing.T) {
	svc, store := newTestDeckEditService(t, new(mocks.MockLLMClient))
	putProposal(t, store, 7, deckedit.DeleteCardCommand{ID: "1"})

	result, err := svc.Apply(context.Background(), 7, ApplyInput{
		ProposalID: "proposal-1", AcceptedIndexes: []int{}, Snapshot: twoCardDeck(),
	})
	require.NoError(t, err)
	assert.Equal(t, twoCardDeck(), result)
}
