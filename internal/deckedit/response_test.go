package deckedit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/deckedit"
	"github.com/vytor/studyflash/internal/llm"
)

func TestParseResponse_NamedCall(t *testing.T) {
	raws, err := deckedit.ParseResponse(&llm.Response{Calls: []llm.FunctionCall{
		{Name: "bulk_delete", Arguments: `{"ids":["9"]}`},
	}})

	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, deckedit.BulkDelete, raws[0].Name)
	assert.JSONEq(t, `{"ids":["9"]}`, string(raws[0].Arguments))
}

func TestParseResponse_UnnamedCallCarriesBatch(t *testing.T) {
	raws, err := deckedit.ParseResponse(&llm.Response{Calls: []llm.FunctionCall{
		{Arguments: `[{"name":"delete_card","arguments":{"id":"1"}},{"name":"add_card","arguments":"{\"front\":\"Q\",\"back\":\"A\"}"}]`},
	}})

	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, deckedit.DeleteCard, raws[0].Name)
	assert.Equal(t, deckedit.AddCard, raws[1].Name)
	assert.JSONEq(t, `{"front":"Q","back":"A"}`, string(raws[1].Arguments))
}

func TestParseResponse_UnnamedCallSingleObject(t *testing.T) {
	raws, err := deckedit.ParseResponse(&llm.Response{Calls: []llm.FunctionCall{
		{Arguments: `{"name":"delete_card","arguments":{"id":"1"}}`},
	}})

	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, deckedit.DeleteCard, raws[0].Name)
}

func TestParseResponse_TextWithCodeFence(t *testing.T) {
	raws, err := deckedit.ParseResponse(&llm.Response{
		Content: "```json\n[{\"name\":\"bulk_delete\",\"arguments\":{\"ids\":[\"3\",\"4\"]}}]\n```",
	})

	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, deckedit.BulkDelete, raws[0].Name)
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		resp  *llm.Response
		check func(t *testing.T, err error)
	}{
		{
			name: "nil response",
			resp: nil,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, deckedit.ErrEmptyResponse)
			},
		},
		{
			name: "blank text",
			resp: &llm.Response{Content: "  \n"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, deckedit.ErrEmptyResponse)
			},
		},
		{
			name: "empty array",
			resp: &llm.Response{Content: "[]"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, deckedit.ErrEmptyResponse)
			},
		},
		{
			name: "prose instead of JSON",
			resp: &llm.Response{Content: "Sure, I removed card 3."},
			check: func(t *testing.T, err error) {
				var je *deckedit.JSONDecodeError
				assert.ErrorAs(t, err, &je)
			},
		},
		{
			name: "named call with broken arguments",
			resp: &llm.Response{Calls: []llm.FunctionCall{{Name: "delete_card", Arguments: `{"id":`}}},
			check: func(t *testing.T, err error) {
				var je *deckedit.JSONDecodeError
				assert.ErrorAs(t, err, &je)
			},
		},
		{
			name: "scalar JSON",
			resp: &llm.Response{Content: `"delete everything"`},
			check: func(t *testing.T, err error) {
				var me *deckedit.MalformedResponseError
				assert.ErrorAs(t, err, &me)
			},
		},
		{
			name: "call without name",
			resp: &llm.Response{Content: `[{"arguments":{"id":"1"}}]`},
			check: func(t *testing.T, err error) {
				var me *deckedit.MalformedResponseError
				require.ErrorAs(t, err, &me)
				assert.Contains(t, me.Reason, "missing a name")
			},
		},
		{
			name: "call without arguments",
			resp: &llm.Response{Content: `[{"name":"delete_card"}]`},
			check: func(t *testing.T, err error) {
				var me *deckedit.MalformedResponseError
				require.ErrorAs(t, err, &me)
				assert.Contains(t, me.Reason, "missing arguments")
			},
		},
		{
			name: "function call with nothing",
			resp: &llm.Response{Calls: []llm.FunctionCall{{}}},
			check: func(t *testing.T, err error) {
				var me *deckedit.MalformedResponseError
				assert.ErrorAs(t, err, &me)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := deckedit.ParseResponse(tt.resp)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
