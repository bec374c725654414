package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRow_Flatten(t *testing.T) {
	tests := []struct {
		name     string
		row      Row
		expected string
	}{
		{
			name:     "two columns",
			row:      Row{{Column: "code", Value: "E101"}, {Column: "desc", Value: "motor overheat"}},
			expected: "code: E101 | desc: motor overheat",
		},
		{
			name:     "single column",
			row:      Row{{Column: "alarm", Value: "low pressure"}},
			expected: "alarm: low pressure",
		},
		{
			name:     "empty value kept",
			row:      Row{{Column: "a", Value: ""}, {Column: "b", Value: "1"}},
			expected: "a:  | b: 1",
		},
		{
			name:     "empty row",
			row:      Row{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.row.Flatten())
		})
	}
}

func TestRowFromMap_PreservesColumnOrder(t *testing.T) {
	row := RowFromMap([]string{"desc", "code"}, map[string]string{"code": "E101", "desc": "motor overheat"})

	assert.Equal(t, "desc: motor overheat | code: E101", row.Flatten())
}

func TestPromptMode_String(t *testing.T) {
	assert.Equal(t, "normal", ModeNormal.String())
	assert.Equal(t, "summarize", ModeSummarize.String())
	assert.Equal(t, unknownDescription, PromptMode(9).String())
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAssistant.IsValid())
	assert.True(t, RoleSystem.IsValid())
	assert.False(t, Role("tool").IsValid())
}

func TestExtractionKind_String(t *testing.T) {
	assert.Equal(t, "text", ExtractionText.String())
	assert.Equal(t, "table", ExtractionTable.String())
}

func TestDocument_ChunkCount(t *testing.T) {
	doc := Document{Name: "manualA", Chunks: []Chunk{{Position: 0}, {Position: 1}}}
	assert.Equal(t, 2, doc.ChunkCount())
}

func TestSession_AddAndReset(t *testing.T) {
	s := &Session{ID: "s1", Summarize: true}

	s.Add(RoleUser, "motor trips on start")
	s.Add(RoleSystem, "ignored")
	s.Add(RoleAssistant, "check the overload relay")

	assert.Len(t, s.History, 2)
	assert.Equal(t, RoleUser, s.History[0].Role)
	assert.Equal(t, "check the overload relay", s.History[1].Content)

	s.Reset()
	assert.Empty(t, s.History)
	assert.False(t, s.Summarize)
}
