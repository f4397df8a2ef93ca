package engine

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() ObjectSchema {
	return ObjectSchema{
		Title: "probe",
		Properties: []Property{
			{Name: "reasoning", Type: "string", Required: true},
			{Name: "mood", Type: "string", Enum: []string{"HAPPY", "SAD"}, Required: true},
			{Name: "tags", Type: "array", ItemsType: "string"},
			{Name: "nickname", Type: "string", Nullable: true},
			{Name: "done", Type: "boolean"},
		},
	}
}

func TestObjectSchemaKeepsPropertyOrder(t *testing.T) {
	out := testSchema().JSON()

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed), "schema must be valid JSON")

	idx := func(name string) int { return strings.Index(out, `"`+name+`":{`) }
	assert.Less(t, idx("reasoning"), idx("mood"))
	assert.Less(t, idx("mood"), idx("tags"))
	assert.Less(t, idx("tags"), idx("nickname"))
	assert.Less(t, idx("nickname"), idx("done"))

	assert.Equal(t, []any{"reasoning", "mood"}, parsed["required"])
}

func TestValidateResponse(t *testing.T) {
	schema := testSchema().Schema("probe")

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"reasoning":"x","mood":"HAPPY"}`, false},
		{"valid with null nickname", `{"reasoning":"x","mood":"SAD","nickname":null}`, false},
		{"fenced", "```json\n{\"reasoning\":\"x\",\"mood\":\"SAD\"}\n```", false},
		{"missing required", `{"reasoning":"x"}`, true},
		{"bad enum", `{"reasoning":"x","mood":"ANGRY"}`, true},
		{"wrong type", `{"reasoning":"x","mood":"SAD","done":"yes"}`, true},
		{"not json", `I think the user is happy`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ValidateResponse(schema, []byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsResponseValidation(err), "expected ResponseValidationError, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "x", doc["reasoning"])
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(StripCodeFence([]byte("```json\n{\"a\":1}\n```"))))
	assert.Equal(t, `{"a":1}`, string(StripCodeFence([]byte("  {\"a\":1}  "))))
}
