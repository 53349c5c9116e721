package conditions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyRule(t *testing.T, rule string, data map[string]any) any {
	t.Helper()

	var decoded any
	require.NoError(t, json.Unmarshal([]byte(rule), &decoded))

	result, err := ApplyJSONLogic(decoded, data)
	require.NoError(t, err)

	return result
}

func TestApplyJSONLogic(t *testing.T) {
	data := map[string]any{
		"balance": 42.5,
		"tier":    "gold",
		"tags":    []any{"vip", "late-payer"},
	}

	tests := []struct {
		name string
		rule string
		want any
	}{
		{"equality", `{"==": [{"var": "tier"}, "gold"]}`, true},
		{"loose numeric equality", `{"==": [{"var": "balance"}, "42.5"]}`, true},
		{"not equal", `{"!=": [{"var": "tier"}, "silver"]}`, true},
		{"greater than", `{">": [{"var": "balance"}, 40]}`, true},
		{"lte", `{"<=": [{"var": "balance"}, 42.5]}`, true},
		{"and", `{"and": [{">": [{"var": "balance"}, 40]}, {"==": [{"var": "tier"}, "gold"]}]}`, true},
		{"or short circuit", `{"or": [{"==": [{"var": "tier"}, "silver"]}, true]}`, true},
		{"not", `{"!": [{"==": [{"var": "tier"}, "silver"]}]}`, true},
		{"in array", `{"in": ["vip", {"var": "tags"}]}`, true},
		{"in string", `{"in": ["gol", {"var": "tier"}]}`, true},
		{"var default", `{"var": ["missing", "fallback"]}`, "fallback"},
		{"bare var argument", `{"var": "tier"}`, "gold"},
		{"bare not argument", `{"!": {"==": [{"var": "tier"}, "silver"]}}`, true},
		{"literal", `true`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyRule(t, tt.rule, data))
		})
	}
}

func TestApplyJSONLogic_Errors(t *testing.T) {
	var decoded any
	require.NoError(t, json.Unmarshal([]byte(`{"var": "missing"}`), &decoded))

	_, err := ApplyJSONLogic(decoded, map[string]any{})
	require.Error(t, err, "missing variable without default is an evaluation error")

	require.NoError(t, json.Unmarshal([]byte(`{"merge": [1, 2]}`), &decoded))

	_, err = ApplyJSONLogic(decoded, map[string]any{})
	require.Error(t, err, "unsupported operators are rejected")
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy("text"))
	assert.True(t, Truthy(1.0))
	assert.True(t, Truthy([]any{1}))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy([]any{}))
}
