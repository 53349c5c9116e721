package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTypeFor(t *testing.T) {
	tests := []struct {
		field string
		want  FieldType
	}{
		{"name", FieldTypeText},
		{"email", FieldTypeText},
		{"stage_id", FieldTypeText},
		{"message", FieldTypeText},
		{"language", FieldTypeText},
		{"age", FieldTypeNumber},
		{"balance", FieldTypeNumber},
		{"order_count", FieldTypeNumber},
		{"total_price", FieldTypeNumber},
		{"created_at", FieldTypeDate},
		{"signup_date", FieldTypeDate},
		{"birthday", FieldTypeDate},
		{"custom_tier", FieldTypeCustom},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldTypeFor(tt.field))
		})
	}
}

func TestConditionType_ExplicitWins(t *testing.T) {
	c := Condition{Field: "balance", FieldType: FieldTypeText}
	assert.Equal(t, FieldTypeText, c.Type())

	c = Condition{Field: "balance"}
	assert.Equal(t, FieldTypeNumber, c.Type())
}

func TestBetween_RoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"10", "20"},
		{"0", "99.5"},
		{"-5", "5"},
		{"", "100"}, // missing lower bound
		{"100", ""}, // missing upper bound
	}

	for _, pair := range pairs {
		packed := PackBetween(pair[0], pair[1])

		minVal, maxVal, err := SplitBetween(packed)
		require.NoError(t, err)
		assert.Equal(t, pair[0], minVal)
		assert.Equal(t, pair[1], maxVal)
	}
}

func TestSplitBetween_Malformed(t *testing.T) {
	_, _, err := SplitBetween("42")
	require.Error(t, err)
}

func TestOperatorsFor(t *testing.T) {
	assert.Contains(t, OperatorsFor(FieldTypeNumber), OpBetween)
	assert.Contains(t, OperatorsFor(FieldTypeDate), OpDaysAgo)
	assert.Contains(t, OperatorsFor(FieldTypeText), OpContains)
	assert.NotContains(t, OperatorsFor(FieldTypeText), OpBetween)
}
