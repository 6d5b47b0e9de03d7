// internal/models/optional_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptFloat_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want OptFloat
	}{
		{"number", `12.5`, Some(12.5)},
		{"numeric string", `" 3000 "`, Some(3000)},
		{"zero", `0`, Some(0)},
		{"null", `null`, OptFloat{}},
		{"empty string", `""`, OptFloat{}},
		{"text", `"about 20k"`, OptFloat{}},
		{"nan", `"NaN"`, OptFloat{}},
		{"inf", `"inf"`, OptFloat{}},
		{"negative infinity", `"-Infinity"`, OptFloat{}},
		{"overflow", `"1e999"`, OptFloat{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got OptFloat
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptFloat_AbsentFieldsStayUnknown(t *testing.T) {
	var p StudentProfile
	require.NoError(t, json.Unmarshal([]byte(`{"finance":{"annual_budget":"NaN","savings":"inf"},"gpa":"NaN"}`), &p))

	assert.False(t, p.Finance.AnnualBudget.Valid)
	assert.False(t, p.Finance.Savings.Valid)
	assert.False(t, p.Finance.CashBuffer.Valid)
	assert.False(t, p.GPA.Valid)
	assert.Nil(t, p.GPA.OrNil())
}

func TestOptFloat_Text(t *testing.T) {
	var o OptFloat
	require.NoError(t, o.UnmarshalText([]byte("NaN")))
	assert.False(t, o.Valid)

	require.NoError(t, o.UnmarshalText([]byte("42000")))
	assert.Equal(t, Some(42000), o)

	b, err := o.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "42000", string(b))
}
