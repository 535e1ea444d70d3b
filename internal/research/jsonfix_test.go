package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSONMap_Clean(t *testing.T) {
	got := RepairJSONMap(`{"overview": "Acme makes anvils", "certifications": ["ISO 9001"]}`)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme makes anvils", got["overview"])
}

func TestRepairJSONMap_CodeFence(t *testing.T) {
	raw := "```json\n{\"overview\": \"Acme makes anvils\"}\n```"
	got := RepairJSONMap(raw)
	assert.Equal(t, "Acme makes anvils", got["overview"])
}

func TestRepairJSONMap_FenceWithTrailingProse(t *testing.T) {
	raw := "Here is the requested data:\n{\"overview\": \"Acme makes anvils\"}\nLet me know if you need anything else."
	got := RepairJSONMap(raw)
	assert.Equal(t, "Acme makes anvils", got["overview"])
}

func TestRepairJSONMap_SingleQuotesAndTrailingComma(t *testing.T) {
	raw := `{'overview': 'Acme makes anvils', "locations": ["Toledo", "Reno",],}`
	got := RepairJSONMap(raw)
	assert.Equal(t, "Acme makes anvils", got["overview"])
	assert.Len(t, got["locations"], 2)
}

func TestRepairJSONMap_PythonLiterals(t *testing.T) {
	got := RepairJSONMap(`{"overview": "Acme", "contact_info": None, "verified": True}`)
	assert.Equal(t, nil, got["contact_info"])
	assert.Equal(t, true, got["verified"])
}

func TestRepairJSONMap_TruncatedCompletion(t *testing.T) {
	// Token limit cut the response after a complete object plus garbage.
	raw := `{"overview": "Acme makes anvils"} and additionally the compa`
	got := RepairJSONMap(raw)
	assert.Equal(t, "Acme makes anvils", got["overview"])
}

func TestRepairJSONMap_NoBraces(t *testing.T) {
	got := RepairJSONMap("I could not find any information about this company.")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepairJSONMap_Idempotent(t *testing.T) {
	got := RepairJSONMap("")
	require.NotNil(t, got)
	assert.Empty(t, got)
}
