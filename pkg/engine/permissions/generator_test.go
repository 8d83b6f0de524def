package permissions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePolicyAllFeatures(t *testing.T) {
	raw, err := GeneratePolicy(nil)
	require.NoError(t, err)

	var doc PolicyDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Statement, 1)
	assert.Contains(t, doc.Statement[0].Action, "pricing:GetProducts")
	assert.Contains(t, doc.Statement[0].Action, "s3:PutObject")
}

func TestGeneratePolicySelected(t *testing.T) {
	raw, err := GeneratePolicy([]string{"pricing"})
	require.NoError(t, err)

	var doc PolicyDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []string{"pricing:GetProducts"}, doc.Statement[0].Action)
}

func TestGenerateRole(t *testing.T) {
	raw, err := GenerateRole("sub-1", []string{"listing", "compute"})
	require.NoError(t, err)

	var role RoleDefinition
	require.NoError(t, json.Unmarshal(raw, &role))
	assert.Equal(t, []string{"/subscriptions/sub-1"}, role.AssignableScopes)
	assert.Equal(t, []string{
		"Microsoft.Compute/virtualMachines/read",
		"Microsoft.Resources/subscriptions/read",
		"Microsoft.Resources/subscriptions/resources/read",
	}, role.Actions)

	_, err = GenerateRole("", nil)
	assert.Error(t, err)
}

func TestFeatures(t *testing.T) {
	assert.ElementsMatch(t, []string{"listing", "compute", "storage", "pricing", "cache"}, Features())
}
