package azure

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorFrom(t *testing.T) {
	r := &armresources.GenericResourceExpanded{
		ID:       to.Ptr("/subscriptions/s/resourceGroups/rg-data/providers/Microsoft.Storage/storageAccounts/backups"),
		Name:     to.Ptr("backups"),
		Type:     to.Ptr("Microsoft.Storage/storageAccounts"),
		Location: to.Ptr("eastus"),
		SKU:      &armresources.SKU{Name: to.Ptr("Standard_LRS")},
		Tags:     map[string]*string{"env": to.Ptr("prod"), "empty": nil},
	}

	d := descriptorFrom(r)
	assert.Equal(t, "backups", d.Name)
	assert.Equal(t, "rg-data", d.ResourceGroup)
	assert.Equal(t, "Standard_LRS", d.SKU)
	assert.Equal(t, map[string]string{"env": "prod", "empty": ""}, d.Tags)

	bare := descriptorFrom(&armresources.GenericResourceExpanded{Name: to.Ptr("x")})
	assert.Equal(t, "x", bare.Name)
	assert.Empty(t, bare.SKU)
	assert.Nil(t, bare.Tags)
}

func TestEnhanceError(t *testing.T) {
	forbidden := &azcore.ResponseError{StatusCode: http.StatusForbidden, ErrorCode: "AuthorizationFailed"}
	err := EnhanceError("list resources", forbidden)
	assert.ErrorIs(t, err, forbidden)
	assert.Contains(t, err.Error(), "Reader role")

	err = EnhanceError("create Azure credential", errors.New("DefaultAzureCredential: failed to acquire a token"))
	assert.Contains(t, err.Error(), "az login")

	err = EnhanceError("get", errors.New("boom"))
	assert.Equal(t, "get: boom", err.Error())
}

func TestMockLister(t *testing.T) {
	m := NewMockLister()
	ctx := context.Background()

	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 13)

	size, err := m.VMSize(ctx, "rg-web", "web-01")
	require.NoError(t, err)
	assert.Equal(t, "Standard_B2s", size)

	_, err = m.VMSize(ctx, "rg", "missing")
	assert.Error(t, err)

	tier, err := m.StorageTier(ctx, "rg-data", "backups")
	require.NoError(t, err)
	assert.Equal(t, "Cool", tier)

	m.Err = errors.New("listing failed")
	_, err = m.List(ctx)
	assert.Error(t, err)
}
