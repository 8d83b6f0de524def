package azure

import (
	"context"
	"fmt"

	"github.com/DrSkyle/azmigrate/pkg/resource"
	"github.com/DrSkyle/azmigrate/pkg/resources"
)

// MockSubscription is the subscription ID reported in mock mode.
const MockSubscription = "00000000-0000-0000-0000-000000000000"

// MockLister serves a fixed inventory without network access.
type MockLister struct {
	Resources []resource.Descriptor
	Sizes     map[string]string
	Tiers     map[string]string
	// Err, when set, is returned by List.
	Err error
}

// NewMockLister returns a small mixed subscription.
func NewMockLister() *MockLister {
	rid := func(group, typ, name string) string {
		return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s", MockSubscription, group, typ, name)
	}
	mk := func(group, typ, name string, tags map[string]string) resource.Descriptor {
		return resource.Descriptor{
			ID:            rid(group, typ, name),
			Name:          name,
			Type:          typ,
			ResourceGroup: group,
			Location:      "eastus",
			Tags:          tags,
		}
	}

	return &MockLister{
		Resources: []resource.Descriptor{
			mk("rg-web", resources.VirtualMachine, "web-01", map[string]string{"env": "prod"}),
			mk("rg-web", resources.VirtualMachine, "web-02", map[string]string{"env": "prod"}),
			mk("rg-batch", resources.VirtualMachine, "batch-01", map[string]string{"env": "prod"}),
			mk("rg-dev", resources.VirtualMachine, "dev-box", map[string]string{"env": "dev"}),
			mk("rg-api", resources.VirtualMachine, "api-01", map[string]string{"env": "prod"}),
			mk("rg-web", resources.StorageAccount, "webassets", nil),
			mk("rg-data", resources.StorageAccount, "backups", nil),
			mk("rg-data", resources.SQLServer, "sql-main", nil),
			mk("rg-data", resources.SQLDatabase, "sql-main/orders", nil),
			mk("rg-web", resources.WebSite, "portal", nil),
			mk("rg-web", resources.AppServicePlan, "portal-plan", nil),
			mk("rg-net", resources.VirtualNetwork, "vnet-main", nil),
			mk("rg-web", resources.NetworkInterface, "web-01-nic", nil),
		},
		Sizes: map[string]string{
			"web-01":  "Standard_B2s",
			"web-02":  "Standard_B2s",
			"dev-box": "Standard_F2s_v2",
			"api-01":  "Standard_D2s_v3",
		},
		Tiers: map[string]string{
			"webassets": "Hot",
			"backups":   "Cool",
		},
	}
}

// List implements the engine's lister.
func (m *MockLister) List(ctx context.Context) ([]resource.Descriptor, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]resource.Descriptor(nil), m.Resources...), nil
}

// VMSize looks the name up in Sizes.
func (m *MockLister) VMSize(ctx context.Context, group, name string) (string, error) {
	size, ok := m.Sizes[name]
	if !ok {
		return "", fmt.Errorf("virtual machine %s/%s not found", group, name)
	}
	return size, nil
}

// StorageTier looks the name up in Tiers.
func (m *MockLister) StorageTier(ctx context.Context, group, name string) (string, error) {
	return m.Tiers[name], nil
}
