// Package azure lists the resources of an Azure subscription through the
// Resource Manager SDK.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"

	"github.com/DrSkyle/azmigrate/pkg/resource"
)

// ErrNoSubscription is returned when no subscription was given and none can be discovered.
var ErrNoSubscription = errors.New("no Azure subscription found")

// Client lists resources and looks up VM sizes and storage tiers.
type Client struct {
	SubscriptionID string

	resources *armresources.Client
	vms       *armcompute.VirtualMachinesClient
	accounts  *armstorage.AccountsClient
	logger    *slog.Logger
}

// NewClient authenticates with the default credential chain (environment,
// workload identity, managed identity, Azure CLI). An empty subscriptionID
// selects the first enabled subscription visible to the credential.
func NewClient(ctx context.Context, subscriptionID string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, EnhanceError("create Azure credential", err)
	}

	if subscriptionID == "" {
		subscriptionID, err = defaultSubscription(ctx, cred)
		if err != nil {
			return nil, err
		}
		logger.Info("Using default subscription", "subscription", subscriptionID)
	}

	resClient, err := armresources.NewClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create resources client: %w", err)
	}
	vmClient, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create compute client: %w", err)
	}
	accClient, err := armstorage.NewAccountsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Client{
		SubscriptionID: subscriptionID,
		resources:      resClient,
		vms:            vmClient,
		accounts:       accClient,
		logger:         logger,
	}, nil
}

func defaultSubscription(ctx context.Context, cred azcore.TokenCredential) (string, error) {
	client, err := armsubscriptions.NewClient(cred, nil)
	if err != nil {
		return "", fmt.Errorf("create subscriptions client: %w", err)
	}

	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", EnhanceError("list subscriptions", err)
		}
		for _, s := range page.Value {
			if s == nil || s.SubscriptionID == nil {
				continue
			}
			if s.State != nil && *s.State != armsubscriptions.SubscriptionStateEnabled {
				continue
			}
			return *s.SubscriptionID, nil
		}
	}
	return "", ErrNoSubscription
}

// List returns every resource in the subscription.
func (c *Client) List(ctx context.Context) ([]resource.Descriptor, error) {
	var out []resource.Descriptor

	pager := c.resources.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, EnhanceError("list resources", err)
		}
		for _, r := range page.Value {
			if r == nil {
				continue
			}
			out = append(out, descriptorFrom(r))
		}
	}
	c.logger.Debug("Listed resources", "subscription", c.SubscriptionID, "count", len(out))
	return out, nil
}

func descriptorFrom(r *armresources.GenericResourceExpanded) resource.Descriptor {
	d := resource.Descriptor{
		ID:       deref(r.ID),
		Name:     deref(r.Name),
		Type:     deref(r.Type),
		Location: deref(r.Location),
	}
	d.ResourceGroup = resource.GroupFromID(d.ID)
	if r.SKU != nil {
		d.SKU = deref(r.SKU.Name)
	}
	if len(r.Tags) > 0 {
		d.Tags = make(map[string]string, len(r.Tags))
		for k, v := range r.Tags {
			d.Tags[k] = deref(v)
		}
	}
	return d
}

// VMSize returns the hardware profile size of a virtual machine.
func (c *Client) VMSize(ctx context.Context, group, name string) (string, error) {
	resp, err := c.vms.Get(ctx, group, name, nil)
	if err != nil {
		return "", EnhanceError(fmt.Sprintf("get virtual machine %s/%s", group, name), err)
	}
	props := resp.VirtualMachine.Properties
	if props == nil || props.HardwareProfile == nil || props.HardwareProfile.VMSize == nil {
		return "", fmt.Errorf("virtual machine %s/%s has no hardware profile", group, name)
	}
	return string(*props.HardwareProfile.VMSize), nil
}

// StorageTier returns the access tier of a storage account.
func (c *Client) StorageTier(ctx context.Context, group, name string) (string, error) {
	resp, err := c.accounts.GetProperties(ctx, group, name, nil)
	if err != nil {
		return "", EnhanceError(fmt.Sprintf("get storage account %s/%s", group, name), err)
	}
	props := resp.Account.Properties
	if props == nil || props.AccessTier == nil {
		return "", nil
	}
	return string(*props.AccessTier), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
