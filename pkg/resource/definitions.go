package resource

import (
	"fmt"
	"strings"
)

// Descriptor is one resource as reported by the listing provider.
// AccessTier is only set for storage accounts.
type Descriptor struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	SKU           string            `json:"sku,omitempty"`
	ResourceGroup string            `json:"resource_group,omitempty"`
	Location      string            `json:"location,omitempty"`
	AccessTier    string            `json:"access_tier,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// GetID returns the resource ID.
func (d Descriptor) GetID() string {
	return d.ID
}

// GetType returns the type tag lower-cased.
func (d Descriptor) GetType() string {
	return strings.ToLower(d.Type)
}

// String renders "name (type)".
func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Type)
}

// GroupFromID extracts the resource group segment of an ARM resource ID.
func GroupFromID(id string) string {
	parts := strings.Split(id, "/")
	for i := 0; i+1 < len(parts); i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return ""
}
