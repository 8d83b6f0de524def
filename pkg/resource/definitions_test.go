package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupFromID(t *testing.T) {
	id := "/subscriptions/0000/resourceGroups/rg-web/providers/Microsoft.Compute/virtualMachines/vm1"
	assert.Equal(t, "rg-web", GroupFromID(id))
	assert.Equal(t, "rg-x", GroupFromID("/subscriptions/0000/resourcegroups/rg-x"))
	assert.Equal(t, "", GroupFromID("/subscriptions/0000"))
}

func TestDescriptorType(t *testing.T) {
	d := Descriptor{Name: "vm1", Type: "Microsoft.Compute/virtualMachines"}
	assert.Equal(t, "microsoft.compute/virtualmachines", d.GetType())
	assert.Equal(t, "vm1 (Microsoft.Compute/virtualMachines)", d.String())
}
