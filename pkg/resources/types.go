package resources

// Azure resource type tags as reported by Resource Manager.
const (
	VirtualMachine   = "Microsoft.Compute/virtualMachines"
	ManagedDisk      = "Microsoft.Compute/disks"
	StorageAccount   = "Microsoft.Storage/storageAccounts"
	SQLServer        = "Microsoft.Sql/servers"
	SQLDatabase      = "Microsoft.Sql/servers/databases"
	WebSite          = "Microsoft.Web/sites"
	AppServicePlan   = "Microsoft.Web/serverFarms"
	VirtualNetwork   = "Microsoft.Network/virtualNetworks"
	NetworkInterface = "Microsoft.Network/networkInterfaces"
	PublicIPAddress  = "Microsoft.Network/publicIPAddresses"
	KeyVault         = "Microsoft.KeyVault/vaults"
)
