// Package permissions lists the cloud permissions the analyzer needs and
// renders them as ready-to-apply policy documents.
package permissions

import "sort"

// AzureActions maps each feature to the Resource Manager actions it calls.
var AzureActions = map[string][]string{
	"listing": {
		"Microsoft.Resources/subscriptions/read",
		"Microsoft.Resources/subscriptions/resources/read",
	},
	"compute": {
		"Microsoft.Compute/virtualMachines/read",
	},
	"storage": {
		"Microsoft.Storage/storageAccounts/read",
	},
}

// AWSActions maps each feature to the IAM actions it calls.
var AWSActions = map[string][]string{
	"pricing": {
		"pricing:GetProducts",
	},
	// Only needed when the cache lives in S3.
	"cache": {
		"s3:GetObject",
		"s3:PutObject",
		"s3:DeleteObject",
		"s3:ListBucket",
	},
}

// Features returns every feature name across both clouds, sorted.
func Features() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range []map[string][]string{AzureActions, AWSActions} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
