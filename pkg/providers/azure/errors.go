package azure

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// EnhanceError wraps err with the action and, for common auth problems, a hint.
func EnhanceError(action string, err error) error {
	msg := err.Error()

	var hint string
	var respErr *azcore.ResponseError
	switch {
	case errors.As(err, &respErr) && respErr.StatusCode == http.StatusForbidden:
		hint = "Insufficient permissions. Grant the Reader role on the subscription"
	case errors.As(err, &respErr) && respErr.StatusCode == http.StatusTooManyRequests:
		hint = "Azure Resource Manager throttled the request. Retry later"
	case errors.As(err, &respErr) && respErr.ErrorCode == "SubscriptionNotFound":
		hint = "Check the subscription ID or pass --subscription"
	case strings.Contains(msg, "DefaultAzureCredential") || strings.Contains(msg, "az login"):
		hint = "Configure Azure credentials: run 'az login', or set AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET"
	case strings.Contains(msg, "ExpiredAuthenticationToken") || strings.Contains(msg, "AADSTS700082"):
		hint = "Azure token expired. Run 'az login' again"
	}

	if hint != "" {
		return fmt.Errorf("%s: %w\n  hint: %s", action, err, hint)
	}
	return fmt.Errorf("%s: %w", action, err)
}
