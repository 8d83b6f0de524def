package commands

import (
	"fmt"

	"github.com/DrSkyle/azmigrate/pkg/engine/permissions"
	"github.com/spf13/cobra"
)

var permissionsOpts struct {
	cloud        string
	subscription string
	only         []string
}

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Print the least-privilege Azure role or AWS policy",
	Long: `Generates the Azure custom role definition or the AWS IAM policy needed
to run azmigrate.

Example:
  azmigrate permissions --cloud azure --subscription <id>
  azmigrate permissions --cloud aws --only pricing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			out []byte
			err error
		)
		switch permissionsOpts.cloud {
		case "azure":
			out, err = permissions.GenerateRole(permissionsOpts.subscription, permissionsOpts.only)
		case "aws":
			out, err = permissions.GeneratePolicy(permissionsOpts.only)
		default:
			return fmt.Errorf("unknown cloud %q (expected azure or aws)", permissionsOpts.cloud)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	f := permissionsCmd.Flags()
	f.StringVar(&permissionsOpts.cloud, "cloud", "azure", "azure or aws")
	f.StringVarP(&permissionsOpts.subscription, "subscription", "s", "", "Subscription the Azure role is assignable to")
	f.StringSliceVar(&permissionsOpts.only, "only", nil, fmt.Sprintf("Limit to features %v", permissions.Features()))
}
