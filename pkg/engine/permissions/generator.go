package permissions

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PolicyDocument is an AWS IAM policy.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

type Statement struct {
	Sid      string   `json:"Sid"`
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource string   `json:"Resource"`
}

// RoleDefinition is an Azure custom role.
type RoleDefinition struct {
	Name             string   `json:"Name"`
	IsCustom         bool     `json:"IsCustom"`
	Description      string   `json:"Description"`
	Actions          []string `json:"Actions"`
	NotActions       []string `json:"NotActions"`
	AssignableScopes []string `json:"AssignableScopes"`
}

func collect(catalog map[string][]string, features []string) []string {
	desired := make(map[string]bool)
	if len(features) == 0 {
		for _, perms := range catalog {
			for _, p := range perms {
				desired[p] = true
			}
		}
	}
	for _, f := range features {
		for _, p := range catalog[f] {
			desired[p] = true
		}
	}

	actions := make([]string, 0, len(desired))
	for a := range desired {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

// GeneratePolicy returns the least-privilege IAM policy for features.
// An empty list enables every feature.
func GeneratePolicy(features []string) ([]byte, error) {
	policy := PolicyDocument{
		Version: "2012-10-17",
		Statement: []Statement{
			{
				Sid:      "AzMigratePricingReadOnly",
				Effect:   "Allow",
				Action:   collect(AWSActions, features),
				Resource: "*",
			},
		},
	}
	return json.MarshalIndent(policy, "", "  ")
}

// GenerateRole returns an Azure custom role scoped to subscription.
func GenerateRole(subscription string, features []string) ([]byte, error) {
	if subscription == "" {
		return nil, fmt.Errorf("subscription is required for an assignable scope")
	}
	role := RoleDefinition{
		Name:             "AzMigrate Reader",
		IsCustom:         true,
		Description:      "Read-only access needed to price a subscription for AWS migration.",
		Actions:          collect(AzureActions, features),
		NotActions:       []string{},
		AssignableScopes: []string{"/subscriptions/" + subscription},
	}
	return json.MarshalIndent(role, "", "  ")
}
