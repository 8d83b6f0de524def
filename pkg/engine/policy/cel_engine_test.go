package policy

import (
	"testing"

	"github.com/DrSkyle/azmigrate/pkg/resource"
	"github.com/DrSkyle/azmigrate/pkg/resources"
)

func TestCELEngine(t *testing.T) {
	// 1. Initialize Engine
	engine, err := NewCELEngine()
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	// 2. Define Rules
	rules := []Rule{
		{ID: "dev_env", Condition: "'env' in tags && tags.env == 'dev'"},
		{ID: "sandbox_group", Condition: "group.startsWith('sandbox-')"},
		{ID: "big_vms", Condition: "category == 'compute' && sku.contains('d8s')"},
	}

	// 3. Compile
	if err := engine.Compile(rules); err != nil {
		t.Fatalf("Compilation failed: %v", err)
	}

	// 4. Scenario A: tagged dev
	dataA := resource.Descriptor{Name: "a", Type: resources.StorageAccount, Tags: map[string]string{"env": "dev"}}
	if matches := engine.Evaluate(dataA); len(matches) != 1 || matches[0] != "dev_env" {
		t.Errorf("Scenario A failed. Expected [dev_env], got %v", matches)
	}

	// 5. Scenario B: two rules
	dataB := resource.Descriptor{Name: "b", Type: resources.VirtualMachine, SKU: "Standard_D8s_v3", ResourceGroup: "sandbox-1"}
	if matches := engine.Evaluate(dataB); len(matches) != 2 {
		t.Errorf("Scenario B failed. Expected 2 matches, got %v", matches)
	}

	// 6. Scenario C: untagged production
	dataC := resource.Descriptor{Name: "c", Type: resources.VirtualMachine, SKU: "Standard_B2s", ResourceGroup: "prod"}
	if engine.Excludes(dataC) {
		t.Errorf("Scenario C should not match, got %v", engine.Evaluate(dataC))
	}
}

func TestCELEngineRejectsBadRules(t *testing.T) {
	engine, _ := NewCELEngine()

	if err := engine.Compile([]Rule{{ID: "syntax", Condition: "name =="}}); err == nil {
		t.Error("Expected compilation error")
	}
	if err := engine.Compile([]Rule{{ID: "not_bool", Condition: "name"}}); err == nil {
		t.Error("Expected non-bool rule to be rejected")
	}
	if err := engine.Compile([]Rule{{ID: "unknown_var", Condition: "cost > 1.0"}}); err == nil {
		t.Error("Expected undeclared variable to be rejected")
	}
}

func TestParseRules(t *testing.T) {
	rules := ParseRules([]string{"skip-dev: tags.env == 'dev'", "  ", "location == 'westeurope'"})
	if len(rules) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(rules))
	}
	if rules[0].ID != "skip-dev" || rules[0].Condition != "tags.env == 'dev'" {
		t.Errorf("Named rule parsed wrong: %+v", rules[0])
	}
	if rules[1].ID != "exclude-3" || rules[1].Condition != "location == 'westeurope'" {
		t.Errorf("Bare rule parsed wrong: %+v", rules[1])
	}
}

func TestFilter(t *testing.T) {
	f, err := NewFilter([]string{"name.startsWith('tmp')"})
	if err != nil {
		t.Fatal(err)
	}
	if f.Keep(resource.Descriptor{Name: "tmp-vm"}) {
		t.Error("tmp-vm should be excluded")
	}
	if !f.Keep(resource.Descriptor{Name: "web"}) {
		t.Error("web should be kept")
	}

	empty, err := NewFilter(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !empty.Keep(resource.Descriptor{Name: "anything"}) {
		t.Error("empty filter keeps everything")
	}

	if _, err := NewFilter([]string{"name ==="}); err == nil {
		t.Error("Expected invalid rule to fail")
	}
}
