package policy

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/DrSkyle/azmigrate/pkg/engine/classify"
	"github.com/DrSkyle/azmigrate/pkg/resource"
	"github.com/google/cel-go/cel"
)

// CELEngine compiles exclude rules and evaluates them against resources.
type CELEngine struct {
	env      *cel.Env
	programs map[string]cel.Program
	order    []string
}

// NewCELEngine declares the variables a rule can reference.
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("group", cel.StringType),
		cel.Variable("location", cel.StringType),
		cel.Variable("sku", cel.StringType),
		cel.Variable("tags", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	return &CELEngine{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Compile compiles rules into executable programs. Every rule must yield a bool.
func (e *CELEngine) Compile(rules []Rule) error {
	for _, r := range rules {
		ast, issues := e.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return fmt.Errorf("rule %s must evaluate to a bool, got %s", r.ID, ast.OutputType())
		}

		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}

		if _, dup := e.programs[r.ID]; !dup {
			e.order = append(e.order, r.ID)
		}
		e.programs[r.ID] = prg
	}
	sort.Strings(e.order)
	return nil
}

// Len returns the number of compiled rules.
func (e *CELEngine) Len() int { return len(e.programs) }

// Evaluate returns the IDs of the rules matching d. Evaluation errors are
// logged and count as no match.
func (e *CELEngine) Evaluate(d resource.Descriptor) []string {
	vars := activation(d)

	var matches []string
	for _, id := range e.order {
		out, _, err := e.programs[id].Eval(vars)
		if err != nil {
			slog.Debug("Rule evaluation failed", "rule_id", id, "resource", d.Name, "error", err)
			continue
		}
		if match, ok := out.Value().(bool); ok && match {
			matches = append(matches, id)
		}
	}
	return matches
}

// Excludes reports whether any rule matches d.
func (e *CELEngine) Excludes(d resource.Descriptor) bool {
	return len(e.Evaluate(d)) > 0
}

func activation(d resource.Descriptor) map[string]interface{} {
	tags := d.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	return map[string]interface{}{
		"id":       d.ID,
		"name":     d.Name,
		"kind":     strings.ToLower(d.Type),
		"category": string(classify.CategoryOf(d.Type)),
		"group":    d.ResourceGroup,
		"location": d.Location,
		"sku":      strings.ToLower(d.SKU),
		"tags":     tags,
	}
}
