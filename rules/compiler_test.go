package rules

import (
	"strings"
	"testing"

	"github.com/expr-lang/expr"
)

func TestCompileDoctrineBalanced(t *testing.T) {
	rules := CompileDoctrine(DefaultDoctrine())

	// Verify all rules compile with expr
	for _, r := range rules {
		_, err := expr.Compile(r.ConditionSrc, expr.Env(CityEnv{}), expr.AsBool())
		if err != nil {
			t.Errorf("rule %q failed to compile: %v\ncondition: %s", r.Name, err, r.ConditionSrc)
		}
	}

	want := []string{"hold-when-capped", "research-before-night", "build-worker", "research", "final-workers"}
	if len(rules) != len(want) {
		t.Fatalf("CompileDoctrine returned %d rules, want %d", len(rules), len(want))
	}
	for i, name := range want {
		if rules[i].Name != name {
			t.Errorf("rule %d = %q, want %q", i, rules[i].Name, name)
		}
	}

	byName := map[string]*Rule{}
	for _, r := range rules {
		byName[r.Name] = r
	}
	if src := byName["research-before-night"].ConditionSrc; !strings.Contains(src, "TurnsToNight < 3") || !strings.Contains(src, "TurnsLeft() > 9") {
		t.Errorf("research-before-night condition = %q", src)
	}
	if src := byName["build-worker"].ConditionSrc; !strings.Contains(src, "ClusterSaturated(0)") {
		t.Errorf("build-worker condition = %q", src)
	}
}

func TestCompileDoctrineExtremes(t *testing.T) {
	scholar := CompileDoctrine(Doctrine{Name: "Scholar", ResearchPriority: 1, ExpansionPriority: 0})
	settler := CompileDoctrine(Doctrine{Name: "Settler", ResearchPriority: 0, ExpansionPriority: 1})

	find := func(rules []*Rule, name string) string {
		for _, r := range rules {
			if r.Name == name {
				return r.ConditionSrc
			}
		}
		return ""
	}
	if src := find(scholar, "research-before-night"); !strings.Contains(src, "TurnsToNight < 5") {
		t.Errorf("scholar research window: %q", src)
	}
	if src := find(scholar, "build-worker"); !strings.Contains(src, "ClusterSaturated(-1)") {
		t.Errorf("scholar build-worker: %q", src)
	}
	if src := find(settler, "build-worker"); !strings.Contains(src, "ClusterSaturated(1)") {
		t.Errorf("settler build-worker: %q", src)
	}
	for _, rules := range [][]*Rule{scholar, settler} {
		if _, err := NewEngine(rules); err != nil {
			t.Errorf("NewEngine failed: %v", err)
		}
	}
}
