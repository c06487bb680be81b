package policy

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Deny reasons reported in Decision.Reason.
const (
	ReasonAllowed     = "allowed"
	ReasonNoRole      = "subject has no assigned role"
	ReasonNoMatchRule = "no rule grants this action to the subject's roles"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed  bool
	Subject  string
	Action   string
	Resource string

	// Role is the role whose rule granted access; empty when denied.
	Role string

	// Reason is ReasonAllowed, ReasonNoRole or ReasonNoMatchRule.
	Reason string
}

// Engine evaluates (subject, action, resource) requests against an
// immutable rule set and grouping relation.
//
// Contract:
// - Concurrency: safe for concurrent use; an Engine never changes after New.
// - Errors: evaluation never fails; every request resolves to allow or deny.
type Engine struct {
	model  *Model
	rules  []Rule
	index  map[Rule]struct{}
	roles  map[string][]string // subject -> sorted roles
	source string
}

// Paths names the files an Engine is loaded from.
type Paths struct {
	// Model is the model file. Empty means DefaultModelText.
	Model string

	// Rules is the rule table file.
	Rules string

	// Grouping is the subject-to-role file.
	Grouping string
}

// New builds an Engine. A nil model means DefaultModel.
func New(model *Model, rules []Rule, grouping Grouping) (*Engine, error) {
	if model == nil {
		model = DefaultModel()
	}

	e := &Engine{
		model: model,
		rules: make([]Rule, 0, len(rules)),
		index: make(map[Rule]struct{}, len(rules)),
		roles: make(map[string][]string, len(grouping)),
	}

	for i, rule := range rules {
		if rule.Role == "" || rule.Resource == "" || rule.Action == "" {
			return nil, configErr("rules", 0, fmt.Sprintf("rule %d (%s) has an empty field", i+1, rule), nil)
		}
		if _, dup := e.index[rule]; dup {
			continue
		}
		e.index[rule] = struct{}{}
		e.rules = append(e.rules, rule)
	}

	for subject, assigned := range grouping {
		if subject == "" {
			return nil, configErr("grouping", 0, "empty subject", nil)
		}
		set := make(map[string]struct{}, len(assigned))
		for _, role := range assigned {
			if role == "" {
				return nil, configErr("grouping", 0, fmt.Sprintf("subject %q has an empty role", subject), nil)
			}
			set[role] = struct{}{}
		}
		if len(set) == 0 {
			continue
		}
		sorted := make([]string, 0, len(set))
		for role := range set {
			sorted = append(sorted, role)
		}
		sort.Strings(sorted)
		e.roles[subject] = sorted
	}

	return e, nil
}

// Load builds an Engine from in-memory text. An empty modelText means
// DefaultModelText.
func Load(modelText, rulesText, groupingText string) (*Engine, error) {
	if strings.TrimSpace(modelText) == "" {
		modelText = DefaultModelText
	}
	model, err := ParseModel(modelText)
	if err != nil {
		return nil, err
	}
	rules, err := ParseRules(strings.NewReader(rulesText), model)
	if err != nil {
		return nil, err
	}
	grouping, err := ParseGrouping(strings.NewReader(groupingText))
	if err != nil {
		return nil, err
	}
	return New(model, rules, grouping)
}

// LoadFiles builds an Engine from files on disk.
func LoadFiles(paths Paths) (*Engine, error) {
	modelText := DefaultModelText
	if paths.Model != "" {
		text, err := readFile(paths.Model)
		if err != nil {
			return nil, err
		}
		modelText = text
	}
	if paths.Rules == "" {
		return nil, configErr("rules", 0, "rule table path is required", nil)
	}
	rulesText, err := readFile(paths.Rules)
	if err != nil {
		return nil, err
	}
	groupingText := ""
	if paths.Grouping != "" {
		if groupingText, err = readFile(paths.Grouping); err != nil {
			return nil, err
		}
	}

	e, err := Load(modelText, rulesText, groupingText)
	if err != nil {
		return nil, withSource(err, paths)
	}
	e.source = paths.Rules
	return e, nil
}

// Authorize reports whether subject may perform action on resource.
func (e *Engine) Authorize(subject, action, resource string) bool {
	return e.Decide(subject, action, resource).Allowed
}

// Decide evaluates the request and explains the outcome. When several roles
// grant access, Role is the first in sorted order.
func (e *Engine) Decide(subject, action, resource string) Decision {
	d := Decision{Subject: subject, Action: action, Resource: resource}

	roles := e.roles[subject]
	if len(roles) == 0 {
		d.Reason = ReasonNoRole
		return d
	}

	for _, role := range roles {
		if _, ok := e.index[Rule{Role: role, Resource: resource, Action: action}]; ok {
			d.Allowed = true
			d.Role = role
			d.Reason = ReasonAllowed
			return d
		}
	}

	d.Reason = ReasonNoMatchRule
	return d
}

// scan is the unindexed evaluation: a linear pass over every rule.
// Authorize must always agree with it.
func (e *Engine) scan(subject, action, resource string) bool {
	for _, rule := range e.rules {
		if rule.Resource != resource || rule.Action != action {
			continue
		}
		for _, role := range e.roles[subject] {
			if role == rule.Role {
				return true
			}
		}
	}
	return false
}

// RolesFor returns the roles assigned to subject.
func (e *Engine) RolesFor(subject string) []string {
	return append([]string(nil), e.roles[subject]...)
}

// HasSubject reports whether subject has at least one assigned role.
func (e *Engine) HasSubject(subject string) bool {
	return len(e.roles[subject]) > 0
}

// Rules returns the deduplicated rule set in load order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Model returns the matching model.
func (e *Engine) Model() *Model {
	return e.model
}

// Source returns the rule table path for file-loaded engines.
func (e *Engine) Source() string {
	return e.source
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", configErr(path, 0, "read", err)
	}
	return string(data), nil
}

// withSource replaces the generic input name in a ConfigError with the file
// path it came from.
func withSource(err error, paths Paths) error {
	ce, ok := err.(*ConfigError)
	if !ok {
		return err
	}
	switch ce.Source {
	case "model":
		if paths.Model != "" {
			ce.Source = paths.Model
		}
	case "rules":
		ce.Source = paths.Rules
	case "grouping":
		if paths.Grouping != "" {
			ce.Source = paths.Grouping
		}
	}
	return ce
}
