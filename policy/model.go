package policy

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// DefaultModelText is the RBAC model used when no model file is configured.
const DefaultModelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// allowOverride is the only policy effect the engine implements, with all
// whitespace removed.
const allowOverride = "some(where(p.eft==allow))"

// Request and policy positions.
const (
	fieldSubject = iota
	fieldResource
	fieldAction
	fieldCount
)

var (
	groupTermPattern = regexp.MustCompile(`^g\(\s*r\.(\w+)\s*,\s*p\.(\w+)\s*\)$`)
	eqTermPattern    = regexp.MustCompile(`^([rp])\.(\w+)\s*==\s*([rp])\.(\w+)$`)
)

// Model is a parsed matching model.
type Model struct {
	// Request lists the request_definition field names, in order:
	// subject, resource, action.
	Request []string

	// Policy lists the policy_definition field names in rule table column
	// order.
	Policy []string

	// Effect is the policy_effect expression.
	Effect string

	// Matcher is the matchers expression.
	Matcher string

	// column[i] is the rule table column matched against request position i.
	column [fieldCount]int
}

// DefaultModel returns the parsed DefaultModelText.
func DefaultModel() *Model {
	m, err := ParseModel(DefaultModelText)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseModel parses a model in Casbin INI syntax.
//
// The request and policy definitions must each declare three fields, the
// role definition must be "_, _", the effect must be allow-override, and the
// matcher must bind every request field to exactly one policy field: the
// subject through g(), the others through ==.
func ParseModel(text string) (*Model, error) {
	sections, err := parseINI("model", text)
	if err != nil {
		return nil, err
	}

	get := func(section, key string) (string, error) {
		v, ok := sections[section][key]
		if !ok || v.value == "" {
			return "", configErr("model", v.line, fmt.Sprintf("missing %s.%s", section, key), nil)
		}
		return v.value, nil
	}

	m := &Model{}

	r, err := get("request_definition", "r")
	if err != nil {
		return nil, err
	}
	if m.Request, err = parseFieldList("r", r, sections["request_definition"]["r"].line); err != nil {
		return nil, err
	}

	p, err := get("policy_definition", "p")
	if err != nil {
		return nil, err
	}
	if m.Policy, err = parseFieldList("p", p, sections["policy_definition"]["p"].line); err != nil {
		return nil, err
	}

	g, err := get("role_definition", "g")
	if err != nil {
		return nil, err
	}
	if strings.ReplaceAll(g, " ", "") != "_,_" {
		return nil, configErr("model", sections["role_definition"]["g"].line,
			fmt.Sprintf("role definition %q must be \"_, _\"", g), nil)
	}

	if m.Effect, err = get("policy_effect", "e"); err != nil {
		return nil, err
	}
	if strings.Join(strings.Fields(m.Effect), "") != allowOverride {
		return nil, configErr("model", sections["policy_effect"]["e"].line,
			fmt.Sprintf("effect %q", m.Effect), ErrUndefinedEffect)
	}

	if m.Matcher, err = get("matchers", "m"); err != nil {
		return nil, err
	}
	if err := m.bind(sections["matchers"]["m"].line); err != nil {
		return nil, err
	}

	return m, nil
}

// bind resolves the matcher into request position → policy column.
func (m *Model) bind(line int) error {
	fail := func(reason string) error {
		return configErr("model", line, reason, ErrUnsupportedMatcher)
	}

	for i := range m.column {
		m.column[i] = -1
	}
	policyBound := make([]bool, len(m.Policy))
	grouped := false

	for _, term := range strings.Split(m.Matcher, "&&") {
		term = strings.TrimSpace(term)
		if term == "" {
			return fail("empty matcher term")
		}

		var reqName, polName string
		viaGroup := false

		if sub := groupTermPattern.FindStringSubmatch(term); sub != nil {
			reqName, polName, viaGroup = sub[1], sub[2], true
		} else if sub := eqTermPattern.FindStringSubmatch(term); sub != nil {
			switch {
			case sub[1] == "r" && sub[3] == "p":
				reqName, polName = sub[2], sub[4]
			case sub[1] == "p" && sub[3] == "r":
				reqName, polName = sub[4], sub[2]
			default:
				return fail(fmt.Sprintf("term %q must compare a request field with a policy field", term))
			}
		} else {
			return fail(fmt.Sprintf("term %q", term))
		}

		ri := indexOf(m.Request, reqName)
		if ri < 0 {
			return fail(fmt.Sprintf("term %q references undefined request field r.%s", term, reqName))
		}
		pi := indexOf(m.Policy, polName)
		if pi < 0 {
			return fail(fmt.Sprintf("term %q references undefined policy field p.%s", term, polName))
		}
		if m.column[ri] >= 0 {
			return fail(fmt.Sprintf("request field r.%s is matched more than once", reqName))
		}
		if policyBound[pi] {
			return fail(fmt.Sprintf("policy field p.%s is matched more than once", polName))
		}
		if viaGroup != (ri == fieldSubject) {
			if viaGroup {
				return fail(fmt.Sprintf("g() may only be applied to the subject field r.%s", m.Request[fieldSubject]))
			}
			return fail(fmt.Sprintf("subject field r.%s must be matched through g()", reqName))
		}
		if viaGroup {
			grouped = true
		}

		m.column[ri] = pi
		policyBound[pi] = true
	}

	if !grouped {
		return fail("matcher does not apply the grouping relation g()")
	}
	for i, col := range m.column {
		if col < 0 {
			return fail(fmt.Sprintf("request field r.%s is not matched", m.Request[i]))
		}
	}
	return nil
}

// rule maps a rule table row onto a Rule using the matcher binding.
func (m *Model) rule(row [fieldCount]string) Rule {
	return Rule{
		Role:     row[m.column[fieldSubject]],
		Resource: row[m.column[fieldResource]],
		Action:   row[m.column[fieldAction]],
	}
}

func parseFieldList(key, value string, line int) ([]string, error) {
	parts := strings.Split(value, ",")
	fields := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			return nil, configErr("model", line, fmt.Sprintf("%s has an empty field name", key), nil)
		}
		if seen[name] {
			return nil, configErr("model", line, fmt.Sprintf("%s declares field %q twice", key, name), nil)
		}
		seen[name] = true
		fields = append(fields, name)
	}
	if len(fields) != fieldCount {
		return nil, configErr("model", line,
			fmt.Sprintf("%s must declare %d fields, got %d", key, fieldCount, len(fields)), nil)
	}
	return fields, nil
}

type iniValue struct {
	value string
	line  int
}

var knownSections = map[string]string{
	"request_definition": "r",
	"policy_definition":  "p",
	"role_definition":    "g",
	"policy_effect":      "e",
	"matchers":           "m",
}

func parseINI(source, text string) (map[string]map[string]iniValue, error) {
	sections := make(map[string]map[string]iniValue, len(knownSections))
	current := ""

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, configErr(source, lineNo, fmt.Sprintf("unterminated section header %q", line), nil)
			}
			current = strings.TrimSpace(line[1 : len(line)-1])
			if _, ok := knownSections[current]; !ok {
				return nil, configErr(source, lineNo, fmt.Sprintf("unknown section [%s]", current), nil)
			}
			if _, dup := sections[current]; dup {
				return nil, configErr(source, lineNo, fmt.Sprintf("duplicate section [%s]", current), nil)
			}
			sections[current] = make(map[string]iniValue)
			continue
		}

		if current == "" {
			return nil, configErr(source, lineNo, "assignment outside of a section", nil)
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, configErr(source, lineNo, fmt.Sprintf("expected key = value, got %q", line), nil)
		}
		key = strings.TrimSpace(key)
		if want := knownSections[current]; key != want {
			return nil, configErr(source, lineNo, fmt.Sprintf("unexpected key %q in [%s], want %q", key, current, want), nil)
		}
		if _, dup := sections[current][key]; dup {
			return nil, configErr(source, lineNo, fmt.Sprintf("duplicate key %q in [%s]", key, current), nil)
		}
		sections[current][key] = iniValue{value: strings.TrimSpace(value), line: lineNo}
	}
	if err := scanner.Err(); err != nil {
		return nil, configErr(source, 0, "read", err)
	}
	return sections, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
