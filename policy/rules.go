package policy

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Rule grants every subject holding Role permission to perform Action on
// Resource.
type Rule struct {
	Role     string
	Resource string
	Action   string
}

// String renders the rule as a rule table row.
func (r Rule) String() string {
	return r.Role + ", " + r.Resource + ", " + r.Action
}

// Grouping maps a subject to the roles assigned to it.
type Grouping map[string][]string

// Assign adds role to subject, ignoring duplicates.
func (g Grouping) Assign(subject, role string) {
	for _, existing := range g[subject] {
		if existing == role {
			return
		}
	}
	g[subject] = append(g[subject], role)
}

// ParseRules reads a rule table. Each non-blank line holds exactly three
// comma-separated fields in the model's policy_definition order; with the
// default model that is role, resource, action. Lines starting with # are
// comments. A nil model means DefaultModel.
func ParseRules(r io.Reader, model *Model) ([]Rule, error) {
	if model == nil {
		model = DefaultModel()
	}

	var rules []Rule
	err := readRows(r, "rules", fieldCount, func(line int, fields []string) error {
		var row [fieldCount]string
		copy(row[:], fields)
		rules = append(rules, model.rule(row))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// ParseGrouping reads a grouping relation: rows of "subject, role". A subject
// may appear on several rows to hold several roles.
func ParseGrouping(r io.Reader) (Grouping, error) {
	grouping := make(Grouping)
	err := readRows(r, "grouping", 2, func(line int, fields []string) error {
		grouping.Assign(fields[0], fields[1])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grouping, nil
}

// readRows feeds each data line of r, split into want trimmed non-empty
// fields, to fn.
func readRows(r io.Reader, source string, want int, fn func(line int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		cr := csv.NewReader(strings.NewReader(text))
		cr.FieldsPerRecord = want
		cr.TrimLeadingSpace = true
		fields, err := cr.Read()
		if err != nil {
			return configErr(source, lineNo, fmt.Sprintf("want %d comma-separated fields", want), err)
		}

		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
			if fields[i] == "" {
				return configErr(source, lineNo, fmt.Sprintf("field %d is empty", i+1), nil)
			}
		}
		if err := fn(lineNo, fields); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return configErr(source, 0, "read", err)
	}
	return nil
}
