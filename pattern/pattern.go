// Package pattern provides the ordered package-pattern table used to route
// export statements to their rules.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Helloyunho/transform-exports/config"
)

// ConfigError reports a pattern that is not a valid regular expression.
type ConfigError struct {
	Pattern string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Compile compiles a package or member pattern.
//
// A pattern with neither a leading "^" nor a trailing "$" is anchored at both
// ends. The literal "*" matches any string.
func Compile(p string) (*regexp.Regexp, error) {
	expr := p
	switch {
	case p == "*":
		expr = "^.*$"
	case !strings.HasPrefix(p, "^") && !strings.HasSuffix(p, "$"):
		expr = "^(?:" + p + ")$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &ConfigError{Pattern: p, Err: err}
	}
	return re, nil
}

// MemberRule is a compiled member pattern and its template.
type MemberRule struct {
	Pattern  string
	Template string
	re       *regexp.Regexp
}

// Rule is a compiled package rule.
type Rule struct {
	// Template is set when the rule has a single template.
	Template string
	// Members is set when the rule dispatches on the member name.
	Members               []MemberRule
	PreventFullExport     bool
	SkipDefaultConversion bool
}

// HasMembers reports whether the rule dispatches on member patterns.
func (r *Rule) HasMembers() bool {
	return r.Members != nil
}

// MatchMember returns the first member rule that matches member, with its
// capture groups.
func (r *Rule) MatchMember(member string) (*MemberRule, []string, bool) {
	for i := range r.Members {
		groups := r.Members[i].re.FindStringSubmatch(member)
		if groups != nil {
			return &r.Members[i], groups, true
		}
	}
	return nil, nil, false
}

// Entry is one registered package pattern.
type Entry struct {
	Pattern string
	Rule    Rule
	re      *regexp.Regexp
}

// Table matches package sources against registered patterns in order.
// It is read-only after NewTable and safe for concurrent use.
type Table struct {
	entries []Entry
}

// NewTable compiles every package and member pattern in cfg.
func NewTable(cfg *config.Config) (*Table, error) {
	t := &Table{entries: make([]Entry, 0, len(cfg.Packages))}

	for _, pkg := range cfg.Packages {
		re, err := Compile(pkg.Pattern)
		if err != nil {
			return nil, err
		}

		rule, err := compileRule(pkg.Pattern, pkg.Rule)
		if err != nil {
			return nil, err
		}

		t.entries = append(t.entries, Entry{Pattern: pkg.Pattern, Rule: rule, re: re})
	}

	return t, nil
}

func compileRule(pattern string, pc config.PackageConfig) (Rule, error) {
	rule := Rule{
		PreventFullExport:     pc.PreventFullExport,
		SkipDefaultConversion: pc.SkipDefaultConversion,
	}

	switch t := pc.Transform.(type) {
	case config.Template:
		rule.Template = string(t)
	case config.MemberRules:
		rule.Members = make([]MemberRule, 0, len(t))
		for _, m := range t {
			re, err := Compile(m.Pattern)
			if err != nil {
				return Rule{}, err
			}
			rule.Members = append(rule.Members, MemberRule{Pattern: m.Pattern, Template: m.Template, re: re})
		}
	default:
		return Rule{}, fmt.Errorf("package %q: missing transform", pattern)
	}

	return rule, nil
}

// Lookup returns the first entry whose pattern matches source, with the
// capture groups of the match. Group 0 is the whole match and groups that did
// not participate are empty.
func (t *Table) Lookup(source string) (*Entry, []string, bool) {
	for i := range t.entries {
		groups := t.entries[i].re.FindStringSubmatch(source)
		if groups != nil {
			return &t.entries[i], groups, true
		}
	}
	return nil, nil, false
}

// Entries returns a copy of the registered entries in order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of registered entries.
func (t *Table) Len() int {
	return len(t.entries)
}
