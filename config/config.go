// Package config provides the package rule configuration for the export rewriter.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"lukechampine.com/blake3"
)

// Config holds the package rules in registration order.
//
// The on-disk form is a YAML (or JSON) mapping from package-name pattern to
// PackageConfig. Entries keep the order they appear in the document.
type Config struct {
	Packages []Package
}

// Package binds a package-name pattern to its rule.
type Package struct {
	Pattern string
	Rule    PackageConfig
}

// PackageConfig is the rule applied to exports from a matched package.
type PackageConfig struct {
	Transform             Transform
	PreventFullExport     bool
	SkipDefaultConversion bool
}

// Transform is either a Template or MemberRules.
type Transform interface {
	isTransform()
}

// Template is rendered once per exported symbol.
type Template string

// MemberRules are tried in order against the member name; the first match wins.
type MemberRules []MemberRule

// MemberRule maps a member-name pattern to a template.
type MemberRule struct {
	Pattern  string
	Template string
}

func (Template) isTransform()    {}
func (MemberRules) isTransform() {}

// Load reads a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Parse decodes a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UnmarshalYAML decodes the package mapping, preserving key order.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: config must be a mapping of package patterns", value.Line)
	}

	seen := make(map[string]bool, len(value.Content)/2)
	packages := make([]Package, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]

		var pattern string
		if err := keyNode.Decode(&pattern); err != nil {
			return fmt.Errorf("line %d: package pattern: %w", keyNode.Line, err)
		}
		if seen[pattern] {
			return fmt.Errorf("line %d: duplicate package pattern %q", keyNode.Line, pattern)
		}
		seen[pattern] = true

		var rule PackageConfig
		if err := valNode.Decode(&rule); err != nil {
			return fmt.Errorf("package %q: %w", pattern, err)
		}
		packages = append(packages, Package{Pattern: pattern, Rule: rule})
	}

	c.Packages = packages
	return nil
}

// UnmarshalYAML decodes a rule whose transform is a string or a list of pairs.
func (p *PackageConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Transform             yaml.Node `yaml:"transform"`
		PreventFullExport     bool      `yaml:"preventFullExport"`
		SkipDefaultConversion bool      `yaml:"skipDefaultConversion"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	transform, err := decodeTransform(&raw.Transform)
	if err != nil {
		return err
	}

	p.Transform = transform
	p.PreventFullExport = raw.PreventFullExport
	p.SkipDefaultConversion = raw.SkipDefaultConversion
	return nil
}

func decodeTransform(node *yaml.Node) (Transform, error) {
	switch node.Kind {
	case 0:
		return nil, errors.New("missing transform")
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, fmt.Errorf("line %d: transform: %w", node.Line, err)
		}
		return Template(s), nil
	case yaml.SequenceNode:
		rules := make(MemberRules, 0, len(node.Content))
		for _, item := range node.Content {
			var pair []string
			if err := item.Decode(&pair); err != nil {
				return nil, fmt.Errorf("line %d: transform entry: %w", item.Line, err)
			}
			if len(pair) != 2 {
				return nil, fmt.Errorf("line %d: transform entry must be a [pattern, template] pair, got %d items", item.Line, len(pair))
			}
			rules = append(rules, MemberRule{Pattern: pair[0], Template: pair[1]})
		}
		return rules, nil
	default:
		return nil, fmt.Errorf("line %d: transform must be a string or a list of [pattern, template] pairs", node.Line)
	}
}

type digestEntry struct {
	Pattern               string      `json:"pattern"`
	Template              string      `json:"template,omitempty"`
	Members               [][2]string `json:"members,omitempty"`
	PreventFullExport     bool        `json:"preventFullExport"`
	SkipDefaultConversion bool        `json:"skipDefaultConversion"`
}

// Digest returns a BLAKE3 hash identifying the rules, order included.
func (c *Config) Digest() []byte {
	entries := make([]digestEntry, 0, len(c.Packages))
	for _, pkg := range c.Packages {
		e := digestEntry{
			Pattern:               pkg.Pattern,
			PreventFullExport:     pkg.Rule.PreventFullExport,
			SkipDefaultConversion: pkg.Rule.SkipDefaultConversion,
		}
		switch t := pkg.Rule.Transform.(type) {
		case Template:
			e.Template = string(t)
		case MemberRules:
			for _, m := range t {
				e.Members = append(e.Members, [2]string{m.Pattern, m.Template})
			}
		}
		entries = append(entries, e)
	}

	// Marshaling plain structs and slices cannot fail.
	data, _ := json.Marshal(entries)
	sum := blake3.Sum256(data)
	return sum[:]
}
