// Package prompt turns a student message into the user-turn content sent to
// the model, using one of four templates selected by sensitivity and
// language.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateSet holds the system prompt and the four message templates.
type TemplateSet struct {
	System            string `yaml:"system"`
	Default           string `yaml:"default"`
	Sensitive         string `yaml:"sensitive"`
	Regional          string `yaml:"regional"`
	SensitiveRegional string `yaml:"sensitive_regional"`
}

// DefaultTemplates returns the built-in template set.
func DefaultTemplates() TemplateSet {
	return TemplateSet{
		System:            DefaultSystemPrompt,
		Default:           DefaultTemplate,
		Sensitive:         SensitiveTemplate,
		Regional:          RegionalTemplate,
		SensitiveRegional: SensitiveRegionalTemplate,
	}
}

// merge fills empty fields of s from base.
func (s TemplateSet) merge(base TemplateSet) TemplateSet {
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	}
	return TemplateSet{
		System:            pick(s.System, base.System),
		Default:           pick(s.Default, base.Default),
		Sensitive:         pick(s.Sensitive, base.Sensitive),
		Regional:          pick(s.Regional, base.Regional),
		SensitiveRegional: pick(s.SensitiveRegional, base.SensitiveRegional),
	}
}

// Validate checks that each message template has exactly one message
// placeholder and that the four templates differ.
func (s TemplateSet) Validate() error {
	var problems []string

	if strings.TrimSpace(s.System) == "" {
		problems = append(problems, "system prompt is empty")
	}

	named := []struct{ name, tpl string }{
		{"default", s.Default},
		{"sensitive", s.Sensitive},
		{"regional", s.Regional},
		{"sensitive_regional", s.SensitiveRegional},
	}
	seen := make(map[string]string, len(named))
	for _, n := range named {
		if c := strings.Count(n.tpl, MessagePlaceholder); c != 1 {
			problems = append(problems, fmt.Sprintf("%s template must contain %s exactly once, found %d", n.name, MessagePlaceholder, c))
		}
		if other, dup := seen[n.tpl]; dup {
			problems = append(problems, fmt.Sprintf("%s template duplicates %s", n.name, other))
		}
		seen[n.tpl] = n.name
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid templates: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Builder renders prompts. It is immutable and safe for concurrent use.
type Builder struct {
	system string
	// indexed by sensitive*2 + regional
	templates [4]string
}

// New validates set and binds the regional language name into it.
func New(set TemplateSet, regionalCode string) (*Builder, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	lang := LanguageName(regionalCode)
	bind := func(tpl string) string {
		return strings.ReplaceAll(tpl, LanguagePlaceholder, lang)
	}

	return &Builder{
		system: bind(set.System),
		templates: [4]string{
			bind(set.Default),
			bind(set.Regional),
			bind(set.Sensitive),
			bind(set.SensitiveRegional),
		},
	}, nil
}

// Default returns a builder over the built-in templates.
func Default(regionalCode string) *Builder {
	b, err := New(DefaultTemplates(), regionalCode)
	if err != nil {
		panic(fmt.Sprintf("built-in templates are invalid: %v", err))
	}
	return b
}

// Load reads template overrides from a YAML file. Fields left empty keep
// their built-in value. An empty path yields the built-in set.
func Load(path, regionalCode string) (*Builder, error) {
	if path == "" {
		return New(DefaultTemplates(), regionalCode)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var set TemplateSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}

	b, err := New(set.merge(DefaultTemplates()), regionalCode)
	if err != nil {
		return nil, fmt.Errorf("prompts file %s: %w", path, err)
	}
	return b, nil
}

// Build selects the template for (sensitive, regional) and embeds message
// verbatim.
func (b *Builder) Build(message string, sensitive, regional bool) string {
	idx := 0
	if sensitive {
		idx += 2
	}
	if regional {
		idx++
	}
	return strings.Replace(b.templates[idx], MessagePlaceholder, message, 1)
}

// SystemPrompt returns the system turn that seeds every history.
func (b *Builder) SystemPrompt() string {
	return b.system
}
