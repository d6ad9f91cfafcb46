// Package sensitivity flags messages that touch dropout-risk topics by
// case-insensitive substring matching against a keyword table.
package sensitivity

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Classifier holds an immutable keyword set. Safe for concurrent use.
type Classifier struct {
	keywords []string
	category map[string]string
}

// keywordFile is the YAML layout accepted by Load.
type keywordFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// New builds a classifier from keyword groups keyed by category.
// Keywords are normalised once; blanks and duplicates are dropped.
func New(categories map[string][]string) *Classifier {
	c := &Classifier{category: make(map[string]string)}

	for _, name := range slices.Sorted(maps.Keys(categories)) {
		for _, kw := range categories[name] {
			kw = normalize(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if _, seen := c.category[kw]; seen {
				continue
			}
			c.category[kw] = name
			c.keywords = append(c.keywords, kw)
		}
	}
	return c
}

// Default returns a classifier over the built-in table.
func Default() *Classifier {
	return New(defaultCategories)
}

// Load reads a YAML keyword table from path. An empty path yields Default.
func Load(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword file: %w", err)
	}

	var file keywordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse keyword file %s: %w", path, err)
	}

	c := New(file.Categories)
	if c.Len() == 0 {
		return nil, fmt.Errorf("keyword file %s defines no keywords", path)
	}
	return c, nil
}

// Classify reports whether text contains any keyword.
func (c *Classifier) Classify(text string) bool {
	_, ok := c.Match(text)
	return ok
}

// Match returns the first keyword found in text.
func (c *Classifier) Match(text string) (string, bool) {
	if c == nil || text == "" || len(c.keywords) == 0 {
		return "", false
	}
	lowered := normalize(text)
	for _, kw := range c.keywords {
		if strings.Contains(lowered, kw) {
			return kw, true
		}
	}
	return "", false
}

// Category returns the category a normalised keyword belongs to.
func (c *Classifier) Category(keyword string) string {
	if c == nil {
		return ""
	}
	return c.category[keyword]
}

// Len returns the number of distinct keywords.
func (c *Classifier) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keywords)
}

// normalize applies NFC then Unicode lower-casing. A Caser is stateful, so
// one is created per call.
func normalize(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}
