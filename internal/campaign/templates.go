package campaign

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StepTemplate describes one workflow step's payload for an industry.
type StepTemplate struct {
	AgentRole string            `yaml:"agent_role"`
	Action    string            `yaml:"action"`
	Params    map[string]string `yaml:"params"`
}

// Template is one industry's campaign playbook: the payload for each of the
// five workflow steps, keyed by step type.
type Template struct {
	Industry string                  `yaml:"industry"`
	Steps    map[string]StepTemplate `yaml:"steps"`
}

// Catalog is the industry template catalog loaded from the YAML file named by
// CAMPAIGN_TEMPLATES_PATH.
type Catalog struct {
	templates map[string]Template
}

// LoadCatalog parses the template catalog. An industry appearing twice is a
// configuration error.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template catalog: %w", err)
	}

	var file struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}

	c := &Catalog{templates: make(map[string]Template, len(file.Templates))}
	for _, t := range file.Templates {
		key := strings.ToLower(strings.TrimSpace(t.Industry))
		if key == "" {
			return nil, fmt.Errorf("template catalog: template without industry")
		}
		if _, dup := c.templates[key]; dup {
			return nil, fmt.Errorf("template catalog: duplicate industry %q", key)
		}
		c.templates[key] = t
	}
	return c, nil
}

// Lookup returns the template for an industry, case-insensitively.
func (c *Catalog) Lookup(industry string) (Template, bool) {
	t, ok := c.templates[strings.ToLower(strings.TrimSpace(industry))]
	return t, ok
}

// Industries lists the industries the catalog covers.
func (c *Catalog) Industries() []string {
	out := make([]string, 0, len(c.templates))
	for k := range c.templates {
		out = append(out, k)
	}
	return out
}
