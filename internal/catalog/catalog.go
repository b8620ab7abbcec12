// SPDX-License-Identifier: Apache-2.0

// Package catalog loads the static step catalog and workflow templates from
// an embedded YAML artifact and serves read-only lookups. The catalog is
// immutable after Load and safe to share across concurrent executions.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/credentia/credential-runtime/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

type Catalog struct {
	steps     map[string]domain.StepDefinition
	order     []string
	templates map[string]domain.WorkflowTemplate
}

type catalogFile struct {
	Steps     []domain.StepDefinition   `yaml:"steps"`
	Templates []domain.WorkflowTemplate `yaml:"templates"`
}

// Load parses the embedded catalog artifact. It fails fast on malformed
// definitions and on dependencies referencing ids outside the catalog; those
// are configuration defects, not runtime conditions.
func Load() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("catalog contains no steps")
	}

	c := &Catalog{
		steps:     make(map[string]domain.StepDefinition, len(file.Steps)),
		order:     make([]string, 0, len(file.Steps)),
		templates: make(map[string]domain.WorkflowTemplate, len(file.Templates)),
	}

	for _, step := range file.Steps {
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog entry: %w", err)
		}
		if _, exists := c.steps[step.ID]; exists {
			return nil, fmt.Errorf("duplicate catalog step id %s", step.ID)
		}
		c.steps[step.ID] = step
		c.order = append(c.order, step.ID)
	}

	for _, step := range file.Steps {
		for _, dep := range step.DependsOn {
			if _, ok := c.steps[dep]; !ok {
				return nil, fmt.Errorf("step %s depends on %s which is not in the catalog", step.ID, dep)
			}
		}
	}

	for _, tpl := range file.Templates {
		if tpl.Name == "" {
			return nil, fmt.Errorf("template with empty name")
		}
		for _, id := range tpl.StepIDs {
			if _, ok := c.steps[id]; !ok {
				return nil, fmt.Errorf("template %s references unknown step %s", tpl.Name, id)
			}
		}
		c.templates[tpl.Name] = tpl
	}

	return c, nil
}

// Get returns the definition for id, or ErrUnknownStep.
func (c *Catalog) Get(id string) (domain.StepDefinition, error) {
	step, ok := c.steps[id]
	if !ok {
		return domain.StepDefinition{}, fmt.Errorf("%w: %s", domain.ErrUnknownStep, id)
	}
	return step, nil
}

// Template returns the named template, or ErrTemplateNotFound.
func (c *Catalog) Template(name string) (domain.WorkflowTemplate, error) {
	tpl, ok := c.templates[name]
	if !ok {
		return domain.WorkflowTemplate{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, name)
	}
	return tpl, nil
}

// StepIDs returns all step ids in catalog file order.
func (c *Catalog) StepIDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Templates returns all templates sorted by name.
func (c *Catalog) Templates() []domain.WorkflowTemplate {
	out := make([]domain.WorkflowTemplate, 0, len(c.templates))
	for _, tpl := range c.templates {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
