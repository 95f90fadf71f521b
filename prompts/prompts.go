// Package prompts holds the studio's prompt catalogue and the builders that
// turn user choices into model prompts.
package prompts

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"
	"text/template"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var catalogueYAML []byte

// Template is a scene preset.
type Template struct {
	Name     string `yaml:"name" json:"name"`
	Prompt   string `yaml:"prompt" json:"prompt"`
	Category string `yaml:"category" json:"category"`
	Product  string `yaml:"product" json:"product"`
	Scenario string `yaml:"scenario" json:"scenario"`
	Style    string `yaml:"style" json:"style"`
	Lighting string `yaml:"lighting" json:"lighting"`
}

// Brief returns the guided-generation fields the template fills in.
// The free-form prompt is left empty so Compose uses the fields.
func (t Template) Brief() Brief {
	return Brief{
		Product:   t.Product,
		Scenarios: []string{t.Scenario},
		Styles:    []string{t.Style},
		Lightings: []string{t.Lighting},
	}
}

// Quick is a short edit prompt with a label.
type Quick struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Prompt      string `yaml:"prompt" json:"prompt"`
}

// Preset is an edit prompt rendered from an image analysis.
type Preset struct {
	ID          string
	Name        string
	Description string

	tmpl *template.Template
}

// Build renders the preset for the analysis.
func (p *Preset) Build(a vitrine.AnalysisResult) (string, error) {
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, a); err != nil {
		return "", fmt.Errorf("render preset %s: %w", p.ID, err)
	}
	return sb.String(), nil
}

var funcs = template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}

// Catalogue is a parsed prompt collection.
type Catalogue struct {
	Templates []Template
	Quick     []Quick
	Presets   []*Preset
}

type catalogueFile struct {
	Templates []Template `yaml:"templates"`
	Quick     []Quick    `yaml:"quick"`
	Precision []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Prompt      string `yaml:"prompt"`
	} `yaml:"precision"`
}

// Parse reads a catalogue from YAML.
func Parse(data []byte) (*Catalogue, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prompt catalogue: %w", err)
	}

	c := &Catalogue{Templates: f.Templates, Quick: f.Quick}
	seen := make(map[string]bool, len(f.Precision))
	for _, p := range f.Precision {
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("parse prompt catalogue: missing or duplicate preset id %q", p.ID)
		}
		seen[p.ID] = true
		tmpl, err := template.New(p.ID).Funcs(funcs).Option("missingkey=error").Parse(p.Prompt)
		if err != nil {
			return nil, fmt.Errorf("parse preset %s: %w", p.ID, err)
		}
		c.Presets = append(c.Presets, &Preset{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			tmpl:        tmpl,
		})
	}
	return c, nil
}

var defaultCatalogue = sync.OnceValues(func() (*Catalogue, error) {
	return Parse(catalogueYAML)
})

// Default returns the embedded catalogue.
func Default() (*Catalogue, error) {
	return defaultCatalogue()
}

// Template finds a template by name.
func (c *Catalogue) Template(name string) (Template, bool) {
	i := slices.IndexFunc(c.Templates, func(t Template) bool { return t.Name == name })
	if i < 0 {
		return Template{}, false
	}
	return c.Templates[i], true
}

// Preset finds a precision preset by id.
func (c *Catalogue) Preset(id string) (*Preset, bool) {
	i := slices.IndexFunc(c.Presets, func(p *Preset) bool { return p.ID == id })
	if i < 0 {
		return nil, false
	}
	return c.Presets[i], true
}

// Categories returns the distinct template categories in catalogue order.
func (c *Catalogue) Categories() []string {
	var out []string
	for _, t := range c.Templates {
		if t.Category != "" && !slices.Contains(out, t.Category) {
			out = append(out, t.Category)
		}
	}
	return out
}

// ByCategory returns the templates in category.
func (c *Catalogue) ByCategory(category string) []Template {
	var out []Template
	for _, t := range c.Templates {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}
