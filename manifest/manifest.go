// manifest/manifest.go
package manifest

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Abraxas-365/supportdesk/category"
	"github.com/Abraxas-365/supportdesk/router"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is written by Default
const CurrentVersion = "1"

// Manifest is the keyword configuration of the intent router
type Manifest struct {
	Version    string             `json:"version" yaml:"version"`
	Categories []CategoryKeywords `json:"categories" yaml:"categories"`
}

// CategoryKeywords is the keyword set of one domain category
type CategoryKeywords struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
}

// Category parses the entry name
func (c *CategoryKeywords) Category() (category.Category, error) {
	return category.Parse(c.Name)
}

var defaultDescriptions = map[category.Category]string{
	category.Order:   "Order tracking, status, cancellations and address changes",
	category.Billing: "Refunds, invoices and payments",
	category.Support: "Tickets, account questions, FAQs and anything else",
}

// Default builds a manifest from the router's built-in keyword sets
func Default() *Manifest {
	sets := router.DefaultKeywords()
	m := &Manifest{Version: CurrentVersion}
	for _, c := range category.Domains() {
		m.Categories = append(m.Categories, CategoryKeywords{
			Name:        c.String(),
			Description: defaultDescriptions[c],
			Keywords:    append([]string(nil), sets[c]...),
		})
	}
	return m
}

// Registry holds the loaded manifest and the keyword sets derived from it
type Registry struct {
	mu       sync.RWMutex
	manifest *Manifest
	sets     router.KeywordSets
}

// NewRegistry creates a new manifest registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Load validates and installs a manifest. Categories it does not list keep
// their built-in keywords.
func (r *Registry) Load(manifest *Manifest) error {
	if err := ValidateManifest(manifest); err != nil {
		return err
	}

	sets := router.DefaultKeywords()
	for _, entry := range manifest.Categories {
		c, _ := entry.Category()
		sets[c] = append([]string(nil), entry.Keywords...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest = manifest
	r.sets = sets
	return nil
}

// KeywordSets returns a copy of the active keyword sets
func (r *Registry) KeywordSets() (router.KeywordSets, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.manifest == nil {
		return nil, NewManifestNotLoadedError()
	}
	return r.sets.Clone(), nil
}

// KeywordSetsOrDefault is like KeywordSets but never returns an error
func (r *Registry) KeywordSetsOrDefault() router.KeywordSets {
	sets, err := r.KeywordSets()
	if err != nil {
		return router.DefaultKeywords()
	}
	return sets
}

// GetByCategory returns the manifest entry of a category
func (r *Registry) GetByCategory(c category.Category) *CategoryKeywords {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.manifest == nil {
		return nil
	}
	for i := range r.manifest.Categories {
		if parsed, err := r.manifest.Categories[i].Category(); err == nil && parsed == c {
			return &r.manifest.Categories[i]
		}
	}
	return nil
}

// GetManifest returns the loaded manifest
func (r *Registry) GetManifest() *Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.manifest
}

// Stats returns statistics about the loaded keyword sets
func (r *Registry) Stats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.manifest == nil {
		return map[string]any{"loaded": false}
	}

	keywords := make(map[string]int, len(r.sets))
	total := 0
	for c, words := range r.sets {
		keywords[c.String()] = len(words)
		total += len(words)
	}

	return map[string]any{
		"loaded":         true,
		"version":        r.manifest.Version,
		"categories":     len(r.manifest.Categories),
		"keywords":       keywords,
		"total_keywords": total,
	}
}

func (c *CategoryKeywords) String() string {
	return fmt.Sprintf("CategoryKeywords{name=%s, keywords=%d}", c.Name, len(c.Keywords))
}

// ToJSON converts manifest to JSON
func (m *Manifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ToYAML converts manifest to YAML
func (m *Manifest) ToYAML() ([]byte, error) {
	return yaml.Marshal(m)
}
