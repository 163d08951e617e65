// Package templates ships the industry copy presets used on review pages.
package templates

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"review_hero/internal/domain"
)

//go:embed industries.yaml
var industriesYAML []byte

type copyBlock struct {
	Icon                string `yaml:"icon"`
	CelebrationHeadline string `yaml:"celebration_headline"`
	CelebrationBody     string `yaml:"celebration_body"`
	ReviewAsk           string `yaml:"review_ask"`
	GoogleHeadline      string `yaml:"google_headline"`
	GoogleSubhead       string `yaml:"google_subhead"`
	ReferralHeadline    string `yaml:"referral_headline"`
	ReferralBody        string `yaml:"referral_body"`
}

type entry struct {
	Slug      string `yaml:"slug"`
	Name      string `yaml:"name"`
	Category  string `yaml:"category"`
	Active    *bool  `yaml:"active"`
	copyBlock `yaml:",inline"`
}

type file struct {
	Default   copyBlock `yaml:"default"`
	Templates []entry   `yaml:"templates"`
}

// Catalog is the parsed preset file. Templates keep file order.
type Catalog struct {
	Default   domain.IndustryTemplate
	Templates []domain.IndustryTemplate
}

var (
	once    sync.Once
	loaded  Catalog
	loadErr error
)

// Load parses the embedded catalogue once.
func Load() (Catalog, error) {
	once.Do(func() { loaded, loadErr = Parse(industriesYAML) })
	return loaded, loadErr
}

// MustLoad is Load for process start-up.
func MustLoad() Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func Parse(b []byte) (Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Catalog{}, fmt.Errorf("parse industries: %w", err)
	}
	c := Catalog{Default: f.Default.toDomain()}
	c.Default.Slug = "default"
	c.Default.Name = "Default"
	c.Default.IsActive = true

	seen := make(map[string]bool, len(f.Templates))
	for i, e := range f.Templates {
		if e.Slug == "" || e.Name == "" || e.Category == "" {
			return Catalog{}, fmt.Errorf("template %d: slug, name and category are required", i)
		}
		if seen[e.Slug] {
			return Catalog{}, fmt.Errorf("template %q: duplicate slug", e.Slug)
		}
		seen[e.Slug] = true

		t := e.copyBlock.toDomain()
		t.Slug, t.Name, t.Category = e.Slug, e.Name, e.Category
		t.IsActive = e.Active == nil || *e.Active
		t.SortOrder = i
		c.Templates = append(c.Templates, t)
	}
	return c, nil
}

func (b copyBlock) toDomain() domain.IndustryTemplate {
	t := domain.IndustryTemplate{
		CelebrationHeadline: b.CelebrationHeadline,
		CelebrationBody:     b.CelebrationBody,
		ReviewAsk:           b.ReviewAsk,
		GoogleHeadline:      b.GoogleHeadline,
		GoogleSubhead:       b.GoogleSubhead,
		ReferralHeadline:    b.ReferralHeadline,
		ReferralBody:        b.ReferralBody,
	}
	if b.Icon != "" {
		icon := b.Icon
		t.Icon = &icon
	}
	return t
}

// Categories returns the distinct categories of active templates in file order.
func (c Catalog) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range c.Templates {
		if !t.IsActive || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	return out
}
