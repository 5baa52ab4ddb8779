package services

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"financas/internal/core"
)

// CategoryRule maps a description keyword to a category.
type CategoryRule struct {
	Keyword  string `toml:"keyword"`
	Category string `toml:"category"`
}

// Categorizer assigns categories to transactions by keyword matching on
// the description. First matching rule wins; no match yields the catch-all
// category.
type Categorizer struct {
	rules []CategoryRule
}

// defaultRules is the built-in keyword table used when no rules file is
// configured.
var defaultRules = []CategoryRule{
	{Keyword: "mercado", Category: "Alimentação"},
	{Keyword: "supermercado", Category: "Alimentação"},
	{Keyword: "restaurante", Category: "Alimentação"},
	{Keyword: "ifood", Category: "Alimentação"},
	{Keyword: "uber", Category: "Transporte"},
	{Keyword: "gasolina", Category: "Transporte"},
	{Keyword: "ônibus", Category: "Transporte"},
	{Keyword: "aluguel", Category: "Moradia"},
	{Keyword: "condomínio", Category: "Moradia"},
	{Keyword: "farmácia", Category: "Saúde"},
	{Keyword: "médico", Category: "Saúde"},
	{Keyword: "curso", Category: "Educação"},
	{Keyword: "cinema", Category: "Lazer"},
	{Keyword: "netflix", Category: "Lazer"},
	{Keyword: "luz", Category: "Contas"},
	{Keyword: "internet", Category: "Contas"},
	{Keyword: "salário", Category: "Salário"},
}

// NewCategorizer returns a categorizer with the built-in rules.
func NewCategorizer() *Categorizer {
	return &Categorizer{rules: defaultRules}
}

// LoadCategorizer reads keyword rules from a TOML file:
//
//	[[rule]]
//	keyword = "padaria"
//	category = "Alimentação"
func LoadCategorizer(path string) (*Categorizer, error) {
	var doc struct {
		Rules []CategoryRule `toml:"rule"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("decode category rules: %w", err)
	}
	rules := make([]CategoryRule, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		if strings.TrimSpace(r.Keyword) == "" || strings.TrimSpace(r.Category) == "" {
			continue
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		rules = defaultRules
	}
	return &Categorizer{rules: rules}, nil
}

// Categorize returns the category for a description. Matching is
// case-insensitive substring.
func (c *Categorizer) Categorize(description string) string {
	desc := strings.ToLower(description)
	for _, r := range c.rules {
		if strings.Contains(desc, strings.ToLower(r.Keyword)) {
			return r.Category
		}
	}
	return core.CategoryOther
}
