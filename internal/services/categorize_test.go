package services

import (
	"os"
	"path/filepath"
	"testing"

	"financas/internal/core"
)

func TestCategorizer_BuiltinRules(t *testing.T) {
	c := NewCategorizer()

	tests := []struct {
		description string
		want        string
	}{
		{"Mercado Extra", "Alimentação"},
		{"UBER viagem centro", "Transporte"},
		{"Netflix mensal", "Lazer"},
		{"Conta de luz", "Contas"},
		{"algo sem palavra-chave", core.CategoryOther},
	}

	for _, tt := range tests {
		if got := c.Categorize(tt.description); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.description, got, tt.want)
		}
	}
}

func TestLoadCategorizer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")
	content := `
[[rule]]
keyword = "padaria"
category = "Alimentação"

[[rule]]
keyword = "academia"
category = "Saúde"

[[rule]]
keyword = "  "
category = "ignored"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCategorizer(path)
	if err != nil {
		t.Fatalf("LoadCategorizer: %v", err)
	}

	if got := c.Categorize("Padaria do bairro"); got != "Alimentação" {
		t.Errorf("Categorize(padaria) = %q", got)
	}
	if got := c.Categorize("mensalidade academia"); got != "Saúde" {
		t.Errorf("Categorize(academia) = %q", got)
	}
	// File rules replace the built-ins entirely.
	if got := c.Categorize("uber"); got != core.CategoryOther {
		t.Errorf("Categorize(uber) = %q, want %q with custom rules", got, core.CategoryOther)
	}
}

func TestLoadCategorizer_EmptyFileFallsBackToBuiltins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCategorizer(path)
	if err != nil {
		t.Fatalf("LoadCategorizer: %v", err)
	}
	if got := c.Categorize("mercado"); got != "Alimentação" {
		t.Errorf("Categorize(mercado) = %q, want built-in rule match", got)
	}
}

func TestLoadCategorizer_MissingFile(t *testing.T) {
	if _, err := LoadCategorizer("/does/not/exist.toml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
