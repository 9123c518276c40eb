package manifest

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names the grammar used to parse a manifest file.
type Format string

const (
	FormatPackageJSON     Format = "package-json"
	FormatRequirementsTxt Format = "requirements-txt"
	FormatPipfile         Format = "pipfile"
	FormatSetupPy         Format = "setup-py"
	FormatGoMod           Format = "go-mod"
	FormatCargoToml       Format = "cargo-toml"
	FormatGemfile         Format = "gemfile"
)

// FileSpec binds a manifest filename to its parsing grammar.
type FileSpec struct {
	Filename string `yaml:"filename"`
	Format   Format `yaml:"format"`
}

// Table maps a lowercased language name to the manifest files that declare
// its dependencies. It is a versioned data asset, not pipeline logic: the
// built-in defaults may be replaced wholesale from a YAML file.
type Table map[string][]FileSpec

// DefaultTable returns the built-in language to manifest-file mapping.
func DefaultTable() Table {
	return Table{
		"python": {
			{Filename: "requirements.txt", Format: FormatRequirementsTxt},
			{Filename: "Pipfile", Format: FormatPipfile},
			{Filename: "setup.py", Format: FormatSetupPy},
		},
		"javascript": {
			{Filename: "package.json", Format: FormatPackageJSON},
		},
		"typescript": {
			{Filename: "package.json", Format: FormatPackageJSON},
		},
		"php": {
			{Filename: "composer.json", Format: FormatPackageJSON},
		},
		"go": {
			{Filename: "go.mod", Format: FormatGoMod},
		},
		"rust": {
			{Filename: "Cargo.toml", Format: FormatCargoToml},
		},
		"ruby": {
			{Filename: "Gemfile", Format: FormatGemfile},
		},
	}
}

// LoadTable reads a replacement table from a YAML file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest table: %w", err)
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing manifest table %q: %w", path, err)
	}

	normalized := make(Table, len(table))
	for lang, specs := range table {
		normalized[strings.ToLower(strings.TrimSpace(lang))] = specs
	}

	return normalized, nil
}

// Languages returns the languages known to the table, sorted.
func (t Table) Languages() []string {
	langs := make([]string, 0, len(t))
	for lang := range t {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Lookup returns the manifest specs for a language, case-insensitively.
func (t Table) Lookup(language string) []FileSpec {
	return t[strings.ToLower(strings.TrimSpace(language))]
}
