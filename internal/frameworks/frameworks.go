// Package frameworks maps normalized dependency sets to known frameworks
// using a static signature table. Matching is pure: no network, no state.
package frameworks

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/yihu111/tech-europe-hackathon/internal/manifest"

	"gopkg.in/yaml.v3"
)

// Match records one recognized framework for a repository. Confidence is the
// fraction of the framework's signature packages present in the dependency
// set, in (0, 1].
type Match struct {
	Repo       string  `json:"repo"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Signatures maps a lowercased language to framework signatures: framework
// display name to the package names that indicate it.
type Signatures map[string]map[string][]string

// DefaultSignatures returns the built-in framework signature table.
func DefaultSignatures() Signatures {
	return Signatures{
		"python": {
			"FastAPI":      {"fastapi"},
			"Flask":        {"flask"},
			"Django":       {"django"},
			"PyTorch":      {"torch", "pytorch"},
			"TensorFlow":   {"tensorflow"},
			"scikit-learn": {"scikit-learn", "sklearn"},
			"pandas":       {"pandas"},
			"LangChain":    {"langchain", "langchain-openai", "langgraph"},
		},
		"javascript": {
			"React":   {"react"},
			"Vue":     {"vue"},
			"Angular": {"@angular/core", "angular"},
			"Next.js": {"next"},
			"Express": {"express"},
			"Svelte":  {"svelte"},
			"Vite":    {"vite"},
		},
		"typescript": {
			"React":   {"react"},
			"Vue":     {"vue"},
			"Angular": {"@angular/core", "angular"},
			"Next.js": {"next"},
			"NestJS":  {"@nestjs/core", "nestjs"},
			"Express": {"express"},
			"Vite":    {"vite"},
		},
		"go": {
			"Gin":   {"github.com/gin-gonic/gin"},
			"Echo":  {"github.com/labstack/echo/v4", "github.com/labstack/echo"},
			"Fiber": {"github.com/gofiber/fiber/v2", "github.com/gofiber/fiber"},
			"chi":   {"github.com/go-chi/chi/v5", "github.com/go-chi/chi"},
			"Cobra": {"github.com/spf13/cobra"},
		},
		"rust": {
			"Actix":  {"actix-web"},
			"Axum":   {"axum"},
			"Rocket": {"rocket"},
			"Tokio":  {"tokio"},
		},
		"ruby": {
			"Rails":   {"rails"},
			"Sinatra": {"sinatra"},
		},
		"php": {
			"Laravel": {"laravel/framework"},
			"Symfony": {"symfony/symfony", "symfony/framework-bundle"},
		},
	}
}

// LoadSignatures reads a replacement signature table from a YAML file.
func LoadSignatures(path string) (Signatures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading framework signatures: %w", err)
	}

	var sigs Signatures
	if err := yaml.Unmarshal(data, &sigs); err != nil {
		return nil, fmt.Errorf("parsing framework signatures %q: %w", path, err)
	}

	normalized := make(Signatures, len(sigs))
	for lang, table := range sigs {
		normalized[strings.ToLower(strings.TrimSpace(lang))] = table
	}

	return normalized, nil
}

type Matcher struct {
	signatures Signatures
}

func NewMatcher(signatures Signatures) *Matcher {
	if signatures == nil {
		signatures = DefaultSignatures()
	}
	return &Matcher{signatures: signatures}
}

// Match returns the frameworks whose signature packages intersect the
// dependency set. Results are sorted by name for determinism.
func (m *Matcher) Match(set manifest.DependencySet) []Match {
	table := m.signatures[strings.ToLower(strings.TrimSpace(set.Language))]
	if len(table) == 0 || len(set.Packages) == 0 {
		return nil
	}

	present := make(map[string]struct{}, len(set.Packages))
	for _, pkg := range set.Packages {
		present[strings.ToLower(pkg)] = struct{}{}
	}

	var matches []Match
	for name, signature := range table {
		hits := 0
		for _, pkg := range signature {
			if _, ok := present[strings.ToLower(pkg)]; ok {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		matches = append(matches, Match{
			Repo:       set.Repo,
			Name:       name,
			Confidence: float64(hits) / float64(len(signature)),
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	return matches
}
