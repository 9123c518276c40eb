package manifest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError indicates a manifest file exists but is structurally
// unparseable. Callers fall back to an empty package set rather than
// aborting the pipeline.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse extracts normalized (lowercased, version-stripped) package names
// from manifest content using the given grammar.
func Parse(format Format, path, content string) ([]string, error) {
	switch format {
	case FormatPackageJSON:
		return parsePackageJSON(path, content)
	case FormatRequirementsTxt:
		return parseRequirementsTxt(content), nil
	case FormatPipfile:
		return parsePipfile(content), nil
	case FormatSetupPy:
		return parseSetupPy(content), nil
	case FormatGoMod:
		return parseGoMod(content), nil
	case FormatCargoToml:
		return parseCargoToml(content), nil
	case FormatGemfile:
		return parseGemfile(content), nil
	default:
		return nil, &ParseError{Path: path, Err: fmt.Errorf("unknown manifest format %q", format)}
	}
}

// parsePackageJSON handles package.json and composer.json: dependencies and
// devDependencies/require sections keyed by package name.
func parsePackageJSON(path, content string) ([]string, error) {
	var data struct {
		Dependencies    map[string]any `json:"dependencies"`
		DevDependencies map[string]any `json:"devDependencies"`
		Require         map[string]any `json:"require"`
		RequireDev      map[string]any `json:"require-dev"`
	}

	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var packages []string
	for _, section := range []map[string]any{data.Dependencies, data.DevDependencies, data.Require, data.RequireDev} {
		for name := range section {
			packages = append(packages, strings.ToLower(name))
		}
	}

	return packages, nil
}

var (
	requirementSplit = regexp.MustCompile(`[<>=!~;]`)
	extrasPattern    = regexp.MustCompile(`\[.*\]`)
	installRequires  = regexp.MustCompile(`(?s)install_requires\s*=\s*\[(.*?)\]`)
	quotedName       = regexp.MustCompile(`['"]([^'"]+)['"]`)
	gemPattern       = regexp.MustCompile(`^\s*gem\s+['"]([^'"]+)['"]`)
)

// parseRequirementsTxt ignores comments and strips version specifiers and
// extras, e.g. package[extra]==1.0.0 becomes package.
func parseRequirementsTxt(content string) []string {
	var packages []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}

		pkg := strings.TrimSpace(requirementSplit.Split(line, 2)[0])
		pkg = extrasPattern.ReplaceAllString(pkg, "")
		if pkg == "" {
			continue
		}
		packages = append(packages, strings.ToLower(pkg))
	}
	return packages
}

func parsePipfile(content string) []string {
	var packages []string
	section := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			section = strings.ToLower(line)
			continue
		}
		if (section == "[packages]" || section == "[dev-packages]") && strings.Contains(line, "=") {
			pkg := strings.TrimSpace(strings.SplitN(line, "=", 2)[0])
			pkg = strings.Trim(pkg, `"'`)
			if pkg != "" {
				packages = append(packages, strings.ToLower(pkg))
			}
		}
	}
	return packages
}

func parseSetupPy(content string) []string {
	match := installRequires.FindStringSubmatch(content)
	if match == nil {
		return nil
	}

	var packages []string
	for _, quoted := range quotedName.FindAllStringSubmatch(match[1], -1) {
		pkg := strings.TrimSpace(requirementSplit.Split(quoted[1], 2)[0])
		pkg = extrasPattern.ReplaceAllString(pkg, "")
		if pkg != "" {
			packages = append(packages, strings.ToLower(pkg))
		}
	}
	return packages
}

// parseGoMod extracts module paths from require directives, both single-line
// and block form. Indirect dependencies are kept: they are still signal.
func parseGoMod(content string) []string {
	var packages []string
	inBlock := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "require ("):
			inBlock = true
			continue
		case inBlock && line == ")":
			inBlock = false
			continue
		case strings.HasPrefix(line, "require "):
			line = strings.TrimSpace(strings.TrimPrefix(line, "require"))
		case !inBlock:
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "//") {
			continue
		}
		packages = append(packages, strings.ToLower(fields[0]))
	}
	return packages
}

func parseCargoToml(content string) []string {
	var packages []string
	section := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			section = strings.ToLower(strings.Trim(line, "[]"))
			continue
		}
		if section != "dependencies" && section != "dev-dependencies" && section != "build-dependencies" {
			continue
		}
		if !strings.Contains(line, "=") {
			continue
		}
		pkg := strings.TrimSpace(strings.SplitN(line, "=", 2)[0])
		if pkg != "" && !strings.HasPrefix(pkg, "#") {
			packages = append(packages, strings.ToLower(pkg))
		}
	}
	return packages
}

func parseGemfile(content string) []string {
	var packages []string
	for _, line := range strings.Split(content, "\n") {
		if match := gemPattern.FindStringSubmatch(line); match != nil {
			packages = append(packages, strings.ToLower(match[1]))
		}
	}
	return packages
}
