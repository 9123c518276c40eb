package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseInsight validates and coerces the raw model response into an Insight.
// Required fields default to empty rather than failing; only a structurally
// unparseable response is an error.
func parseInsight(repo, raw string) (*Insight, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}

	return &Insight{
		Repo:                 repo,
		Concepts:             coerceStringSlice(data["concepts"]),
		ArchitecturePatterns: coerceStringSlice(data["architecture_patterns"]),
		Summary:              coerceString(data["summary"]),
	}, nil
}

// extractJSON strips a markdown code fence from the model output, if any.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		s := coerceString(item)
		if s == "" {
			continue
		}
		result = append(result, s)
	}
	return result
}
