package analyzer

// Insight is the structured result of deep analysis for one repository.
// All fields are always non-nil after parsing; absence of the whole record
// means analysis failed or was skipped, never a partially filled one.
type Insight struct {
	Repo                 string   `json:"repo"`
	Concepts             []string `json:"concepts"`
	ArchitecturePatterns []string `json:"architecture_patterns"`
	Summary              string   `json:"summary"`
}
