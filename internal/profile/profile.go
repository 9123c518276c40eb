// Package profile is the reduce stage: it merges per-repository
// classification and analysis records into one aggregated developer profile.
package profile

import (
	"encoding/json"
	"sort"

	"github.com/yihu111/tech-europe-hackathon/internal/analyzer"
	"github.com/yihu111/tech-europe-hackathon/internal/frameworks"
)

// AggregatedProfile is the single output of one analysis run. It is
// immutable once produced; re-running analysis supersedes it.
type AggregatedProfile struct {
	Identifier string             `json:"identifier"`
	Skills     map[string]float64 `json:"skills"`
	Frameworks []frameworks.Match `json:"frameworks"`
	Insights   []analyzer.Insight `json:"insights"`
	RepoCount  int                `json:"repo_count"`

	// skillOrder records first-seen order for deterministic ranking.
	skillOrder []string
}

// RankedSkill pairs a skill name with its normalized weight.
type RankedSkill struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// RankedSkills returns skills by descending weight. Equal weights keep
// the order in which the skills were first encountered during the merge.
func (p *AggregatedProfile) RankedSkills() []RankedSkill {
	order := p.skillOrder
	if order == nil {
		// Profiles deserialized from JSON have no recorded merge order;
		// fall back to name order so ranking stays deterministic.
		order = make([]string, 0, len(p.Skills))
		for name := range p.Skills {
			order = append(order, name)
		}
		sort.Strings(order)
	}

	ranked := make([]RankedSkill, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, RankedSkill{Name: name, Weight: p.Skills[name]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})

	return ranked
}

// TopSkills returns up to n skill names, best first.
func (p *AggregatedProfile) TopSkills(n int) []string {
	ranked := p.RankedSkills()
	if n > len(ranked) {
		n = len(ranked)
	}

	names := make([]string, 0, n)
	for _, skill := range ranked[:n] {
		names = append(names, skill.Name)
	}
	return names
}

// MarshalIndent serializes the profile as pretty-printed JSON, suitable
// for dumping to a file.
func (p *AggregatedProfile) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// UnmarshalProfile reads a profile previously dumped with MarshalIndent.
func UnmarshalProfile(data []byte) (*AggregatedProfile, error) {
	var p AggregatedProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Skills == nil {
		p.Skills = map[string]float64{}
	}
	return &p, nil
}
