package analysis

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoleWeights is the relative weighting of the four sub-scores for one role
// family. Weights are normalized at use, so rows need not sum to 1.
type RoleWeights struct {
	Technical      float64 `yaml:"technical"`
	Communication  float64 `yaml:"communication"`
	ProblemSolving float64 `yaml:"problem_solving"`
	CulturalFit    float64 `yaml:"cultural_fit"`
}

// WeightTable maps job-title keywords to role weight rows.
type WeightTable struct {
	Roles map[string]RoleWeights `yaml:"roles"`
	// Keywords maps a role family to the job-title substrings that select it.
	Keywords map[string][]string `yaml:"keywords"`
	Default  RoleWeights         `yaml:"default"`
}

// DefaultWeightTable encodes the fixed role-sensitive configuration: senior
// and lead roles weight technical and communication higher, junior roles
// weight cultural fit higher, manager roles weight communication highest.
func DefaultWeightTable() WeightTable {
	return WeightTable{
		Roles: map[string]RoleWeights{
			"senior":  {Technical: 0.35, Communication: 0.30, ProblemSolving: 0.25, CulturalFit: 0.10},
			"manager": {Technical: 0.15, Communication: 0.40, ProblemSolving: 0.25, CulturalFit: 0.20},
			"junior":  {Technical: 0.20, Communication: 0.25, ProblemSolving: 0.20, CulturalFit: 0.35},
		},
		Keywords: map[string][]string{
			"senior":  {"senior", "staff", "principal", "lead", "architect"},
			"manager": {"manager", "director", "head of", "vp"},
			"junior":  {"junior", "intern", "graduate", "entry", "trainee"},
		},
		Default: RoleWeights{Technical: 0.30, Communication: 0.25, ProblemSolving: 0.25, CulturalFit: 0.20},
	}
}

// LoadWeightTable reads a YAML weight table from path, falling back to the
// embedded defaults when path is empty.
func LoadWeightTable(path string) (WeightTable, error) {
	if path == "" {
		return DefaultWeightTable(), nil
	}
	b, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		return WeightTable{}, fmt.Errorf("op=weights.load: %w", err)
	}
	var wt WeightTable
	if err := yaml.Unmarshal(b, &wt); err != nil {
		return WeightTable{}, fmt.Errorf("op=weights.load: %w", err)
	}
	if wt.Default == (RoleWeights{}) {
		wt.Default = DefaultWeightTable().Default
	}
	return wt, nil
}

// ForTitle selects the weight row whose keywords match the job title,
// falling back to the default row.
func (wt WeightTable) ForTitle(jobTitle string) RoleWeights {
	title := strings.ToLower(jobTitle)
	// Seniority keywords win over management keywords only if listed first;
	// check manager before senior so "Senior Engineering Manager" weighs as
	// a manager role.
	for _, family := range []string{"manager", "senior", "junior"} {
		for _, kw := range wt.Keywords[family] {
			if strings.Contains(title, kw) {
				if w, ok := wt.Roles[family]; ok {
					return w
				}
			}
		}
	}
	return wt.Default
}

// Apply computes the normalized weighted overall score.
func (w RoleWeights) Apply(technical, communication, problemSolving, culturalFit float64) float64 {
	sum := w.Technical + w.Communication + w.ProblemSolving + w.CulturalFit
	if sum <= 0 {
		return 0
	}
	return (technical*w.Technical + communication*w.Communication +
		problemSolving*w.ProblemSolving + culturalFit*w.CulturalFit) / sum
}
