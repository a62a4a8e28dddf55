package domain

// AnalysisReport is the validated evaluation returned to the caller.
// Field names match the JSON contract the model is asked to produce.
type AnalysisReport struct {
	Score      float64       `json:"score" yaml:"score"`
	Level      string        `json:"level" yaml:"level"`
	Summary    string        `json:"summary" yaml:"summary"`
	Strengths  []string      `json:"strengths" yaml:"strengths"`
	Weaknesses []string      `json:"weaknesses" yaml:"weaknesses"`
	Metrics    Metrics       `json:"metrics" yaml:"metrics"`
	Roadmap    []RoadmapItem `json:"roadmap" yaml:"roadmap"`
}

// Metrics holds the six sub-metric scores, each in [0,100].
type Metrics struct {
	CodeQuality        float64 `json:"codeQuality" yaml:"codeQuality"`
	Documentation      float64 `json:"documentation" yaml:"documentation"`
	TestCoverage       float64 `json:"testCoverage" yaml:"testCoverage"`
	ProjectStructure   float64 `json:"projectStructure" yaml:"projectStructure"`
	GitPractices       float64 `json:"gitPractices" yaml:"gitPractices"`
	RealWorldRelevance float64 `json:"realWorldRelevance" yaml:"realWorldRelevance"`
}

// RoadmapItem is one improvement step.
type RoadmapItem struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Priority    string `json:"priority" yaml:"priority"`
}

// Level labels, ordered from lowest to highest.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelExpert       = "Expert"
)

// Roadmap priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// LevelBand maps an inclusive score range to a level label.
type LevelBand struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Level string `json:"level"`
}

// LevelBands is the fixed score → level lookup table.
var LevelBands = []LevelBand{
	{Min: 0, Max: 39, Level: LevelBeginner},
	{Min: 40, Max: 69, Level: LevelIntermediate},
	{Min: 70, Max: 89, Level: LevelAdvanced},
	{Min: 90, Max: 100, Level: LevelExpert},
}

// LevelFor returns the label for a score, clamping out-of-range values.
func LevelFor(score float64) string {
	for _, b := range LevelBands {
		if score < float64(b.Max+1) {
			return b.Level
		}
	}
	return LevelExpert
}

// IsLevel reports whether s is one of the fixed level labels.
func IsLevel(s string) bool {
	for _, b := range LevelBands {
		if b.Level == s {
			return true
		}
	}
	return false
}

// IsPriority reports whether s is a valid roadmap priority.
func IsPriority(s string) bool {
	switch s {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
