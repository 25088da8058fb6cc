// internal/models/analysis.go
package models

// MatchAnalysis is the AI's estimate of resume/posting fit. Score is
// always within [0,100], including on every fallback path.
type MatchAnalysis struct {
	Score           int      `json:"matchScore"`
	MissingSkills   []string `json:"missingSkills"`
	Recommendations []string `json:"recommendations"`
}

// ClampScore forces a raw score into the valid [0,100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
