// internal/ai/prompts.go
package ai

import (
	"fmt"
	"strings"
)

func buildAnalyzePrompt(resume, description string) string {
	var parts []string

	parts = append(parts, "You are a technical recruiter. Compare the resume below against the job description.")
	parts = append(parts, "\nResume:\n"+resume)
	parts = append(parts, "\nJob Description:\n"+description)
	parts = append(parts, "\nRespond with ONLY a JSON object, no prose, in this exact shape:")
	parts = append(parts, `{"matchScore": <integer 0-100>, "missingSkills": [<strings>], "recommendations": [<strings>]}`)

	return strings.Join(parts, "\n")
}

func buildCustomizePrompt(resume, description, title, company string) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Rewrite the resume below to target the role %q at %q.", title, company))
	parts = append(parts, "Keep every factual claim; only reorder, reword, and emphasize relevant experience.")
	parts = append(parts, "Do not invent skills or employers. Return the full rewritten resume as plain text.")
	parts = append(parts, "\nJob Description:\n"+description)
	parts = append(parts, "\nResume:\n"+resume)

	return strings.Join(parts, "\n")
}
