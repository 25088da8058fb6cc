// internal/models/artifact.go
package models

// ResumeArtifact captures the resume text pair for one (user, job):
// the original and whatever the customization stage produced. Immutable
// once written. When customization fails, CustomizedContent equals
// OriginalContent verbatim and CustomizationSuccessful is false.
type ResumeArtifact struct {
	UserID                  string `json:"userId"`
	JobID                   string `json:"jobId"`
	OriginalContent         string `json:"originalContent"`
	CustomizedContent       string `json:"customizedContent"`
	FormatType              string `json:"formatType"`
	CustomizationSuccessful bool   `json:"customizationSuccessful"`
}
