// internal/models/user.go
package models

// User is one account with its linked external identities resolved by
// deterministic keys. A user is eligible for unattended automation only
// when both identities are linked and the automation flag is on.
type User struct {
	ID                string         `json:"id"`
	Email             string         `json:"email"`
	Phone             string         `json:"phone,omitempty"`
	GoogleID          string         `json:"googleId,omitempty"`
	LinkedInID        string         `json:"linkedinId,omitempty"`
	AutomationEnabled bool           `json:"automationEnabled"`
	ResumeText        string         `json:"-"`
	ArtifactBucket    string         `json:"artifactBucket,omitempty"`
	Criteria          SearchCriteria `json:"criteria"`
}

// AutomationEligible reports whether the scheduler may run for this user.
func (u User) AutomationEligible() bool {
	return u.GoogleID != "" && u.LinkedInID != "" && u.AutomationEnabled
}
