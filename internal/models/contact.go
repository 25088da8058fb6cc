// internal/models/contact.go
package models

// HRContact is a recruiter or HR contact extracted best-effort from a job
// page. All fields are optional except that at least one of Email,
// LinkedIn or Name must be present for the contact to be keyable.
type HRContact struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	LinkedIn string `json:"linkedinProfile,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// DedupKey returns the first of email, profile link, or name that is
// present. An empty key means the contact is not storable.
func (c HRContact) DedupKey() string {
	if c.Email != "" {
		return c.Email
	}
	if c.LinkedIn != "" {
		return c.LinkedIn
	}
	return c.Name
}
