// internal/contacts/extractor.go
package contacts

import (
	"regexp"
	"strings"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

var (
	emailRe    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe    = regexp.MustCompile(`(?:\+?\d{1,3}[\s\-.]?)?(?:\(\d{2,4}\)[\s\-.]?)?\d{3,4}[\s\-.]\d{3,4}(?:[\s\-.]\d{2,4})?`)
	linkedinRe = regexp.MustCompile(`(?:https?://)?(?:www\.)?linkedin\.com/in/([a-zA-Z0-9\-_%]+)`)

	// "reach out to Jane Doe", "contact John Smith at ..."
	nameRe = regexp.MustCompile(`(?i)(?:contact|reach out to|recruiter|hiring manager)[:\s]+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2})`)
)

// junk addresses that appear in boilerplate footers
var ignoredEmailPrefixes = []string{"noreply@", "no-reply@", "donotreply@", "support@", "privacy@"}

// Extractor pulls HR contact details out of free-form posting text.
// Extraction is best effort: it never fails, it only finds less.
type Extractor struct {
	log logger.Logger
}

func NewExtractor(log logger.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract scans the posting description for emails, phone numbers,
// LinkedIn profiles, and recruiter names, and assembles deduplicated
// contacts. An empty slice means nothing usable was found.
func (e *Extractor) Extract(posting models.JobPosting) []models.HRContact {
	text := posting.Description
	if text == "" {
		return nil
	}

	emails := filterEmails(emailRe.FindAllString(text, -1))
	profiles := dedupe(normalizeProfiles(linkedinRe.FindAllStringSubmatch(text, -1)))
	phones := dedupe(filterPhones(phoneRe.FindAllString(text, -1)))
	names := extractNames(text)

	var contacts []models.HRContact
	seen := make(map[string]bool)

	add := func(c models.HRContact) {
		key := c.DedupKey()
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		contacts = append(contacts, c)
	}

	// Pair the strongest identifiers first; names and phones ride
	// along on the first contact rather than forming their own.
	for i, email := range dedupe(emails) {
		c := models.HRContact{
			Email:   email,
			Company: posting.Company,
		}
		if i == 0 {
			if len(names) > 0 {
				c.Name = names[0]
			}
			if len(phones) > 0 {
				c.Phone = phones[0]
			}
		}
		add(c)
	}

	for _, profile := range profiles {
		c := models.HRContact{
			LinkedIn: profile,
			Company:  posting.Company,
		}
		if len(contacts) == 0 && len(names) > 0 {
			c.Name = names[0]
		}
		add(c)
	}

	// A bare name with no email or profile is still worth keeping.
	if len(contacts) == 0 {
		for _, name := range names {
			c := models.HRContact{
				Name:    name,
				Company: posting.Company,
			}
			if len(phones) > 0 {
				c.Phone = phones[0]
			}
			add(c)
		}
	}

	if len(contacts) > 0 {
		e.log.Debug("Extracted HR contacts from posting", map[string]interface{}{
			"url":      posting.URL,
			"contacts": len(contacts),
		})
	}
	return contacts
}

func filterEmails(emails []string) []string {
	var out []string
	for _, email := range emails {
		lower := strings.ToLower(email)
		skip := false
		for _, prefix := range ignoredEmailPrefixes {
			if strings.HasPrefix(lower, prefix) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, lower)
		}
	}
	return out
}

func filterPhones(phones []string) []string {
	var out []string
	for _, phone := range phones {
		digits := 0
		for _, r := range phone {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		// Fewer than 8 digits is more likely a salary range or date.
		if digits >= 8 && digits <= 15 {
			out = append(out, strings.TrimSpace(phone))
		}
	}
	return out
}

func normalizeProfiles(matches [][]string) []string {
	var out []string
	for _, m := range matches {
		if len(m) > 1 {
			out = append(out, "https://linkedin.com/in/"+strings.TrimRight(m[1], "/"))
		}
	}
	return out
}

func extractNames(text string) []string {
	var out []string
	for _, m := range nameRe.FindAllStringSubmatch(text, -1) {
		if len(m) > 1 {
			out = append(out, m[1])
		}
	}
	return dedupe(out)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
