package crm

import (
	"context"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

// ContactAPI is the CRM surface the syncer depends on.
type ContactAPI interface {
	CreateContact(ctx context.Context, contact *Contact) (string, error)
	SearchContacts(ctx context.Context, email string) ([]Contact, error)
}

// Syncer mirrors extracted HR contacts into the CRM. The mirror is
// strictly optional: every failure is logged and swallowed so a CRM
// outage never touches pipeline outcomes.
type Syncer struct {
	client ContactAPI
	log    logger.Logger
}

func NewSyncer(client ContactAPI, log logger.Logger) *Syncer {
	return &Syncer{client: client, log: log}
}

// SyncContacts pushes contacts that carry an email and are not already
// present in the CRM. Returns the number created.
func (s *Syncer) SyncContacts(ctx context.Context, contacts []models.HRContact) int {
	created := 0
	for _, contact := range contacts {
		// The CRM keys contacts on email; nothing else is syncable.
		if contact.Email == "" {
			continue
		}

		existing, err := s.client.SearchContacts(ctx, contact.Email)
		if err != nil {
			s.log.Warn("CRM contact lookup failed", map[string]interface{}{
				"email": contact.Email,
				"error": err.Error(),
			})
			continue
		}
		if len(existing) > 0 {
			continue
		}

		first, last := SplitName(contact.Name)
		if last == "" {
			last = contact.Email
		}

		id, err := s.client.CreateContact(ctx, &Contact{
			Email:     contact.Email,
			FirstName: first,
			LastName:  last,
			Phone:     contact.Phone,
			Company:   contact.Company,
			Source:    "job-automation",
		})
		if err != nil {
			s.log.Warn("CRM contact creation failed", map[string]interface{}{
				"email": contact.Email,
				"error": err.Error(),
			})
			continue
		}

		s.log.Debug("Mirrored HR contact into CRM", map[string]interface{}{
			"email":     contact.Email,
			"contactId": id,
		})
		created++
	}
	return created
}
