package domain

import (
	"strings"
	"time"
)

type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	EmailOptIn bool      `json:"emailOptIn"`
	SMSOptIn   bool      `json:"smsOptIn"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Key identifies the customer for order grouping: the record id when known,
// otherwise the lowercased email.
func (c Customer) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return strings.ToLower(c.Email)
}

// Merge applies incoming contact info over an existing record. Opt-in flags
// only ever widen: a checkout without the marketing checkbox ticked must not
// revoke a previously granted opt-in.
func Merge(existing, incoming Customer) Customer {
	merged := existing
	if incoming.Name != "" {
		merged.Name = incoming.Name
	}
	if incoming.Phone != "" {
		merged.Phone = incoming.Phone
	}
	merged.EmailOptIn = existing.EmailOptIn || incoming.EmailOptIn
	merged.SMSOptIn = existing.SMSOptIn || incoming.SMSOptIn
	return merged
}
