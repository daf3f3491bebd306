package domain

import "github.com/spec-kit/helpdesk-core/internal/gateway"

// DecodeTicket converts a raw gateway document into a Ticket.
func DecodeTicket(doc gateway.Document) (Ticket, error) {
	var t Ticket
	if err := doc.Decode(&t); err != nil {
		return Ticket{}, err
	}
	t.ID = doc.ID
	return t, nil
}

// DecodeProfile converts a raw gateway document into a UserProfile.
func DecodeProfile(doc gateway.Document) (UserProfile, error) {
	var p UserProfile
	if err := doc.Decode(&p); err != nil {
		return UserProfile{}, err
	}
	p.UID = doc.ID
	return p, nil
}
