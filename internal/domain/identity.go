package domain

// Identity is the authenticated subject as delivered by the external
// identity provider.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}
