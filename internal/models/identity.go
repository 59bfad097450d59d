package models

// Identity is the signed-in person as reported by the identity provider.
// Only UID is guaranteed; the rest is whatever the provider knows.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Account is a credential row owned by the bundled identity provider.
type Account struct {
	// ID is the account's UUID. It doubles as Identity.UID.
	ID string

	Email       string
	DisplayName string

	// PasswordHash is a bcrypt hash; never serialized.
	PasswordHash string

	// Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Identity projects the account onto the provider's user record.
func (a *Account) Identity() *Identity {
	return &Identity{UID: a.ID, DisplayName: a.DisplayName, Email: a.Email}
}
