package auth

import (
	"context"

	"github.com/mmynk/portfolio/internal/models"
)

// Authenticator verifies credentials for the bundled identity provider.
// Swapping it (passkeys, an upstream OAuth provider) does not change the
// provider's sign-in flows.
type Authenticator interface {
	// Register creates a new account with the given email and credential.
	// The credential format depends on the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.Account, error)

	// Authenticate verifies the account's credentials and returns it.
	Authenticate(ctx context.Context, email, credential string) (*models.Account, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
