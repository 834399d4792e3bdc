package identity

import "context"

// Credential is the provider's answer to a successful password check.
type Credential struct {
	ExternalID string
	IDToken    string
}

// Provider owns credential verification and issues one stable external
// identity token per account. Account creation fails with
// domain.ErrDuplicateEmail when the email is already registered, VerifyPassword
// with domain.ErrInvalidCredentials on a mismatch or unknown email.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
	VerifyPassword(ctx context.Context, email, password string) (*Credential, error)
}
