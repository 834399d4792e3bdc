package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"user-backend/internal/domain"
	"user-backend/internal/identity"
)

const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// Config carries token issuing parameters for the provider.
type Config struct {
	Issuer   string
	Secret   string
	TokenTTL time.Duration
}

// Provider is a local identity provider backed by a sqlite accounts table.
// Account ids double as the external identity tokens handed to callers.
type Provider struct {
	db       *sql.DB
	issuer   string
	secret   []byte
	tokenTTL time.Duration
}

func NewProvider(db *sql.DB, cfg Config) *Provider {
	return &Provider{
		db:       db,
		issuer:   cfg.Issuer,
		secret:   []byte(cfg.Secret),
		tokenTTL: cfg.TokenTTL,
	}
}

func (p *Provider) Init(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createAccountsTable); err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	return nil
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	if _, err := p.db.ExecContext(ctx, `
INSERT INTO accounts (id, email, password_hash, created_at)
VALUES (?, ?, ?, ?)`,
		id, email, string(hash), time.Now().UTC(),
	); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return "", domain.ErrDuplicateEmail
		}
		return "", fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

func (p *Provider) VerifyPassword(ctx context.Context, email, password string) (*identity.Credential, error) {
	row := p.db.QueryRowContext(ctx, `
SELECT id, password_hash
FROM accounts
WHERE email = ?`,
		email,
	)

	var id, hash string
	if err := row.Scan(&id, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := p.signToken(id)
	if err != nil {
		return nil, fmt.Errorf("sign id token: %w", err)
	}
	return &identity.Credential{ExternalID: id, IDToken: token}, nil
}

func (p *Provider) signToken(accountID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    p.issuer,
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
	})
	return token.SignedString(p.secret)
}

var _ identity.Provider = (*Provider)(nil)
