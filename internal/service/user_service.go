package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"user-backend/internal/docstore"
	"user-backend/internal/domain"
	"user-backend/internal/identity"
)

const usersCollection = "users"

// Field names inside user documents. The external id is stored under "uid",
// and every document carries its own store-assigned id under "id".
const (
	userFieldRecordID   = "id"
	userFieldExternalID = "uid"
)

// CreateUserInput carries the caller-supplied fields for user registration.
// The password is handed to the identity provider and never persisted.
type CreateUserInput struct {
	Username          string
	FullName          string
	Email             string
	Password          string
	PrincipalInterest string
	ProfilePicture    *string
}

// UserService owns the "one user record per external identity token" invariant.
type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetByRecordID(ctx context.Context, recordID string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*identity.Credential, error)
}

type userService struct {
	store    docstore.Store
	provider identity.Provider
}

func NewUserService(store docstore.Store, provider identity.Provider) UserService {
	return &userService{
		store:    store,
		provider: provider,
	}
}

// Create registers the account with the identity provider, then writes the
// user document without the password and merges the store-assigned id back
// into the document itself. The merge is a second write because the id is not
// known until the first write completes; a failure between the two leaves a
// document without its "id" field, which is reported, not rolled back.
func (s *userService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)
	input.PrincipalInterest = strings.TrimSpace(input.PrincipalInterest)

	if input.Username == "" {
		return nil, domain.NewValidationError("username", "required")
	}
	if input.FullName == "" {
		return nil, domain.NewValidationError("fullname", "required")
	}
	if input.Email == "" {
		return nil, domain.NewValidationError("email", "required")
	}
	if input.Password == "" {
		return nil, domain.NewValidationError("password", "required")
	}
	if input.PrincipalInterest == "" {
		return nil, domain.NewValidationError("principalInterest", "required")
	}

	externalID, err := s.provider.CreateAccount(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create identity account: %w", err)
	}

	var picture any
	if input.ProfilePicture != nil {
		picture = *input.ProfilePicture
	}

	recordID, err := s.store.Create(ctx, usersCollection, map[string]any{
		"username":          input.Username,
		"fullname":          input.FullName,
		"email":             input.Email,
		"principalInterest": input.PrincipalInterest,
		"profilePicture":    picture,
		userFieldExternalID: externalID,
	})
	if err != nil {
		return nil, fmt.Errorf("create user document: %w", err)
	}

	if err := s.store.Merge(ctx, usersCollection, recordID, map[string]any{
		userFieldRecordID: recordID,
	}); err != nil {
		return nil, fmt.Errorf("write record id: %w", err)
	}

	return &domain.User{
		RecordID:          recordID,
		ExternalID:        externalID,
		Username:          input.Username,
		FullName:          input.FullName,
		Email:             input.Email,
		PrincipalInterest: input.PrincipalInterest,
		ProfilePicture:    input.ProfilePicture,
	}, nil
}

func (s *userService) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, domain.NewValidationError("uid", "required")
	}

	docs, err := s.store.Query(ctx, usersCollection, userFieldExternalID, externalID)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	// The external id is unique under correct use; if the store ever holds
	// more than one match, the first in iteration order wins.
	return userFromDocument(&docs[0]), nil
}

func (s *userService) GetByRecordID(ctx context.Context, recordID string) (*domain.User, error) {
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return nil, domain.NewValidationError("id", "required")
	}

	doc, err := s.store.Get(ctx, usersCollection, recordID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user document: %w", err)
	}
	return userFromDocument(doc), nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*identity.Credential, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "required")
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "required")
	}

	cred, err := s.provider.VerifyPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	return cred, nil
}

func userFromDocument(doc *docstore.Document) *domain.User {
	user := &domain.User{
		RecordID:          stringField(doc.Body, userFieldRecordID),
		ExternalID:        stringField(doc.Body, userFieldExternalID),
		Username:          stringField(doc.Body, "username"),
		FullName:          stringField(doc.Body, "fullname"),
		Email:             stringField(doc.Body, "email"),
		PrincipalInterest: stringField(doc.Body, "principalInterest"),
	}
	if v, ok := doc.Body["profilePicture"].(string); ok {
		user.ProfilePicture = &v
	}
	return user
}

func stringField(body map[string]any, key string) string {
	v, _ := body[key].(string)
	return v
}
