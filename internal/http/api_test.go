package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-backend/internal/docstore/memory"
	"user-backend/internal/domain"
	"user-backend/internal/identity"
	"user-backend/internal/service"
)

// fakeProvider keeps accounts in a map, enough to drive the handler paths.
type fakeProvider struct {
	accounts map[string]string // email -> password
	ids      map[string]string // email -> external id
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: make(map[string]string),
		ids:      make(map[string]string),
	}
}

func (f *fakeProvider) CreateAccount(_ context.Context, email, password string) (string, error) {
	if _, exists := f.accounts[email]; exists {
		return "", domain.ErrDuplicateEmail
	}
	id := fmt.Sprintf("uid-%d", len(f.accounts)+1)
	f.accounts[email] = password
	f.ids[email] = id
	return id, nil
}

func (f *fakeProvider) VerifyPassword(_ context.Context, email, password string) (*identity.Credential, error) {
	stored, exists := f.accounts[email]
	if !exists || stored != password {
		return nil, domain.ErrInvalidCredentials
	}
	return &identity.Credential{ExternalID: f.ids[email], IDToken: "id-token-" + f.ids[email]}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	handler := NewHandler(
		service.NewUserService(store, newFakeProvider()),
		service.NewCommentService(store),
		nil, "", "avatars",
	)
	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func validUserBody() map[string]any {
	return map[string]any{
		"username":          "alice",
		"fullname":          "Alice Doe",
		"email":             "alice@example.com",
		"password":          "secret123",
		"principalInterest": "finance",
	}
}

func TestCreateUser(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", validUserBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "User created successfully!", body["message"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, user["id"])
	assert.NotEmpty(t, user["uid"])
	assert.Equal(t, "alice", user["username"])
	assert.Nil(t, user["profilePicture"])
	_, hasPassword := user["password"]
	assert.False(t, hasPassword)
}

func TestCreateUserMissingField(t *testing.T) {
	router := newTestRouter(t)

	body := validUserBody()
	delete(body, "email")

	rec := doJSON(t, router, http.MethodPost, "/api/users", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", validUserBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/users", validUserBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already registered.", decodeBody(t, rec)["message"])
}

func TestGetUserByExternalID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", validUserBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)["user"].(map[string]any)

	rec = doJSON(t, router, http.MethodGet, "/api/users/"+created["uid"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, created["id"], user["id"])
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "Alice Doe", user["fullname"])
}

func TestGetUserNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/users/no-such-uid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found.", decodeBody(t, rec)["message"])
}

func TestAddComment(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users/addcomment", map[string]any{
		"account": "12345678",
		"name":    "Alice",
		"comment": "hello",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Comment added successfully.", decodeBody(t, rec)["message"])

	rec = doJSON(t, router, http.MethodPost, "/api/users/addcomment", map[string]any{
		"account": "12345678",
		"name":    "Alice B.",
		"comment": "hello again",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Comment updated successfully.", decodeBody(t, rec)["message"])
}

func TestAddCommentInvalidAccount(t *testing.T) {
	router := newTestRouter(t)

	for _, account := range []string{"123", "123456789", "abcdefgh"} {
		rec := doJSON(t, router, http.MethodPost, "/api/users/addcomment", map[string]any{
			"account": account,
			"name":    "Alice",
			"comment": "hello",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "account %q", account)
	}
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", validUserBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/users/login", map[string]any{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["uid"])
	assert.NotEmpty(t, body["token"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", validUserBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/users/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAvatarWithoutStorage(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/avatars", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
