package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"

	"github.com/farman-pharma/apiserver/internal/services"
	"github.com/farman-pharma/apiserver/internal/store"
	"github.com/farman-pharma/apiserver/types"
)

func googleEnv(validate IDTokenValidator, seed ...types.User) *testEnv {
	env := newTestEnv(seed...)
	// Rebuild the auth routes with the stubbed token validator.
	users := env.users
	userService := services.NewUserService(users, env.notes, env.resources)
	handler := NewAuthHandler(userService, testJWTSecret, "test-client-id")
	handler.validateToken = validate
	env.router.Route("/auth2", func(r chi.Router) {
		AuthRouter(r, handler)
	})
	return env
}

func TestGoogleSignInCreatesAccountAndSession(t *testing.T) {
	validate := func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		if token != "good-token" {
			return nil, errors.New("bad token")
		}
		assert.Equal(t, "test-client-id", audience)
		return &idtoken.Payload{
			Subject: "sub-123",
			Claims: map[string]any{
				"name":    "Farman",
				"email":   "farman@example.com",
				"picture": "https://img/1",
			},
		}, nil
	}
	env := googleEnv(validate)

	rec := env.do(t, http.MethodPost, "/auth2/google", "",
		bytes.NewBufferString(`{"id_token":"good-token"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "sub-123", resp.User.GoogleID)
	assert.False(t, resp.User.IsAdmin, "first sign-in grants no access")

	stored, err := env.users.GetByGoogleID(context.Background(), "sub-123")
	require.NoError(t, err)
	assert.Equal(t, "farman@example.com", stored.Email)
}

func TestGoogleSignInRejectsInvalidToken(t *testing.T) {
	validate := func(context.Context, string, string) (*idtoken.Payload, error) {
		return nil, errors.New("expired")
	}
	env := googleEnv(validate)

	rec := env.do(t, http.MethodPost, "/auth2/google", "",
		bytes.NewBufferString(`{"id_token":"expired-token"}`), "application/json")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, err := env.users.GetByGoogleID(context.Background(), "sub-123")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGoogleSignInRequiresToken(t *testing.T) {
	validate := func(context.Context, string, string) (*idtoken.Payload, error) {
		t.Fatal("validator must not be called without a token")
		return nil, nil
	}
	env := googleEnv(validate)

	rec := env.do(t, http.MethodPost, "/auth2/google", "",
		bytes.NewBufferString(`{}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBearerTokenParsing(t *testing.T) {
	cases := []struct {
		header string
		ok     bool
	}{
		{"Bearer abc.def.ghi", true},
		{"bearer abc.def.ghi", true},
		{"", false},
		{"abc.def.ghi", false},
		{"Basic dXNlcg==", false},
		{"Bearer ", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		_, err := bearerToken(req)
		if tc.ok {
			assert.NoError(t, err, "header %q", tc.header)
		} else {
			assert.Error(t, err, "header %q", tc.header)
		}
	}
}
