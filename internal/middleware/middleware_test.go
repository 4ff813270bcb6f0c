package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jurisai/jurisai/internal/auth"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
)

type stubUsers struct {
	users map[int64]usermodel.User
}

func (s stubUsers) GetByID(_ context.Context, id int64) (usermodel.User, error) {
	user, found := s.users[id]
	if !found {
		return usermodel.User{}, context.Canceled
	}
	return user, nil
}

var testIssuer = auth.NewTokenIssuer(strings.Repeat("x", 32))

func setupMiddleware() {
	reader := usermodel.User{Id: 1, Name: "Reader", Roles: []usermodel.Role{{
		Name:        "reader",
		Permissions: []usermodel.Permission{{Resource: "document", Action: "read"}},
	}}}
	admin := usermodel.User{Id: 2, Name: "Admin", Role: usermodel.LegacyRoleAdmin}

	Init(testIssuer, stubUsers{users: map[int64]usermodel.User{1: reader, 2: admin}})
}

func bearerFor(t *testing.T, userId int64) string {
	t.Helper()
	token, err := testIssuer.Issue(userId)
	require.NoError(t, err)
	return "Bearer " + token
}

func protectedEcho(t *testing.T) http.HandlerFunc {
	t.Helper()
	return Wrap(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Value(config.AUTH_USER_KEY).(usermodel.User)
		assert.True(t, ok, "handler should see the authenticated user")
		assert.NotEmpty(t, r.Context().Value(config.TRACE_ID_KEY), "trace id should be injected")
		w.WriteHeader(http.StatusOK)
	})
}

func TestWrap_OpenRouteSkipsAuth(t *testing.T) {
	setupMiddleware()
	handler := Wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWrap_MissingTokenIsRejected(t *testing.T) {
	setupMiddleware()
	handler := Wrap(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWrap_GarbageTokenIsRejected(t *testing.T) {
	setupMiddleware()
	handler := Wrap(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWrap_PermittedUserPasses(t *testing.T) {
	setupMiddleware()
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", bearerFor(t, 1))

	rec := httptest.NewRecorder()
	protectedEcho(t)(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWrap_MissingPermissionIsForbidden(t *testing.T) {
	setupMiddleware()
	// reader has document:read but not document:create
	req := httptest.NewRequest(http.MethodPost, "/documents", nil)
	req.Header.Set("Authorization", bearerFor(t, 1))

	rec := httptest.NewRecorder()
	handler := Wrap(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})
	handler(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWrap_AdminBypassesPermissions(t *testing.T) {
	setupMiddleware()
	req := httptest.NewRequest(http.MethodPost, "/documents", nil)
	req.Header.Set("Authorization", bearerFor(t, 2))

	rec := httptest.NewRecorder()
	protectedEcho(t)(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWrap_TraceHeaderIsPreserved(t *testing.T) {
	setupMiddleware()
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", bearerFor(t, 1))
	req.Header.Set("X-Trace-Id", "trace-from-client")

	var seen string
	handler := Wrap(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(config.TRACE_ID_KEY).(string)
		w.WriteHeader(http.StatusOK)
	})
	handler(httptest.NewRecorder(), req)
	assert.Equal(t, "trace-from-client", seen)
}
