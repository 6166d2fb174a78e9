package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/auth"
	"github.com/noah-isme/backend-kasir/internal/common"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, roles any, opts ...func(*jwt.Builder)) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Subject("user-1").
		Issuer("backend-kasir").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour))
	if roles != nil {
		builder = builder.Claim("roles", roles)
	}
	for _, opt := range opts {
		opt(builder)
	}
	tok, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	return string(signed)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	mw := auth.Middleware{Secret: []byte(testSecret), Issuer: "backend-kasir"}
	handler := mw.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAttachesClaims(t *testing.T) {
	mw := auth.Middleware{Secret: []byte(testSecret), Issuer: "backend-kasir"}
	var gotUser string
	var gotRoles []string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = common.UserID(r.Context())
		gotRoles = common.Roles(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, []string{"admin", "manager"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", gotUser)
	require.Equal(t, []string{"admin", "manager"}, gotRoles)
}

func TestRequireRoleForbidsNonAdmin(t *testing.T) {
	mw := auth.Middleware{Secret: []byte(testSecret), Issuer: "backend-kasir"}
	handler := mw.RequireAuth(mw.RequireRole("admin")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	})))

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, []string{"cashier"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAuthRejectsWrongIssuer(t *testing.T) {
	mw := auth.Middleware{Secret: []byte(testSecret), Issuer: "backend-kasir"}
	handler := mw.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, []string{"admin"}, func(b *jwt.Builder) {
		b.Issuer("someone-else")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
