package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/user"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRequired(t *testing.T) {
	jwtService := jwt.NewJWTService("middleware-test-secret", "1h")

	var got user.Actor
	handler := AuthRequired()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	employeeID := "emp-1"
	token, _, err := jwtService.GenerateAccessToken(jwt.AccessClaims{
		UserID:     "user-1",
		EmployeeID: &employeeID,
		CompanyID:  "company-1",
		Role:       user.RoleManager,
	})
	require.NoError(t, err)

	t.Run("verified token yields actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.RemoteAddr = "192.0.2.7:4711"
		req.Header.Set("User-Agent", "go-test")
		rec := httptest.NewRecorder()

		jwtauth.Verifier(jwtService.JWTAuth())(handler).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		assert.Equal(t, "user-1", got.UserID)
		require.NotNil(t, got.EmployeeID)
		assert.Equal(t, "emp-1", *got.EmployeeID)
		assert.Equal(t, "company-1", got.CompanyID)
		assert.Equal(t, user.RoleManager, got.Role)
		assert.Equal(t, "192.0.2.7", got.IPAddress)
		assert.Equal(t, "go-test", got.UserAgent)
	})

	t.Run("no verifier means no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		rec := httptest.NewRecorder()

		jwtauth.Verifier(jwtService.JWTAuth())(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestActorFromClaims_MissingUserID(t *testing.T) {
	_, err := ActorFromClaims(map[string]interface{}{"company_id": "company-1"})
	assert.ErrorIs(t, err, user.ErrInvalidToken)
	assert.ErrorIs(t, err, user.ErrUserIDMissing)
}
