package identity_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://profiles.example.test"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestIssuer(t *testing.T, ttl time.Duration) *identity.UserTokenIssuer {
	t.Helper()
	ti, err := identity.NewUserTokenIssuer(testSecret, testIssuer, ttl)
	require.NoError(t, err)
	return ti
}

func TestNewUserTokenIssuer_shortSecret(t *testing.T) {
	_, err := identity.NewUserTokenIssuer([]byte("short"), testIssuer, time.Hour)
	assert.Error(t, err)
}

func TestUserTokenIssuer_roundTrip(t *testing.T) {
	ti := newTestIssuer(t, time.Hour)
	userID := uuid.New()

	token, err := ti.Issue(userID, "alice@example.test")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "alice@example.test", claims.Email)

	parsed, err := claims.ParsedUserID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestUserTokenIssuer_expired(t *testing.T) {
	ti := newTestIssuer(t, time.Nanosecond)

	token, err := ti.Issue(uuid.New(), "")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	_, err = ti.Verify(token)
	assert.Error(t, err)
}

func TestUserTokenIssuer_wrongIssuer(t *testing.T) {
	other, err := identity.NewUserTokenIssuer(testSecret, "https://elsewhere.test", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue(uuid.New(), "")
	require.NoError(t, err)

	_, err = newTestIssuer(t, time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestUserTokenIssuer_rejectsOtherTokenTypes(t *testing.T) {
	claims := identity.UserTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: uuid.NewString(),
		Type:   "admin",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = newTestIssuer(t, time.Hour).Verify(token)
	assert.EqualError(t, err, "not a user session token")
}

func TestRequireUserToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ti := newTestIssuer(t, time.Hour)
	userID := uuid.New()

	r := gin.New()
	r.GET("/me", identity.RequireUserToken(ti), func(c *gin.Context) {
		c.String(http.StatusOK, identity.UserClaimsFromCtx(c).UserID)
	})

	token, err := ti.Issue(userID, "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
			}
		})
	}
}
