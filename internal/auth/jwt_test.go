package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

const testSecret = "test-secret-key"

func testUser() domain.User {
	return domain.User{ID: uuid.New(), Email: "staff@presenca.dev", Name: "Staff", Role: RoleAdmin}
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := NewJWTService(testSecret, "presenca-test", time.Hour)
	user := testUser()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "presenca-test", claims.Issuer)

	got, err := claims.User()
	require.NoError(t, err)
	assert.Equal(t, &user, got)
}

func TestJWTService_DefaultsRoleToStaff(t *testing.T) {
	service := NewJWTService(testSecret, "presenca-test", time.Hour)
	user := testUser()
	user.Role = ""

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, claims.Role)
}

func TestJWTService_ValidateToken_Rejects(t *testing.T) {
	service := NewJWTService(testSecret, "presenca-test", time.Hour)
	user := testUser()

	otherSecret, err := NewJWTService("another-secret", "presenca-test", time.Hour).GenerateToken(user)
	require.NoError(t, err)

	otherIssuer, err := NewJWTService(testSecret, "someone-else", time.Hour).GenerateToken(user)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID.String(), Issuer: "presenca-test"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid", Issuer: "presenca-test"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		expectedErr error
	}{
		{name: "invalid token format", token: "invalid.token.format", expectedErr: ErrInvalidToken},
		{name: "empty token", token: "", expectedErr: ErrInvalidToken},
		{name: "wrong secret", token: otherSecret, expectedErr: ErrInvalidToken},
		{name: "wrong issuer", token: otherIssuer, expectedErr: ErrInvalidToken},
		{name: "unsigned token", token: noneAlg, expectedErr: ErrInvalidToken},
		{name: "subject is not a user id", token: badSubject, expectedErr: ErrInvalidClaims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestJWTService_ValidateToken_ExpiredToken(t *testing.T) {
	service := NewJWTService(testSecret, "presenca-test", time.Hour)
	issued := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken(testUser())
	require.NoError(t, err)

	service.now = func() time.Time { return issued.Add(2 * time.Hour) }

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
