package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret")

func TestGenerateAndParseToken(t *testing.T) {
	req := require.New(t)

	dept := int64(2)
	token, err := GenerateToken(testSecret, Claims{
		UserID:       1,
		Email:        "hr@company.com",
		Name:         "HR Admin",
		IsHR:         true,
		DepartmentID: &dept,
	}, time.Hour)
	req.NoError(err)

	claims, err := ParseToken(testSecret, token)
	req.NoError(err)
	req.Equal(int64(1), claims.UserID)
	req.Equal("hr@company.com", claims.Email)
	req.True(claims.IsHR)
	req.NotNil(claims.DepartmentID)
	req.Equal(int64(2), *claims.DepartmentID)
	req.Equal("videomeet", claims.Issuer)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(testSecret, Claims{UserID: 1}, time.Hour)
	req.NoError(err)

	_, err = ParseToken([]byte("other-secret"), token)
	req.Error(err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(testSecret, Claims{UserID: 1}, -time.Minute)
	req.NoError(err)

	_, err = ParseToken(testSecret, token)
	req.Error(err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not.a.token")
	require.Error(t, err)
}
