package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_orders/internal/identity"
)

func TestIssueAndParse(t *testing.T) {
	svc := NewService("secret", time.Hour)
	tok, err := svc.Issue(identity.User{ID: "u-1", ClientID: "C1", IsAdmin: true})
	require.NoError(t, err)

	claims, err := svc.Parse(tok.Value)
	require.NoError(t, err)
	require.Equal(t, "C1", claims.ClientID)
	require.Equal(t, "u-1", claims.Subject)
	require.True(t, claims.IsAdmin)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc := NewService("secret", time.Minute)
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }
	tok, err := svc.Issue(identity.User{ID: "u-1", ClientID: "C1"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Parse(tok.Value)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsForeignSignatureAndAlgorithm(t *testing.T) {
	svc := NewService("secret", time.Hour)
	other := NewService("other", time.Hour)
	tok, err := other.Issue(identity.User{ID: "u-1", ClientID: "C1"})
	require.NoError(t, err)
	_, err = svc.Parse(tok.Value)
	require.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ClientID: "C1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Parse(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
