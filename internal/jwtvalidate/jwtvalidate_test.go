package jwtvalidate

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type staticKeyfunc struct{ key any }

func (s staticKeyfunc) Keyfunc(token *jwt.Token) (any, error) { return s.key, nil }
func (s staticKeyfunc) KeyfuncCtx(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) { return s.key, nil }
}
func (s staticKeyfunc) Storage() jwkset.Storage { return nil }
func (s staticKeyfunc) VerificationKeySet(ctx context.Context) (jwt.VerificationKeySet, error) {
	return jwt.VerificationKeySet{}, nil
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestValidateSuccess(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kf := staticKeyfunc{key: &key.PublicKey}

	token := signToken(t, key, jwt.MapClaims{
		"iss": "https://issuer.example.com",
		"aud": "client-1",
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := Validate(token, kf, Params{ExpectedIssuer: "https://issuer.example.com", AcceptedClientIds: []string{"client-1"}})
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kf := staticKeyfunc{key: &key.PublicKey}

	token := signToken(t, key, jwt.MapClaims{
		"iss": "https://issuer.example.com",
		"aud": "client-1",
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err = Validate(token, kf, Params{ExpectedIssuer: "https://issuer.example.com"})
	require.Error(t, err)
}

func TestValidateAcceptsTokenWithinClockSkewLeeway(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kf := staticKeyfunc{key: &key.PublicKey}

	token := signToken(t, key, jwt.MapClaims{
		"iss": "https://issuer.example.com",
		"aud": "client-1",
		"sub": "alice",
		"exp": time.Now().Add(-30 * time.Second).Unix(),
	})

	claims, err := Validate(token, kf, Params{ExpectedIssuer: "https://issuer.example.com"})
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
}

func TestValidateRejectsIssuerMismatch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kf := staticKeyfunc{key: &key.PublicKey}

	token := signToken(t, key, jwt.MapClaims{
		"iss": "https://wrong-issuer.example.com",
		"aud": "client-1",
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err = Validate(token, kf, Params{ExpectedIssuer: "https://issuer.example.com"})
	require.Error(t, err)
}

func TestValidateRejectsAudienceNotAccepted(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kf := staticKeyfunc{key: &key.PublicKey}

	token := signToken(t, key, jwt.MapClaims{
		"iss": "https://issuer.example.com",
		"aud": "someone-else",
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err = Validate(token, kf, Params{ExpectedIssuer: "https://issuer.example.com", AcceptedClientIds: []string{"client-1"}})
	require.Error(t, err)
}

func TestValidateRejectsDisallowedAlgorithm(t *testing.T) {
	secret := []byte("shared-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "https://issuer.example.com",
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	_, err = Validate(signed, staticKeyfunc{key: secret}, Params{})
	require.Error(t, err)
}
