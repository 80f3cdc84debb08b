// Package jwtvalidate parses and verifies a bearer token against a
// resolved keyfunc, enforcing an algorithm allow-list and issuer/audience
// checks against a caller-supplied expected issuer/audience/client-id set
// per identity source.
package jwtvalidate

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/wso2/policy-authz/internal/domainerr"
)

// ClockSkewLeeway is how far past exp (or before nbf/iat) a token is still
// accepted, to absorb clock drift between the issuer and this service.
const ClockSkewLeeway = 60 * time.Second

// AllowedAlgorithms is the signature algorithm allow-list. RS/ES only:
// none and HMAC-family algorithms are never accepted, since HMAC would let
// a holder of the public JWKS forge tokens.
var AllowedAlgorithms = []string{"RS256", "RS384", "RS512", "ES256", "ES384"}

// ValidatedClaims is the subset of claims the rest of the service needs
// after a token has been verified.
type ValidatedClaims struct {
	Subject string
	Issuer  string
	Audience []string
	Raw     jwt.MapClaims
}

// Params configures one validation call against a specific identity
// source's expectations.
type Params struct {
	ExpectedIssuer    string
	AcceptedClientIds []string
}

// Validate parses tokenString, verifies its signature via kf, and checks
// algorithm, issuer, audience, and expiry.
func Validate(tokenString string, kf keyfunc.Keyfunc, params Params) (*ValidatedClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, kf.Keyfunc, jwt.WithValidMethods(AllowedAlgorithms), jwt.WithLeeway(ClockSkewLeeway))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", domainerr.ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", domainerr.ErrSignatureInvalid, err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", domainerr.ErrTokenFormatInvalid, err)
		default:
			return nil, fmt.Errorf("%w: %v", domainerr.ErrTokenInvalid, err)
		}
	}
	if !token.Valid {
		return nil, domainerr.ErrTokenInvalid
	}
	if !slices.Contains(AllowedAlgorithms, token.Method.Alg()) {
		return nil, fmt.Errorf("%w: %s", domainerr.ErrAlgorithmNotAllowed, token.Method.Alg())
	}

	issuer, err := claims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: missing issuer claim", domainerr.ErrTokenInvalid)
	}
	if params.ExpectedIssuer != "" && issuer != params.ExpectedIssuer {
		return nil, fmt.Errorf("%w: expected %s, got %s", domainerr.ErrIssuerMismatch, params.ExpectedIssuer, issuer)
	}

	audience, err := claims.GetAudience()
	if err != nil {
		return nil, fmt.Errorf("%w: missing audience claim", domainerr.ErrTokenInvalid)
	}
	if len(params.AcceptedClientIds) > 0 && !anyContains(params.AcceptedClientIds, audience) {
		return nil, fmt.Errorf("%w: token audience %v not in accepted client ids %v", domainerr.ErrAudienceMismatch, audience, params.AcceptedClientIds)
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("%w: missing subject claim", domainerr.ErrTokenInvalid)
	}

	return &ValidatedClaims{
		Subject:  subject,
		Issuer:   issuer,
		Audience: audience,
		Raw:      claims,
	}, nil
}

// anyContains reports whether any of accepted appears in audience.
func anyContains(accepted, audience []string) bool {
	for _, a := range audience {
		if slices.Contains(accepted, a) {
			return true
		}
	}
	return false
}
