package token

import (
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenClaims describes a bearer token for diagnostics. Fields are nil when
// the claim is absent. Claims are read without signature verification; they
// are never used for authorization decisions.
type TokenClaims struct {
	Iss *string  `json:"iss,omitempty"` // Issuer of the token
	Sub *string  `json:"sub,omitempty"` // Subject, usually the client application
	Aud []string `json:"aud,omitempty"` // Audience the token was minted for
	Exp *int64   `json:"exp,omitempty"` // Expiration
	Iat *int64   `json:"iat,omitempty"` // Issued at time
}

// InspectClaims decodes the claims of a JWT bearer token. Opaque tokens
// return nil.
func InspectClaims(rawToken string) *TokenClaims {
	if strings.Count(strings.TrimSpace(rawToken), ".") != 2 {
		return nil
	}

	unverifiedToken, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := unverifiedToken.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil
	}

	tc := &TokenClaims{}
	if iss, err := claims.GetIssuer(); err == nil && iss != "" {
		tc.Iss = &iss
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		tc.Sub = &sub
	}
	if aud, err := claims.GetAudience(); err == nil && len(aud) > 0 {
		tc.Aud = aud
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		v := exp.Unix()
		tc.Exp = &v
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		v := iat.Unix()
		tc.Iat = &v
	}
	return tc
}
