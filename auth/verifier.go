package auth

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates signed tokens against a fixed RSA public key.
// Decode performs no network or disk I/O; it is a pure function of the
// token string and the settings captured at construction time.
type Verifier struct {
	publicKey *rsa.PublicKey
	issuer    string
	clockSkew time.Duration
	parser    *jwt.Parser

	// now is overridable in tests
	now func() time.Time
}

// VerifierConfig holds the settings for token validation.
type VerifierConfig struct {
	PublicKey *rsa.PublicKey
	Issuer    string
	ClockSkew time.Duration
}

// NewVerifier creates a Verifier. Only RS256 tokens are accepted; any other
// algorithm (including HMAC variants) is rejected at parse time.
func NewVerifier(cfg VerifierConfig) *Verifier {
	return &Verifier{
		publicKey: cfg.PublicKey,
		issuer:    cfg.Issuer,
		clockSkew: cfg.ClockSkew,
		// Issuer and expiry are checked manually below so their failures map
		// to distinct error codes, in a fixed order.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
		now: time.Now,
	}
}

// Decode verifies the token signature and registered claims.
//
// Check order: signature/encoding, then issuer, then expiry. The expiry
// check tolerates clockSkew past the nominal exp: a token is still accepted
// when now - exp <= clockSkew (boundary inclusive). Tokens without an exp
// claim are accepted and never expire; the issuing service decides whether
// to set one.
func (v *Verifier) Decode(tokenString string) (*Claims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil {
		return nil, NewError(CodeTokenInvalid, "token validation failed", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Issuer != v.issuer {
		return nil, NewError(CodeIssuerInvalid,
			fmt.Sprintf("expected issuer %q, got %q", v.issuer, claims.Issuer), nil)
	}

	if claims.ExpiresAt != nil {
		if v.now().Sub(claims.ExpiresAt.Time) > v.clockSkew {
			return nil, ErrTokenExpired
		}
	}

	return claims, nil
}
