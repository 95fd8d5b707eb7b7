// internal/utils/identity.go
package utils

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// IdentityProvider is a trusted issuer of signed ID tokens.
type IdentityProvider struct {
	Issuer   string
	Audience string
	Key      crypto.PublicKey
}

// IdentityClaims are the OpenID Connect claims read from an ID token.
type IdentityClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// Identity is a verified provider account.
type Identity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

var ErrUnknownProvider = errors.New("unknown identity provider")

type IdentityVerifier struct {
	providers map[string]IdentityProvider
	now       func() time.Time
}

func NewIdentityVerifier(providers map[string]IdentityProvider) *IdentityVerifier {
	return &IdentityVerifier{providers: providers, now: time.Now}
}

// LoadPublicKey reads a PEM encoded RSA or ECDSA public key.
func LoadPublicKey(path string) (crypto.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key %s: %w", path, err)
	}
	if key, err := jwt.ParseRSAPublicKeyFromPEM(data); err == nil {
		return key, nil
	}
	key, err := jwt.ParseECPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("public key %s is neither RSA nor ECDSA", path)
	}
	return key, nil
}

// Verify checks the signature, issuer, audience and lifetime of an ID token
// from provider. Only asymmetric signatures are accepted.
func (v *IdentityVerifier) Verify(provider, rawToken string) (*Identity, error) {
	p, ok := v.providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := &IdentityClaims{}
	_, err := parser.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		switch p.Key.(type) {
		case *rsa.PublicKey:
			if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
				return p.Key, nil
			}
		case *ecdsa.PublicKey:
			if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
				return p.Key, nil
			}
		}
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	})
	if err != nil {
		return nil, err
	}

	now := v.now()
	switch {
	case !claims.VerifyExpiresAt(now, true):
		return nil, errors.New("identity token expired")
	case !claims.VerifyNotBefore(now, false), !claims.VerifyIssuedAt(now, false):
		return nil, errors.New("identity token not valid yet")
	case !claims.VerifyIssuer(p.Issuer, true):
		return nil, errors.New("identity token issuer mismatch")
	case !claims.VerifyAudience(p.Audience, true):
		return nil, errors.New("identity token audience mismatch")
	case claims.Subject == "" || claims.Email == "":
		return nil, errors.New("identity token lacks subject or email")
	}

	return &Identity{
		Provider:      provider,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}
