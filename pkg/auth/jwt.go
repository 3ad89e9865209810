package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/getzep/ducks/config"
)

const JwtAlg = "HS256"

var ErrSecretNotSet = errors.New(
	"auth secret not set. Ensure DUCKS_AUTH_SECRET is set in your environment",
)

// GenerateJWT generates a JWT token using the given config.
// Requires that DUCKS_AUTH_SECRET is set in the environment.
func GenerateJWT(cfg *config.Config) (string, error) {
	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		return "", ErrSecretNotSet
	}

	claims := map[string]interface{}{}
	jwtauth.SetIssuedNow(claims)

	tokenAuth := jwtauth.New(JwtAlg, secret, nil)
	_, tokenString, err := tokenAuth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("error generating auth token: %w", err)
	}

	return tokenString, nil
}

// JWTVerifier returns middleware that reads a token from the Authorization
// header or the "jwt" cookie. Pair it with jwtauth.Authenticator.
func JWTVerifier(cfg *config.Config) (func(http.Handler) http.Handler, error) {
	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		return nil, ErrSecretNotSet
	}
	tokenAuth := jwtauth.New(JwtAlg, secret, nil)
	return jwtauth.Verifier(tokenAuth), nil
}
