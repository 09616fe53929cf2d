package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a bearer token and hands back its claims.
type Verifier interface {
	Validate(token string, use TokenUse) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer         = errors.New("jwtx: issuer mismatch")
	ErrExpired        = errors.New("jwtx: token expired")
	ErrNotYetValid    = errors.New("jwtx: token not yet valid")
	ErrMissingSubject = errors.New("jwtx: missing subject")
	ErrWrongTokenUse  = errors.New("jwtx: wrong token use")
	ErrInvalidClaim   = errors.New("jwtx: invalid claims")
)

// classify maps a jwt parser error onto the package errors. Order matters:
// an algorithm mismatch also surfaces as an invalid signature, and our own
// claim errors arrive wrapped in jwt.ErrTokenInvalidClaims.
func classify(token *jwt.Token, want string, err error) error {
	if token != nil {
		if alg, _ := token.Header["alg"].(string); alg != "" && alg != want {
			return fmt.Errorf("%w: got %s, want %s", ErrAlgMismatch, alg, want)
		}
	}

	for _, own := range []error{ErrAlgMismatch, ErrMissingSubject, ErrWrongTokenUse} {
		if errors.Is(err, own) {
			return own
		}
	}

	var kind error
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenUnverifiable):
		kind = ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		kind = ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		kind = ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		kind = ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		kind = ErrIssuer
	default:
		kind = ErrInvalidClaim
	}
	return fmt.Errorf("%w: %v", kind, err)
}
