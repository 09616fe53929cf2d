package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes passwords with bcrypt after an HMAC-SHA256 pre-hash
// keyed by Pepper. The pre-hash yields a fixed 44 byte input, so bcrypt never
// sees more than its 72 byte limit and long passwords are not truncated.
//
// A zero Cost selects bcrypt.DefaultCost. A nil Pepper is allowed and keys
// the HMAC with the empty key.
type PasswordHasher struct {
	Cost   int
	Pepper []byte
}

func (h PasswordHasher) prehash(password string) []byte {
	mac := hmac.New(sha256.New, h.Pepper)
	mac.Write([]byte(password))
	sum := mac.Sum(nil)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}

// Hash returns a bcrypt hash in modular crypt format ($2a$...). It only fails
// when the system entropy source does or Cost is out of range.
func (h PasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword(h.prehash(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A malformed hash reports false
// the same as a wrong password.
func (h PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), h.prehash(password)) == nil
}
