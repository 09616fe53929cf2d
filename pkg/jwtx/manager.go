package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretSize is the shortest HMAC secret NewTokenManager accepts.
const MinSecretSize = 32

var (
	ErrUnsupportedAlg = errors.New("jwtx: unsupported algorithm")
	ErrWeakSecret     = errors.New("jwtx: signing secret too short")
	ErrInvalidTTL     = errors.New("jwtx: invalid token lifetime")
)

var hmacMethods = map[string]*jwt.SigningMethodHMAC{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// Options configure a TokenManager. Secret is copied on construction.
type Options struct {
	Secret     []byte
	Algorithm  string // HS256 when empty
	Issuer     string // enforced on validation when set
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Token is a signed JWT and the metadata callers need without re-parsing it.
type Token struct {
	Value     string
	Use       TokenUse
	ID        string
	ExpiresAt time.Time
}

var _ Verifier = (*TokenManager)(nil)

// TokenManager issues and validates HMAC signed JWTs. It holds no mutable
// state after construction and is safe for concurrent use.
type TokenManager struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(opts Options) (*TokenManager, error) {
	alg := opts.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := hmacMethods[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}

	if len(opts.Secret) < MinSecretSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretSize, len(opts.Secret))
	}

	// Sub-second lifetimes would truncate to an exp at or before iat.
	if opts.AccessTTL < time.Second || opts.RefreshTTL < time.Second {
		return nil, fmt.Errorf("%w: lifetimes must be at least 1s", ErrInvalidTTL)
	}
	if opts.RefreshTTL < opts.AccessTTL {
		return nil, fmt.Errorf("%w: refresh lifetime %s shorter than access lifetime %s",
			ErrInvalidTTL, opts.RefreshTTL, opts.AccessTTL)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &TokenManager{
		secret:     append([]byte(nil), opts.Secret...),
		method:     method,
		issuer:     opts.Issuer,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        now,
	}, nil
}

func (m *TokenManager) Algorithm() string         { return m.method.Alg() }
func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccessToken signs a short lived token for subject.
func (m *TokenManager) IssueAccessToken(subject string) (Token, error) {
	return m.issue(subject, UseAccess, m.accessTTL)
}

// IssueRefreshToken signs a long lived token for subject, only accepted by
// Validate with UseRefresh.
func (m *TokenManager) IssueRefreshToken(subject string) (Token, error) {
	return m.issue(subject, UseRefresh, m.refreshTTL)
}

func (m *TokenManager) issue(subject string, use TokenUse, ttl time.Duration) (Token, error) {
	if subject == "" {
		return Token{}, ErrMissingSubject
	}

	claims := newClaims(subject, m.issuer, use, m.now(), ttl)
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("jwtx: sign: %w", err)
	}

	return Token{
		Value:     signed,
		Use:       use,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// Validate checks the signature and claims of raw and that it was issued for
// use. A token is rejected once now reaches its exp; there is no leeway.
//
// The returned error wraps exactly one of the package sentinels.
func (m *TokenManager) Validate(raw string, use TokenUse) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrMalformed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims Claims
	token, err := jwt.NewParser(opts...).ParseWithClaims(raw, &claims, m.key)
	if err != nil {
		return Claims{}, classify(token, m.method.Alg(), err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if claims.Use != use {
		return Claims{}, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenUse, claims.Use, use)
	}
	return claims, nil
}

// key refuses to hand out the secret for any other algorithm, so a token
// claiming e.g. RS256 can never be checked against the HMAC secret.
func (m *TokenManager) key(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != m.method.Alg() {
		return nil, ErrAlgMismatch
	}
	return m.secret, nil
}
