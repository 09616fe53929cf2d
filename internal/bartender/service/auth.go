package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/bartender/internal/bartender/domain"
	"github.com/aussiebroadwan/bartender/internal/bartender/store"
	"github.com/aussiebroadwan/bartender/pkg/cryptox"
	"github.com/aussiebroadwan/bartender/pkg/idx"
	"github.com/aussiebroadwan/bartender/pkg/jwtx"
	"github.com/aussiebroadwan/bartender/pkg/slogx"
)

// PasswordHasher is satisfied by cryptox.PasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// AuthService implements register, login, refresh and validate. Every error
// it returns is an *Error. Build it with NewAuthService.
type AuthService struct {
	Store  store.Store
	Hasher PasswordHasher
	Tokens *jwtx.TokenManager

	// Now stamps CreatedAt on new identities; time.Now when nil.
	Now func() time.Time

	// dummyHash is compared against on unknown usernames so that path costs
	// one bcrypt comparison just like a wrong password does.
	dummyHash string
}

// NewAuthService wires an AuthService and hashes the dummy password up front.
// It fails if the hasher cannot produce that hash.
func NewAuthService(st store.Store, hasher PasswordHasher, tokens *jwtx.TokenManager) (*AuthService, error) {
	dummy, err := hasher.Hash(cryptox.MustGenerateToken(cryptox.TokenSize128))
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &AuthService{
		Store:     st,
		Hasher:    hasher,
		Tokens:    tokens,
		dummyHash: dummy,
	}, nil
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates an identity. Usernames are trimmed and emails trimmed and
// lower-cased before validation; the password is used as given.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (_ domain.Identity, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer func() { endSpan(span, err) }()
	l := slogx.FromContext(ctx)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return domain.Identity{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		l.Error("failed to hash password", "err", err)
		return domain.Identity{}, internal(err)
	}

	identity := domain.Identity{
		ID:           idx.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.Store.Identities().CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("registration conflict", "username", in.Username, "err", err)
			return domain.Identity{}, ErrAlreadyExists
		}
		l.Error("failed to create identity", "err", err)
		return domain.Identity{}, internal(err)
	}

	l.Info("identity registered", "user_id", identity.ID, "username", identity.Username)
	return identity, nil
}

// Login checks credentials and issues a token pair. An unknown username, a
// store failure and a wrong password all return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (_ *domain.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()
	l := slogx.FromContext(ctx)

	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	identity, err := s.Store.Identities().GetIdentityByUsername(ctx, in.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("failed to look up identity", "err", err)
		}
		s.Hasher.Verify(in.Password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	if !s.Hasher.Verify(in.Password, identity.PasswordHash) {
		l.Info("login failed", "user_id", identity.ID)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(identity.ID)
	if err != nil {
		l.Error("failed to issue tokens", "err", err)
		return nil, err
	}

	l.Info("login succeeded", "user_id", identity.ID)
	return pair, nil
}

// Refresh exchanges a refresh token for a brand new pair. The presented
// token is not consulted again; both returned tokens are freshly minted.
func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (_ *domain.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Refresh")
	defer func() { endSpan(span, err) }()
	l := slogx.FromContext(ctx)

	in.RefreshToken = strings.TrimSpace(in.RefreshToken)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	claims, err := s.Tokens.Validate(in.RefreshToken, jwtx.UseRefresh)
	if err != nil {
		l.Info("refresh token rejected", "err", err)
		return nil, errInvalidRefreshToken
	}

	id, err := idx.Parse(claims.Subject)
	if err != nil {
		l.Warn("refresh token with malformed subject", "jti", claims.ID)
		return nil, errInvalidRefreshToken
	}

	identity, err := s.Store.Identities().GetIdentityByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("refresh for deleted identity", "user_id", id.String())
			return nil, ErrUserNotFound
		}
		l.Error("failed to look up identity", "err", err)
		return nil, internal(err)
	}

	pair, err := s.issuePair(identity.ID)
	if err != nil {
		l.Error("failed to issue tokens", "err", err)
		return nil, err
	}

	l.Info("tokens refreshed", "user_id", identity.ID, "previous_jti", claims.ID)
	return pair, nil
}

// Validate returns the subject of a bearer access token. It does not consult
// the store: a deleted identity's access tokens stay valid until they expire.
func (s *AuthService) Validate(ctx context.Context, bearer string) (_ string, err error) {
	_, span := tracer.Start(ctx, "AuthService.Validate")
	defer func() { endSpan(span, err) }()

	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return "", ErrInvalidOrExpiredToken
	}

	claims, err := s.Tokens.Validate(bearer, jwtx.UseAccess)
	if err != nil {
		slogx.FromContext(ctx).Debug("bearer token rejected", "err", err)
		return "", ErrInvalidOrExpiredToken
	}
	return claims.Subject, nil
}

func (s *AuthService) issuePair(subject string) (*domain.TokenPair, error) {
	access, err := s.Tokens.IssueAccessToken(subject)
	if err != nil {
		return nil, internal(err)
	}
	refresh, err := s.Tokens.IssueRefreshToken(subject)
	if err != nil {
		return nil, internal(err)
	}

	return &domain.TokenPair{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		TokenType:    domain.TokenTypeBearer,
		ExpiresIn:    s.Tokens.AccessTTL(),
	}, nil
}
