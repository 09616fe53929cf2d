package domain

import "time"

// TokenPair is what a successful login or refresh hands back to the client.
// It is never persisted.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

const TokenTypeBearer = "Bearer"
