package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClientRequests(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorCodeBadRequest})
			return
		}
		if req.Username == "taken" {
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorCodeAlreadyExists, Message: "User already exists"})
			return
		}
		writeJSON(w, http.StatusCreated, RegisterResponse{UserID: "01J0000000000000000000000A", Username: req.Username})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "Secret#123" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorCodeInvalidCredentials, Message: "Invalid username or password"})
			return
		}
		writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "a1", RefreshToken: "r1", TokenType: "Bearer", ExpiresIn: 900})
	})
	mux.HandleFunc("GET /api/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a1" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorCodeInvalidToken, Message: "Invalid or expired token"})
			return
		}
		writeJSON(w, http.StatusOK, ValidateResponse{UserID: "u1", Message: "Token is valid"})
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL+"/", WithUserAgent("authsdk-test"))
	ctx := context.Background()

	t.Run("register", func(t *testing.T) {
		res, err := client.Register(ctx, RegisterRequest{Username: "alice", Email: "a@example.com", Password: "x"})
		require.NoError(t, err)
		require.Equal(t, "alice", res.Username)
		require.NotEmpty(t, res.UserID)
	})

	t.Run("conflict decodes into APIError", func(t *testing.T) {
		_, err := client.Register(ctx, RegisterRequest{Username: "taken"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusConflict, apiErr.StatusCode)
		require.Equal(t, ErrorCodeAlreadyExists, apiErr.Code)
		require.Equal(t, "User already exists", apiErr.Message)
		require.ErrorIs(t, err, &APIError{Code: ErrorCodeAlreadyExists})
		require.False(t, errors.Is(err, &APIError{Code: ErrorCodeInvalidToken}))
	})

	t.Run("login and validate", func(t *testing.T) {
		pair, err := client.Login(ctx, "alice", "Secret#123")
		require.NoError(t, err)
		require.Equal(t, "Bearer", pair.TokenType)
		require.Equal(t, 900, pair.ExpiresIn)

		v, err := client.Validate(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "u1", v.UserID)

		_, err = client.Validate(ctx, "nope")
		require.ErrorIs(t, err, &APIError{StatusCode: http.StatusUnauthorized, Code: ErrorCodeInvalidToken})
	})

	t.Run("non JSON error body", func(t *testing.T) {
		_, err := client.Liveness(ctx)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		require.Equal(t, ErrorCodeInternal, apiErr.Code)
	})
}

func TestSessionRefreshesOnce(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken != "r1" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorCodeInvalidToken})
			return
		}
		refreshes.Add(1)
		writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "a2", RefreshToken: "r2", TokenType: "Bearer", ExpiresIn: 900})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a2" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorCodeInvalidToken})
			return
		}
		writeJSON(w, http.StatusOK, MeResponse{UserID: "u1", Username: "alice"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)

	// An ExpiresIn inside the refresh skew makes the first call refresh.
	session := client.NewSession(&TokenResponse{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: 10})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := session.Token(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			if token != "a2" {
				t.Errorf("token = %q, want a2", token)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, refreshes.Load())
	require.Equal(t, "r2", session.RefreshToken())

	me, err := session.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)
}

func TestSessionWithoutRefreshToken(t *testing.T) {
	t.Parallel()

	session := NewClient("http://127.0.0.1:0").NewSession(&TokenResponse{AccessToken: "a1"})
	session.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err := session.Token(context.Background())
	require.ErrorIs(t, err, ErrNoRefreshToken)
}
