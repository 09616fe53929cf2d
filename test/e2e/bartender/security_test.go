package bartender_test

import (
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/aussiebroadwan/bartender/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestCredentialErrorsAreUniform(t *testing.T) {
	client := startService(t, relaxedLimits)
	ctx := t.Context()

	register(t, client, "dave")

	_, wrong := client.Login(ctx, "dave", "Wrong1!!")
	_, unknown := client.Login(ctx, "nobody", testPassword)

	requireAPIError(t, wrong, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)
	requireAPIError(t, unknown, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)
	require.Equal(t, wrong.Error(), unknown.Error())
}

func TestTokenConfusion(t *testing.T) {
	client := startService(t, relaxedLimits)
	ctx := t.Context()

	register(t, client, "erin")
	pair, err := client.Login(ctx, "erin", testPassword)
	require.NoError(t, err)

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := client.Validate(ctx, pair.RefreshToken)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := client.Refresh(ctx, pair.AccessToken)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		parts := strings.Split(pair.AccessToken, ".")
		require.Len(t, parts, 3)
		header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

		_, err := client.Validate(ctx, header+"."+parts[1]+".")
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		parts := strings.Split(pair.AccessToken, ".")
		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"01J00000000000000000000000","token_use":"access","exp":4102444800}`))

		_, err := client.Validate(ctx, parts[0]+"."+payload+"."+parts[2])
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
	})
}

func TestValidationDetails(t *testing.T) {
	client := startService(t, relaxedLimits)

	_, err := client.Register(t.Context(), authsdk.RegisterRequest{Username: "x", Email: "bad", Password: "password"})
	requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeValidationFailed)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Details, "username")
	require.Contains(t, apiErr.Details, "email")
	require.Equal(t, []string{"Password must contain at least one special character"}, apiErr.Details["password"])
}
