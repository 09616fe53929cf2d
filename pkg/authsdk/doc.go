/*
Package authsdk is a Go client for the bartender authentication service.

# Overview

A Client wraps the five auth endpoints and the health probes:

	client := authsdk.NewClient("https://auth.example.com")

	_, err := client.Register(ctx, authsdk.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Secret#123",
	})

	pair, err := client.Login(ctx, "alice", "Secret#123")
	v, err := client.Validate(ctx, pair.AccessToken)
	pair, err = client.Refresh(ctx, pair.RefreshToken)

# Sessions

A Session keeps a token pair and refreshes it 30 seconds before the access
token expires. It is safe for concurrent use; concurrent callers share one
refresh.

	session, err := client.LoginSession(ctx, "alice", "Secret#123")
	me, err := session.Me(ctx)

# Errors

Every non-2xx response is returned as an *APIError carrying the HTTP status,
the service's error code and, for validation failures, per-field messages:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeValidationFailed {
		for field, msgs := range apiErr.Details {
			fmt.Println(field, msgs)
		}
	}
*/
package authsdk
