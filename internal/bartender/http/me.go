package http

import (
	"net/http"

	"github.com/aussiebroadwan/bartender/internal/bartender/service"
	"github.com/aussiebroadwan/bartender/pkg/authsdk"
	"github.com/aussiebroadwan/bartender/pkg/httpx"
)

type MeHandler struct {
	IdentityService *service.IdentityService
}

// ServeHTTP godoc
//
//	@Summary		Current identity
//	@Description	Returns the identity behind the bearer access token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse		"user_id, username, email, created_at"
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"user_not_found"
//	@Router			/api/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subject, ok := httpx.SubjectFromContext(r.Context())
	if !ok {
		httpx.WriteBearerError(w, "missing bearer token")
		return
	}

	identity, err := h.IdentityService.GetIdentity(r.Context(), subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
		UserID:    identity.ID,
		Username:  identity.Username,
		Email:     identity.Email,
		CreatedAt: identity.CreatedAt,
	})
}
