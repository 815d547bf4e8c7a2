package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/service"
	"github.com/aussiebroadwan/ircbridge/pkg/bridgesdk"
	"github.com/aussiebroadwan/ircbridge/pkg/httpx"
)

// maxProvisionBody caps the request body; it only carries channel names.
const maxProvisionBody = 16 << 10

type ProvisionHandler struct {
	ProvisionService *service.ProvisionService
}

// ServeHTTP provisions the caller's bouncer account.
//
//	@Summary		Provision bouncer credentials
//	@Description	Creates the caller's bouncer account on first use, otherwise rotates its secret. The username never changes.
//	@Description	The response holds the only copy of the secret and is never cached. login_url must only be handed to the embedded client.
//	@Tags			Provisioning
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		bridgesdk.ProvisionRequest	false	"Community and channels"
//	@Success		201		{object}	bridgesdk.ProvisionResponse	"Fresh credentials"
//	@Failure		400		{object}	bridgesdk.ErrorResponse		"Invalid body or channel name"
//	@Failure		401		{object}	bridgesdk.ErrorResponse		"Missing or invalid caller token"
//	@Failure		429		{object}	bridgesdk.ErrorResponse		"Too many provisioning calls"
//	@Failure		503		{object}	bridgesdk.ErrorResponse		"Provisioning failed, retryable"
//	@Router			/v1/provision [post].
func (h *ProvisionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpx.CallerFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}

	var req bridgesdk.ProvisionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProvisionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(w, http.StatusBadRequest, bridgesdk.ErrorCodeInvalidRequest, "request body must be valid JSON")
		return
	}

	out, err := h.ProvisionService.Provision(r.Context(), service.ProvisionRequest{
		Identity: service.Identity{
			ExternalUserID: caller.Subject,
			DisplayName:    caller.DisplayName(),
			RealName:       caller.PreferredName,
		},
		Community: req.Community,
		Channels:  req.Channels,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	channels := out.Channels
	if channels == nil {
		channels = []string{}
	}
	httpx.WriteJSON(w, http.StatusCreated, bridgesdk.ProvisionResponse{
		BouncerUsername: out.BouncerUsername,
		Password:        out.Secret,
		NetworkName:     out.NetworkName,
		LoginURL:        out.LoginURL,
		Channels:        channels,
		Created:         out.Created,
	})
}

type IdentityHandler struct {
	ProvisionService *service.ProvisionService
}

// HandleGet returns the caller's bouncer account.
//
//	@Summary		Get the caller's bouncer account
//	@Description	Returns the account and its channel memberships. The secret is never returned.
//	@Tags			Provisioning
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	bridgesdk.IdentityResponse
//	@Failure		401	{object}	bridgesdk.ErrorResponse	"Missing or invalid caller token"
//	@Failure		404	{object}	bridgesdk.ErrorResponse	"Not provisioned"
//	@Router			/v1/identity [get].
func (h *IdentityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpx.CallerFromContext(r.Context())

	view, err := h.ProvisionService.GetIdentity(r.Context(), caller.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	memberships := make([]bridgesdk.MembershipResponse, len(view.Memberships))
	for i, m := range view.Memberships {
		memberships[i] = bridgesdk.MembershipResponse{
			Network:   m.Network,
			Channel:   m.Channel,
			CreatedAt: m.CreatedAt,
		}
	}

	httpx.WriteJSON(w, http.StatusOK, bridgesdk.IdentityResponse{
		BouncerUsername: view.BouncerUsername,
		DisplayName:     view.DisplayName,
		RealName:        view.RealName,
		CreatedAt:       view.CreatedAt,
		UpdatedAt:       view.UpdatedAt,
		LastUsedAt:      view.LastUsedAt,
		Memberships:     memberships,
	})
}

// HandleDelete deprovisions the caller.
//
//	@Summary		Delete the caller's bouncer account
//	@Description	Removes the account with its memberships and login tickets. The owning application calls this when it deletes the user.
//	@Tags			Provisioning
//	@Security		BearerAuth
//	@Success		204
//	@Failure		401	{object}	bridgesdk.ErrorResponse	"Missing or invalid caller token"
//	@Failure		404	{object}	bridgesdk.ErrorResponse	"Not provisioned"
//	@Router			/v1/identity [delete].
func (h *IdentityHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpx.CallerFromContext(r.Context())

	if err := h.ProvisionService.Deprovision(r.Context(), caller.Subject); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
