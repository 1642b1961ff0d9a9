package api

import (
	"encoding/json"
	"net/http"

	"github.com/mscwg/catalog/internal/catalog/users"
	apperrors "github.com/mscwg/catalog/internal/errors"
	"github.com/mscwg/catalog/internal/services/web/platform/httpx"
)

// handleToken exchanges API account credentials for a bearer token.
func (h handlers) handleToken(w http.ResponseWriter, r *http.Request) {
	account, ok := h.basicAuth(w, r)
	if !ok {
		return
	}
	token, err := h.tokens.Issue(account.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(users.TokenTTL.Seconds()),
	})
}

// handleResetPassword sets a new password for an API account that
// authenticates with its current one.
func (h handlers) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	account, ok := h.basicAuth(w, r)
	if !ok {
		return
	}
	var body struct {
		NewPassword string `json:"new_password"`
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		writeStatusError(w, http.StatusBadRequest, "invalid_request", "the request body must be a JSON object with new_password")
		return
	}
	hash, err := users.HashPassword(body.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	account.PasswordHash = hash
	ctx := httpx.RequestContext(r)
	if err := h.catalog.Store().SaveAPIUser(ctx, account); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"userid": account.UserID, "password_reset": true})
}

// basicAuth resolves an API account from HTTP basic credentials,
// transparently rehashing passwords stored with outdated parameters.
func (h handlers) basicAuth(w http.ResponseWriter, r *http.Request) (users.APIUser, bool) {
	userID, password, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="api"`)
		writeStatusError(w, http.StatusUnauthorized, "auth_required", "basic credentials are required")
		return users.APIUser{}, false
	}
	ctx := httpx.RequestContext(r)
	account, err := h.catalog.Store().GetAPIUser(ctx, userID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			writeStatusError(w, http.StatusUnauthorized, "bad_credentials", "unknown account or wrong password")
			return users.APIUser{}, false
		}
		writeError(w, err)
		return users.APIUser{}, false
	}
	valid, rehash := users.VerifyPassword(account.PasswordHash, password)
	if !valid {
		writeStatusError(w, http.StatusUnauthorized, "bad_credentials", "unknown account or wrong password")
		return users.APIUser{}, false
	}
	if rehash {
		if hash, hashErr := users.HashPassword(password); hashErr == nil {
			account.PasswordHash = hash
			_ = h.catalog.Store().SaveAPIUser(ctx, account)
		}
	}
	return account, true
}
