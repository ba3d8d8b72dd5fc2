package api

import (
	"net/http"

	"cryptoledger/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Balance       string  `json:"balance"`
	TotalInvested string  `json:"totalInvested"`
	TotalROI      string  `json:"totalRoi"`
	WalletAddress *string `json:"walletAddress"`
}

func newProfileResponse(user *models.User) profileResponse {
	return profileResponse{
		ID:            user.ID.String(),
		Email:         user.Email,
		Balance:       user.Balance.String(),
		TotalInvested: user.TotalInvested.String(),
		TotalROI:      user.TotalROI.String(),
		WalletAddress: user.WalletAddress,
	}
}

// Register creates an account
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    newProfileResponse(user),
	})
}

// Login exchanges credentials for a bearer token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  newProfileResponse(user),
	})
}

// Me returns the caller's balances
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	current, _ := UserFromContext(r.Context())

	user, err := h.auth.Profile(r.Context(), current.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": newProfileResponse(user)})
}
