package api

import (
	"fmt"
	"net/http"

	"cryptoledger/models"
	"cryptoledger/service"

	"github.com/shopspring/decimal"
)

type createDepositRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      models.Currency `json:"currency"`
	WalletAddress string          `json:"walletAddress"`
}

type confirmDepositRequest struct {
	Status models.DepositStatus `json:"status"`
	TxHash *string              `json:"txHash"`
}

// ListDeposits returns the caller's deposits, newest first
func (h *Handler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	deposits, err := h.deposits.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if deposits == nil {
		deposits = []*models.Deposit{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"deposits": deposits})
}

// CreateDeposit opens a pending deposit
func (h *Handler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req createDepositRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	deposit, err := h.deposits.Create(r.Context(), user.ID, service.CreateDepositRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Deposit request created successfully",
		"deposit": deposit,
	})
}

// ConfirmDeposit settles a pending deposit as confirmed or failed
func (h *Handler) ConfirmDeposit(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	depositID, err := pathID(r, "Deposit not found")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req confirmDepositRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	deposit, err := h.deposits.Confirm(r.Context(), user.ID, depositID, req.Status, req.TxHash)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("Deposit %s successfully", deposit.Status),
		"depositId": deposit.ID,
	})
}
