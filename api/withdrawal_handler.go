package api

import (
	"fmt"
	"net/http"

	"cryptoledger/models"
	"cryptoledger/service"

	"github.com/shopspring/decimal"
)

type createWithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      models.Currency `json:"currency"`
	WalletAddress string          `json:"walletAddress"`
}

type processWithdrawalRequest struct {
	Status models.WithdrawalStatus `json:"status"`
	TxHash *string                 `json:"txHash"`
}

// ListWithdrawals returns the caller's withdrawals, newest first
func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	withdrawals, err := h.withdrawals.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if withdrawals == nil {
		withdrawals = []*models.Withdrawal{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"withdrawals": withdrawals})
}

func (h *Handler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	withdrawalID, err := pathID(r, "Withdrawal not found")
	if err != nil {
		writeError(w, r, err)
		return
	}

	withdrawal, err := h.withdrawals.Get(r.Context(), user.ID, withdrawalID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"withdrawal": withdrawal})
}

// CreateWithdrawal opens a pending withdrawal. The balance is debited only on completion.
func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req createWithdrawalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	withdrawal, err := h.withdrawals.Create(r.Context(), user.ID, service.CreateWithdrawalRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Withdrawal request created successfully",
		"withdrawal": withdrawal,
	})
}

func (h *Handler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	withdrawalID, err := pathID(r, "Withdrawal not found")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req processWithdrawalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	withdrawal, err := h.withdrawals.Process(r.Context(), user.ID, withdrawalID, req.Status, req.TxHash)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      fmt.Sprintf("Withdrawal %s successfully", withdrawal.Status),
		"withdrawalId": withdrawal.ID,
	})
}

func (h *Handler) CancelWithdrawal(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	withdrawalID, err := pathID(r, "Withdrawal not found")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.withdrawals.Cancel(r.Context(), user.ID, withdrawalID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Withdrawal request cancelled successfully",
		"withdrawalId": withdrawalID,
	})
}
