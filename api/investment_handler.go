package api

import (
	"net/http"

	"cryptoledger/models"

	"github.com/shopspring/decimal"
)

type createInvestmentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency models.Currency `json:"currency"`
}

// ListInvestments returns the caller's investments with current ROI figures
func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	investments, err := h.investments.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if investments == nil {
		investments = []*models.InvestmentSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"investments": investments})
}

// CreateInvestment moves balance into a new mining investment
func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req createInvestmentRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	investment, err := h.investments.Create(r.Context(), user.ID, req.Amount, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Investment created successfully",
		"investment": investment,
	})
}

// GetInvestment returns one investment with its ROI history
func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	investmentID, err := pathID(r, "Investment not found")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.investments.Get(r.Context(), user.ID, investmentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if detail.ROIHistory == nil {
		detail.ROIHistory = []*models.ROIHistory{}
	}

	writeJSON(w, http.StatusOK, detail)
}

// UpdateInvestmentROI persists the ROI accrued so far
func (h *Handler) UpdateInvestmentROI(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	investmentID, err := pathID(r, "Investment not found")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.investments.UpdateROI(r.Context(), user.ID, investmentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Investment ROI updated successfully",
		"investmentId": result.InvestmentID,
		"currentROI":   result.CurrentROI,
		"accrued":      result.Accrued,
		"totalValue":   result.TotalValue,
	})
}
