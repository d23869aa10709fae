package handlers

import (
	"net/http"

	"github.com/betablockz/backend/internal/services"
	"github.com/shopspring/decimal"
)

type AccountHandler struct {
	accounts    *services.AccountService
	stats       *services.StatsService
	redemptions *services.RedemptionService
	bonus       *services.BonusService
	validator   *services.ValidationHelper
}

func NewAccountHandler(accounts *services.AccountService, stats *services.StatsService,
	redemptions *services.RedemptionService, bonus *services.BonusService) *AccountHandler {
	return &AccountHandler{
		accounts:    accounts,
		stats:       stats,
		redemptions: redemptions,
		bonus:       bonus,
		validator:   services.NewValidationHelper(),
	}
}

// GetAccount returns the caller's balances and tier
// @Summary Get account
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,data=models.Account}
// @Failure 404 {object} services.ErrorResponse
// @Router /account [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    account,
	})
}

// RecentEntries lists the latest ledger entries, newest first
// @Summary Recent ledger entries
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,data=[]models.LedgerEntry}
// @Router /account/entries [get]
func (h *AccountHandler) RecentEntries(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	entries, err := h.accounts.RecentEntries(r.Context(), accountID)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    entries,
	})
}

// Stats returns wagered volume and profit/loss for the last 24h, 7d and 30d
// @Summary Wager statistics
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,data=models.AccountStats}
// @Router /account/stats [get]
func (h *AccountHandler) Stats(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	stats, err := h.stats.ComputeStats(r.Context(), accountID)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}

// TierProgress reports progress toward the next VIP tier
// @Summary VIP tier progress
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,data=models.TierProgress}
// @Router /account/tier [get]
func (h *AccountHandler) TierProgress(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	progress, err := h.accounts.TierProgress(r.Context(), accountID)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    progress,
	})
}

// Redeem requests a withdrawal to an external wallet
// @Summary Request redemption
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=string,walletTo=string} true "Redemption request"
// @Success 202 {object} object{success=bool,data=models.LedgerEntry}
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /account/redeem [post]
func (h *AccountHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount   decimal.Decimal `json:"amount"`
		WalletTo string          `json:"walletTo" validate:"required,min=20,max=80"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	entry, err := h.redemptions.RequestRedemption(r.Context(), accountID, req.Amount, req.WalletTo)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"data":    entry,
	})
}

// Claim redeems the account's single-use claim code
// @Summary Claim bonus code
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{claimCode=string} true "Claim request"
// @Success 200 {object} object{success=bool,credited=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /account/claim [post]
func (h *AccountHandler) Claim(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req struct {
		ClaimCode string `json:"claimCode" validate:"required,max=64"`
	}
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	credited, err := h.bonus.ClaimCode(r.Context(), accountID, req.ClaimCode)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"credited": credited,
	})
}
