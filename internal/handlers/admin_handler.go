package handlers

import (
	"net/http"
	"strconv"

	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	accounts    *services.AccountService
	stats       *services.StatsService
	redemptions *services.RedemptionService
	bonus       *services.BonusService
	validator   *services.ValidationHelper
}

func NewAdminHandler(accounts *services.AccountService, stats *services.StatsService,
	redemptions *services.RedemptionService, bonus *services.BonusService) *AdminHandler {
	return &AdminHandler{
		accounts:    accounts,
		stats:       stats,
		redemptions: redemptions,
		bonus:       bonus,
		validator:   services.NewValidationHelper(),
	}
}

// PendingRedemptions lists redemptions awaiting an administrator
// @Summary Pending redemptions
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,data=[]models.LedgerEntry}
// @Router /admin/redemptions [get]
func (h *AdminHandler) PendingRedemptions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.redemptions.ListPendingRedemptions(r.Context())
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    entries,
	})
}

// ActionRedemption completes or rejects a pending redemption
// @Summary Complete or reject a redemption
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param entryId path int true "Ledger entry id"
// @Param action path string true "complete or reject"
// @Success 200 {object} object{success=bool,data=models.LedgerEntry}
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/redemptions/{entryId}/{action} [post]
func (h *AdminHandler) ActionRedemption(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryId"), 10, 64)
	if err != nil || entryID <= 0 {
		services.SendErrorResponse(w, "Invalid entry id", http.StatusBadRequest, nil)
		return
	}

	var entry *models.LedgerEntry
	switch chi.URLParam(r, "action") {
	case "complete":
		entry, err = h.redemptions.CompleteRedemption(r.Context(), entryID)
	case "reject":
		entry, err = h.redemptions.RejectRedemption(r.Context(), entryID)
	default:
		services.SendErrorResponse(w, "Action must be complete or reject", http.StatusBadRequest, nil)
		return
	}
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    entry,
	})
}

// CreditBonus moves an account's bonus-due into its balance
// @Summary Credit bonus due
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account id"
// @Success 200 {object} object{success=bool,credited=string}
// @Failure 422 {object} services.ErrorResponse
// @Router /admin/accounts/{accountId}/credit-bonus [post]
func (h *AdminHandler) CreditBonus(w http.ResponseWriter, r *http.Request) {
	credited, err := h.bonus.CreditBonusDue(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"credited": credited,
	})
}

// Adjust applies an administrative change to an account
// @Summary Adjust account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account id"
// @Param request body models.AdjustRequest true "Adjustment"
// @Success 200 {object} object{success=bool,data=models.Account}
// @Failure 400 {object} services.ErrorResponse
// @Router /admin/accounts/{accountId}/adjust [post]
func (h *AdminHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req models.AdjustRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	account, err := h.accounts.AdjustAccount(r.Context(), chi.URLParam(r, "accountId"), req)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    account,
	})
}

// AccountStats returns window stats for any account
// @Summary Account statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account id"
// @Success 200 {object} object{success=bool,data=models.AccountStats}
// @Router /admin/accounts/{accountId}/stats [get]
func (h *AdminHandler) AccountStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.ComputeStats(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}

// Reconcile compares the stored balance with the ledger sum
// @Summary Reconcile account
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account id"
// @Success 200 {object} object{success=bool,balanced=bool,drift=string}
// @Router /admin/accounts/{accountId}/reconcile [get]
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	drift, err := h.accounts.Reconcile(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"balanced": drift.IsZero(),
		"drift":    drift,
	})
}
