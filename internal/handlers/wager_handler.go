package handlers

import (
	"net/http"

	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/services"
	"github.com/shopspring/decimal"
)

type WagerHandler struct {
	service   *services.WagerService
	validator *services.ValidationHelper
}

func NewWagerHandler(service *services.WagerService) *WagerHandler {
	return &WagerHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type diceRequest struct {
	Bet         decimal.Decimal `json:"bet"`
	TargetUnder int             `json:"targetUnder" validate:"required,min=2,max=99"`
}

type minesRequest struct {
	Bet   decimal.Decimal `json:"bet"`
	Mines int             `json:"mines" validate:"required,min=1,max=24"`
}

// PlayDice places a threshold-roll wager
// @Summary Play dice
// @Description Roll 1-100 and win when the roll is under the target
// @Tags Games
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{bet=string,targetUnder=int} true "Dice wager"
// @Success 200 {object} object{success=bool,data=models.WagerResult}
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /games/dice [post]
func (h *WagerHandler) PlayDice(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req diceRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	h.place(w, r, accountID, models.WagerRequest{Game: models.GameDice, Bet: req.Bet, Target: req.TargetUnder})
}

// PlayMines places a grid-reveal wager
// @Summary Play mines
// @Description Reveal one cell of a 25-cell grid holding the chosen number of mines
// @Tags Games
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{bet=string,mines=int} true "Mines wager"
// @Success 200 {object} object{success=bool,data=models.WagerResult}
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /games/mines [post]
func (h *WagerHandler) PlayMines(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req minesRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	h.place(w, r, accountID, models.WagerRequest{Game: models.GameMines, Bet: req.Bet, Mines: req.Mines})
}

func (h *WagerHandler) place(w http.ResponseWriter, r *http.Request, accountID string, req models.WagerRequest) {
	result, err := h.service.PlaceWager(r.Context(), accountID, req)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}
