package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-bracket/services"
)

type defineWinnerRequest struct {
	TournamentID string `json:"tournament_id"`
	MatchID      *int   `json:"match_id"`
	WinnerID     string `json:"winner_id"`
}

type MatchHandler struct {
	responder
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService, logger *slog.Logger, production bool) *MatchHandler {
	return &MatchHandler{
		responder:    newResponder(logger, production),
		matchService: ms,
	}
}

// DefineWinner handles POST /tournaments/define-winner.
func (h *MatchHandler) DefineWinner(w http.ResponseWriter, r *http.Request) {
	var req defineWinnerRequest
	if err := readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	v := newValidator()
	input := services.DefineWinnerInput{
		TournamentID: v.UUID(req.TournamentID, "tournament_id"),
		WinnerID:     v.UUID(req.WinnerID, "winner_id"),
	}
	v.Check(req.MatchID != nil, "match_id", "must be provided")
	if req.MatchID != nil {
		v.Check(*req.MatchID >= 0, "match_id", "must not be negative")
		input.MatchID = *req.MatchID
	}
	if !v.Valid() {
		h.failedValidationResponse(w, r, v)
		return
	}

	if err := h.matchService.DefineWinner(r.Context(), input); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// List handles GET /tournaments/matches?tournament_id=.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	v := newValidator()
	tournamentID := v.UUID(r.URL.Query().Get("tournament_id"), "tournament_id")
	if !v.Valid() {
		h.failedValidationResponse(w, r, v)
		return
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, matches, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
