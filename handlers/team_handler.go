package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-bracket/services"
)

type registerTeamRequest struct {
	TournamentID       string `json:"tournament_id"`
	TeamName           string `json:"team_name"`
	CaptainName        string `json:"captain_name"`
	CaptainPhoneNumber string `json:"captain_phone_number"`
}

type TeamHandler struct {
	responder
	registrationService services.RegistrationService
}

func NewTeamHandler(rs services.RegistrationService, logger *slog.Logger, production bool) *TeamHandler {
	return &TeamHandler{
		responder:           newResponder(logger, production),
		registrationService: rs,
	}
}

// Register handles POST /tournaments/register-team.
func (h *TeamHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerTeamRequest
	if err := readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	v := newValidator()
	tournamentID := v.UUID(req.TournamentID, "tournament_id")
	v.Required(req.TeamName, "team_name")
	v.Required(req.CaptainName, "captain_name")
	v.Required(req.CaptainPhoneNumber, "captain_phone_number")
	v.Phone(req.CaptainPhoneNumber, "captain_phone_number")
	if !v.Valid() {
		h.failedValidationResponse(w, r, v)
		return
	}

	_, err := h.registrationService.Register(r.Context(), services.RegisterTeamInput{
		TournamentID:       tournamentID,
		TeamName:           req.TeamName,
		CaptainName:        req.CaptainName,
		CaptainPhoneNumber: req.CaptainPhoneNumber,
	})
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// List handles GET /tournaments/teams?tournament_id=.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	v := newValidator()
	tournamentID := v.UUID(r.URL.Query().Get("tournament_id"), "tournament_id")
	if !v.Valid() {
		h.failedValidationResponse(w, r, v)
		return
	}

	teams, err := h.registrationService.ListTeams(r.Context(), tournamentID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, teams, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
