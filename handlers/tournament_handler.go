package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/Dosada05/esports-bracket/models"
	"github.com/Dosada05/esports-bracket/services"
	"github.com/Dosada05/esports-bracket/storage"
	"github.com/Dosada05/esports-bracket/utils"
)

type createTournamentRequest struct {
	GameID       string `json:"game_id"`
	Name         string `json:"name"`
	RegStartDate string `json:"reg_start_date"`
	StartDate    string `json:"start_date"`
}

type tournamentIDRequest struct {
	TournamentID string `json:"tournament_id"`
}

type TournamentHandler struct {
	responder
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService, logger *slog.Logger, production bool) *TournamentHandler {
	return &TournamentHandler{
		responder:         newResponder(logger, production),
		tournamentService: ts,
	}
}

// Create handles POST /tournaments/create.
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	v := newValidator()
	input := services.CreateTournamentInput{
		GameID:       v.UUID(req.GameID, "game_id"),
		Name:         req.Name,
		RegStartDate: v.Date(req.RegStartDate, "reg_start_date"),
		StartDate:    v.Date(req.StartDate, "start_date"),
	}
	v.Required(req.Name, "name")
	if !v.Valid() {
		h.failedValidationResponse(w, r, v)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, tournament, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Index handles GET /tournaments/index?page=&pageSize=&status=.
func (h *TournamentHandler) Index(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := newValidator()

	page, pageSize := 1, utils.DefaultPageSize
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		v.Check(err == nil && n > 0, "page", "must be a positive integer")
		page = n
	}
	if raw := query.Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		v.Check(err == nil && n > 0, "pageSize", "must be a positive integer")
		pageSize = n
	}

	input := services.ListTournamentsInput{Page: page, PageSize: pageSize}
	if raw := query.Get("status"); raw != "" {
		status := models.TournamentStatus(raw)
		v.Check(status.IsValid(), "status", "must be one of NOT_STARTED, REG_STARTED, STARTED")
		input.Status = &status
	}
	if !v.Valid() {
		h.failedValidationResponse(w, r, v)
		return
	}

	tournaments, total, err := h.tournamentService.List(r.Context(), input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	pagination, err := json.Marshal(utils.NewPagination(total, page, pageSize))
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	headers := http.Header{}
	headers.Set("X-Pagination", string(pagination))

	if err := writeJSON(w, http.StatusOK, tournaments, headers); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// View handles GET /tournaments/view/{tournamentID}.
func (h *TournamentHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Overview(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Start handles POST /tournaments/start.
func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readTournamentID(w, r)
	if !ok {
		return
	}

	if _, err := h.tournamentService.Start(r.Context(), id); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// OpenRegistration handles POST /tournaments/open-registration.
func (h *TournamentHandler) OpenRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readTournamentID(w, r)
	if !ok {
		return
	}

	tournament, err := h.tournamentService.OpenRegistration(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// RebuildBracket handles POST /tournaments/rebuild-bracket.
func (h *TournamentHandler) RebuildBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readTournamentID(w, r)
	if !ok {
		return
	}

	if err := h.tournamentService.RebuildSnapshot(r.Context(), id); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Bracket handles GET /tournaments/bracket/{tournamentID}. The stored
// snapshot is streamed as is.
func (h *TournamentHandler) Bracket(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	rc, tournament, err := h.tournamentService.OpenBracket(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", storage.SnapshotContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", utils.BracketFileName(tournament.Name, tournament.ID)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("failed to stream bracket snapshot",
			slog.String("tournament_id", id.String()),
			slog.Any("error", err))
	}
}

func (h *TournamentHandler) readTournamentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req tournamentIDRequest
	if err := readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return uuid.Nil, false
	}

	v := newValidator()
	id := v.UUID(req.TournamentID, "tournament_id")
	if !v.Valid() {
		h.failedValidationResponse(w, r, v)
		return uuid.Nil, false
	}
	return id, true
}
