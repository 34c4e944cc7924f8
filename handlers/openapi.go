package handlers

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/Dosada05/esports-bracket/models"
	"github.com/Dosada05/esports-bracket/services"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type tournamentQuery struct {
	TournamentID string `query:"tournament_id" required:"true"`
}

type indexQuery struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize" maximum:"100"`
	Status   string `query:"status" enum:"NOT_STARTED,REG_STARTED,STARTED"`
}

type tournamentPath struct {
	TournamentID string `path:"tournamentID"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Esports Bracket API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Tournament registration and single-elimination bracket lifecycle.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Operator login")
	postLogin.AddReqStructure(services.LoginInput{})
	postLogin.AddRespStructure(TokenResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// GET /api/auth/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/auth/me")
	getMe.SetSummary("Current operator")
	getMe.SetDescription("Requires Bearer token.")
	getMe.AddRespStructure(models.User{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// POST /api/tournaments/register-team
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/tournaments/register-team")
	postRegister.SetSummary("Register a team")
	postRegister.SetDescription("Registration must be open and the bracket capacity not reached.")
	postRegister.AddReqStructure(registerTeamRequest{})
	postRegister.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusCreated))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postRegister)

	// GET /api/tournaments/teams
	getTeams, _ := r.NewOperationContext(http.MethodGet, "/api/tournaments/teams")
	getTeams.SetSummary("List registered teams")
	getTeams.SetDescription("Teams in registration order; eliminated teams have is_banned set.")
	getTeams.AddReqStructure(tournamentQuery{})
	getTeams.AddRespStructure([]models.Team{}, openapi.WithHTTPStatus(http.StatusOK))
	getTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getTeams)

	// GET /api/tournaments/matches
	getMatches, _ := r.NewOperationContext(http.MethodGet, "/api/tournaments/matches")
	getMatches.SetSummary("List matches")
	getMatches.SetDescription("Every match row of the tournament, ordered by bracket match id.")
	getMatches.AddReqStructure(tournamentQuery{})
	getMatches.AddRespStructure([]models.Match{}, openapi.WithHTTPStatus(http.StatusOK))
	getMatches.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getMatches.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMatches)

	// POST /api/tournaments/create
	postCreate, _ := r.NewOperationContext(http.MethodPost, "/api/tournaments/create")
	postCreate.SetSummary("Create tournament")
	postCreate.SetDescription("Requires Bearer token.")
	postCreate.AddReqStructure(createTournamentRequest{})
	postCreate.AddRespStructure(models.Tournament{}, openapi.WithHTTPStatus(http.StatusCreated))
	postCreate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postCreate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postCreate)

	// GET /api/tournaments/index
	getIndex, _ := r.NewOperationContext(http.MethodGet, "/api/tournaments/index")
	getIndex.SetSummary("List tournaments")
	getIndex.SetDescription("Pagination metadata is returned in the X-Pagination header.")
	getIndex.AddReqStructure(indexQuery{})
	getIndex.AddRespStructure([]models.Tournament{}, openapi.WithHTTPStatus(http.StatusOK))
	getIndex.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getIndex)

	// GET /api/tournaments/view/{tournamentID}
	getView, _ := r.NewOperationContext(http.MethodGet, "/api/tournaments/view/{tournamentID}")
	getView.SetSummary("Tournament overview")
	getView.SetDescription("Tournament with its teams and matches.")
	getView.AddReqStructure(tournamentPath{})
	getView.AddRespStructure(models.Tournament{}, openapi.WithHTTPStatus(http.StatusOK))
	getView.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getView)

	// GET /api/tournaments/bracket/{tournamentID}
	getBracket, _ := r.NewOperationContext(http.MethodGet, "/api/tournaments/bracket/{tournamentID}")
	getBracket.SetSummary("Bracket snapshot")
	getBracket.SetDescription("The stored bracket: participant, stage, group, round, match and match_game collections.")
	getBracket.AddReqStructure(tournamentPath{})
	getBracket.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("application/json"))
	getBracket.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getBracket)

	// POST /api/tournaments/open-registration
	postOpen, _ := r.NewOperationContext(http.MethodPost, "/api/tournaments/open-registration")
	postOpen.SetSummary("Open registration")
	postOpen.SetDescription("NOT_STARTED to REG_STARTED. Requires Bearer token.")
	postOpen.AddReqStructure(tournamentIDRequest{})
	postOpen.AddRespStructure(models.Tournament{}, openapi.WithHTTPStatus(http.StatusOK))
	postOpen.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postOpen.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postOpen)

	// POST /api/tournaments/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/tournaments/start")
	postStart.SetSummary("Start tournament")
	postStart.SetDescription("Closes registration, generates the bracket and the opening matches. Requires Bearer token.")
	postStart.AddReqStructure(tournamentIDRequest{})
	postStart.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusCreated))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postStart)

	// POST /api/tournaments/define-winner
	postWinner, _ := r.NewOperationContext(http.MethodPost, "/api/tournaments/define-winner")
	postWinner.SetSummary("Define match winner")
	postWinner.SetDescription("Records the winner, eliminates the loser and advances the bracket. Requires Bearer token.")
	postWinner.AddReqStructure(defineWinnerRequest{})
	postWinner.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postWinner.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postWinner.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postWinner)

	// POST /api/tournaments/rebuild-bracket
	postRebuild, _ := r.NewOperationContext(http.MethodPost, "/api/tournaments/rebuild-bracket")
	postRebuild.SetSummary("Rebuild bracket snapshot")
	postRebuild.SetDescription("Regenerates the snapshot from stored matches. Requires Bearer token.")
	postRebuild.AddReqStructure(tournamentIDRequest{})
	postRebuild.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postRebuild.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRebuild.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postRebuild)

	return r.Spec
}

func OpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
