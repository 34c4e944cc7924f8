package routes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/esports-bracket/handlers"
	"github.com/Dosada05/esports-bracket/middleware"
	"github.com/Dosada05/esports-bracket/models"
	"github.com/Dosada05/esports-bracket/services"
)

const testSecret = "routes-test-secret"

type stubTournaments struct {
	services.TournamentService
	started []uuid.UUID
}

func (s *stubTournaments) Start(_ context.Context, id uuid.UUID) (*models.Tournament, error) {
	s.started = append(s.started, id)
	return &models.Tournament{ID: id, Status: models.StatusStarted}, nil
}

func (s *stubTournaments) List(context.Context, services.ListTournamentsInput) ([]models.Tournament, int, error) {
	return []models.Tournament{}, 0, nil
}

type stubRegistrations struct{ services.RegistrationService }

type stubMatches struct{ services.MatchService }

func (stubMatches) ListByTournament(context.Context, uuid.UUID) ([]models.Match, error) {
	return []models.Match{}, nil
}

type stubAuth struct{ services.AuthService }

func newTestRouter(t *testing.T) (*chi.Mux, *stubTournaments) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tournaments := &stubTournaments{}

	router := chi.NewRouter()
	SetupRoutes(router, Config{
		Logger:         logger,
		JWTSecret:      []byte(testSecret),
		AllowedOrigins: []string{"*"},
		HealthChecks:   map[string]handlers.Checker{"postgres": func(context.Context) error { return nil }},
	},
		handlers.NewAuthHandler(stubAuth{}, testSecret, logger, true),
		handlers.NewTournamentHandler(tournaments, logger, true),
		handlers.NewTeamHandler(stubRegistrations{}, logger, true),
		handlers.NewMatchHandler(stubMatches{}, logger, true),
	)
	return router, tournaments
}

func serve(router http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method, target, want string
	}{
		{http.MethodGet, "/nope", "Can't GET /nope"},
		{http.MethodDelete, "/api/tournaments/index", "Can't DELETE /api/tournaments/index"},
		{http.MethodGet, "/tournaments/index", "Can't GET /tournaments/index"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			rec := serve(router, tt.method, tt.target, "", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["message"])
		})
	}
}

func TestOperatorRoutesRequireToken(t *testing.T) {
	router, tournaments := newTestRouter(t)
	body := `{"tournament_id":"` + uuid.NewString() + `"}`

	for _, path := range []string{"create", "open-registration", "start", "define-winner", "rebuild-bracket"} {
		rec := serve(router, http.MethodPost, "/api/tournaments/"+path, body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := serve(router, http.MethodPost, "/api/tournaments/start", body, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, tournaments.started)

	token, err := middleware.NewToken([]byte(testSecret), uuid.New(), "operator", time.Minute)
	require.NoError(t, err)
	rec = serve(router, http.MethodPost, "/api/tournaments/start", body, token)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, tournaments.started, 1)
}

func TestPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/tournaments/index", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Pagination"))

	rec = serve(router, http.MethodGet, "/api/tournaments/matches?tournament_id="+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/openapi.json", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/tournaments/define-winner")
}
