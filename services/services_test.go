package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/esports-bracket/db/dbtest"
	"github.com/Dosada05/esports-bracket/models"
	"github.com/Dosada05/esports-bracket/repositories"
	"github.com/Dosada05/esports-bracket/storage"
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// testClock advances by one second on every reading so registration order is
// strictly increasing.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// flakyStore fails Save calls while failSave is set. afterSave runs once a
// Save went through.
type flakyStore struct {
	storage.SnapshotStore
	mu        sync.Mutex
	failSave  bool
	afterSave func()
}

var errStoreDown = errors.New("snapshot store unavailable")

func (s *flakyStore) Save(ctx context.Context, id uuid.UUID, data []byte) error {
	s.mu.Lock()
	fail, after := s.failSave, s.afterSave
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	if err := s.SnapshotStore.Save(ctx, id, data); err != nil {
		return err
	}
	if after != nil {
		after()
	}
	return nil
}

func (s *flakyStore) setAfterSave(fn func()) {
	s.mu.Lock()
	s.afterSave = fn
	s.mu.Unlock()
}

func (s *flakyStore) setFailSave(v bool) {
	s.mu.Lock()
	s.failSave = v
	s.mu.Unlock()
}

type testEnv struct {
	db             *sqlx.DB
	clock          *testClock
	store          *flakyStore
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	tournaments    *tournamentService
	registrations  *registrationService
	matches        *matchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvOn(t, dbtest.New(t))
}

func newTestEnvOn(t *testing.T, conn *sqlx.DB) *testEnv {
	t.Helper()

	fs, err := storage.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &testClock{now: baseTime}
	store := &flakyStore{SnapshotStore: fs}

	tournamentRepo := repositories.NewTournamentRepository(conn)
	teamRepo := repositories.NewTeamRepository(conn)
	matchRepo := repositories.NewMatchRepository(conn)
	adapter := NewBracketAdapter(models.DefaultBracketConfig())

	tournaments := NewTournamentService(conn, tournamentRepo, teamRepo, matchRepo, store, adapter, logger).(*tournamentService)
	registrations := NewRegistrationService(conn, tournamentRepo, teamRepo, adapter.Config(), logger).(*registrationService)
	matches := NewMatchService(conn, tournamentRepo, matchRepo, store, adapter, logger).(*matchService)
	tournaments.now = clock.Now
	registrations.now = clock.Now
	matches.now = clock.Now

	return &testEnv{
		db:             conn,
		clock:          clock,
		store:          store,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		tournaments:    tournaments,
		registrations:  registrations,
		matches:        matches,
	}
}

// openTournament stores a tournament whose registration is open and whose
// start date has already passed.
func (e *testEnv) openTournament(t *testing.T) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		GameID:       uuid.New(),
		Name:         "Spring Cup",
		RegStartDate: baseTime.Add(-48 * time.Hour),
		StartDate:    baseTime.Add(-time.Hour),
		Status:       models.StatusRegStarted,
	}
	require.NoError(t, e.tournamentRepo.Create(context.Background(), nil, tournament))
	return tournament
}

// register adds teams in the given order and returns them keyed by name.
func (e *testEnv) register(t *testing.T, tournamentID uuid.UUID, names ...string) map[string]*models.Team {
	t.Helper()
	teams := make(map[string]*models.Team, len(names))
	for _, name := range names {
		team, err := e.registrations.Register(context.Background(), RegisterTeamInput{
			TournamentID:       tournamentID,
			TeamName:           name,
			CaptainName:        "Captain " + name,
			CaptainPhoneNumber: "+998901234567",
		})
		require.NoError(t, err)
		teams[name] = team
	}
	return teams
}

func teamNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Team %02d", i+1)
	}
	return names
}

// startedTournament returns a started four-team tournament: A-D and B-C open
// at "1/2".
func (e *testEnv) startedTournament(t *testing.T) (*models.Tournament, map[string]*models.Team) {
	t.Helper()
	tournament := e.openTournament(t)
	teams := e.register(t, tournament.ID, "A", "B", "C", "D")
	started, err := e.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)
	return started, teams
}

func (e *testEnv) matchBetween(t *testing.T, tournamentID uuid.UUID, team1, team2 *models.Team) models.Match {
	t.Helper()
	matches, err := e.matchRepo.ListByTournament(context.Background(), nil, tournamentID)
	require.NoError(t, err)
	for _, m := range matches {
		if m.Team1ID != nil && m.Team2ID != nil && *m.Team1ID == team1.ID && *m.Team2ID == team2.ID {
			return m
		}
	}
	t.Fatalf("no match %s vs %s", team1.TeamName, team2.TeamName)
	return models.Match{}
}

func (e *testEnv) defineWinner(tournamentID uuid.UUID, matchID int, winner *models.Team) error {
	return e.matches.DefineWinner(context.Background(), DefineWinnerInput{
		TournamentID: tournamentID,
		MatchID:      matchID,
		WinnerID:     winner.ID,
	})
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *models.Tournament {
	t.Helper()
	tournament, err := e.tournamentRepo.GetByID(context.Background(), nil, id)
	require.NoError(t, err)
	return tournament
}
