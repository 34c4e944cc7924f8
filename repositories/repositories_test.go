package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/esports-bracket/db/dbtest"
	"github.com/Dosada05/esports-bracket/models"
)

func seedTournament(t *testing.T, repo TournamentRepository, status models.TournamentStatus) *models.Tournament {
	t.Helper()
	now := time.Now().UTC()
	tournament := &models.Tournament{
		GameID:       uuid.New(),
		Name:         "Spring Cup",
		RegStartDate: now.Add(-2 * time.Hour),
		StartDate:    now.Add(-time.Hour),
		Status:       status,
	}
	require.NoError(t, repo.Create(context.Background(), nil, tournament))
	return tournament
}

func seedTeam(t *testing.T, repo TeamRepository, tournamentID uuid.UUID, name string, at time.Time) *models.Team {
	t.Helper()
	team := &models.Team{
		TournamentID:       tournamentID,
		TeamName:           name,
		CaptainName:        "Captain " + name,
		CaptainPhoneNumber: "+998901234567",
		RegisteredAt:       at,
	}
	require.NoError(t, repo.Create(context.Background(), nil, team))
	return team
}

func TestTeamRepository(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.New(t)
	tournaments := NewTournamentRepository(conn)
	teams := NewTeamRepository(conn)
	matches := NewMatchRepository(conn)

	tournament := seedTournament(t, tournaments, models.StatusRegStarted)
	base := time.Now().UTC()
	b := seedTeam(t, teams, tournament.ID, "B", base.Add(time.Second))
	a := seedTeam(t, teams, tournament.ID, "A", base)

	t.Run("duplicate name", func(t *testing.T) {
		err := teams.Create(ctx, nil, &models.Team{
			TournamentID: tournament.ID, TeamName: "A", CaptainName: "x", CaptainPhoneNumber: "+998901234567",
		})
		assert.ErrorIs(t, err, ErrTeamNameConflict)
	})

	t.Run("same name in another tournament", func(t *testing.T) {
		other := seedTournament(t, tournaments, models.StatusRegStarted)
		seedTeam(t, teams, other.ID, "A", base)
	})

	t.Run("registration order", func(t *testing.T) {
		list, err := teams.ListByTournament(ctx, nil, tournament.ID, false)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, a.ID, list[0].ID)
		assert.Equal(t, b.ID, list[1].ID)
	})

	t.Run("losers are banned", func(t *testing.T) {
		match := &models.Match{ExternalID: 0, TournamentID: tournament.ID, Stage: "1", Team1ID: &a.ID, Team2ID: &b.ID}
		require.NoError(t, matches.Create(ctx, nil, match))

		count, err := teams.CountActive(ctx, nil, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		require.NoError(t, matches.SetWinner(ctx, nil, match.ID, a.ID, time.Now()))

		loser, err := teams.GetByID(ctx, nil, b.ID)
		require.NoError(t, err)
		assert.True(t, loser.IsBanned)

		winner, err := teams.GetByID(ctx, nil, a.ID)
		require.NoError(t, err)
		assert.False(t, winner.IsBanned)

		active, err := teams.ListByTournament(ctx, nil, tournament.ID, true)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, a.ID, active[0].ID)
	})

	t.Run("unknown team", func(t *testing.T) {
		_, err := teams.GetByID(ctx, nil, uuid.New())
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})
}

func TestMatchRepository(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.New(t)
	tournaments := NewTournamentRepository(conn)
	teams := NewTeamRepository(conn)
	matches := NewMatchRepository(conn)

	tournament := seedTournament(t, tournaments, models.StatusStarted)
	a := seedTeam(t, teams, tournament.ID, "A", time.Now())
	b := seedTeam(t, teams, tournament.ID, "B", time.Now())

	match := &models.Match{ExternalID: 3, TournamentID: tournament.ID, Stage: "1/2", Team1ID: &a.ID, Team2ID: &b.ID}
	require.NoError(t, matches.Create(ctx, nil, match))

	err := matches.Create(ctx, nil, &models.Match{ExternalID: 3, TournamentID: tournament.ID, Stage: "1/2", Team1ID: &a.ID, Team2ID: &b.ID})
	assert.ErrorIs(t, err, ErrMatchConflict)

	got, err := matches.GetByExternalID(ctx, nil, tournament.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, match.ID, got.ID)
	assert.False(t, got.IsResolved())

	_, err = matches.GetByExternalID(ctx, nil, tournament.ID, 4)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	require.NoError(t, matches.SetWinner(ctx, nil, match.ID, b.ID, time.Now()))
	assert.ErrorIs(t, matches.SetWinner(ctx, nil, match.ID, a.ID, time.Now()), ErrMatchAlreadyResolved)

	got, err = matches.GetByExternalID(ctx, nil, tournament.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, b.ID, *got.WinnerID)
	assert.NotNil(t, got.ResolvedAt)
}

func TestTournamentRepository(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.New(t)
	repo := NewTournamentRepository(conn)

	due := seedTournament(t, repo, models.StatusNotStarted)
	open := seedTournament(t, repo, models.StatusRegStarted)

	t.Run("lock bumps version", func(t *testing.T) {
		tx, err := conn.BeginTxx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Lock(ctx, tx, due.ID))
		require.NoError(t, tx.Commit())

		got, err := repo.GetByID(ctx, nil, due.ID)
		require.NoError(t, err)
		assert.Equal(t, due.LockVersion+1, got.LockVersion)

		assert.ErrorIs(t, repo.Lock(ctx, nil, uuid.New()), ErrTournamentNotFound)
	})

	t.Run("due for registration", func(t *testing.T) {
		list, err := repo.ListDueForRegistration(ctx, nil, time.Now())
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, due.ID, list[0].ID)
	})

	t.Run("list filter", func(t *testing.T) {
		status := models.StatusRegStarted
		list, total, err := repo.List(ctx, ListTournamentsFilter{Status: &status, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, open.ID, list[0].ID)

		list, total, err = repo.List(ctx, ListTournamentsFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, list, 1)
	})

	t.Run("champion is set once", func(t *testing.T) {
		require.NoError(t, repo.UpdateStage(ctx, nil, open.ID, "1"))
		teamID := seedTeam(t, NewTeamRepository(conn), open.ID, "A", time.Now()).ID
		require.NoError(t, repo.SetChampion(ctx, nil, open.ID, teamID))
		assert.Error(t, repo.SetChampion(ctx, nil, open.ID, teamID))

		got, err := repo.GetByID(ctx, nil, open.ID)
		require.NoError(t, err)
		assert.Equal(t, "1", got.Stage())
		assert.True(t, got.IsFinished())
	})
}
