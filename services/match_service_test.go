package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/esports-bracket/db/dbtest"
	"github.com/Dosada05/esports-bracket/models"
)

func TestDefineWinnerFourTeams(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament, teams := env.startedTournament(t)

	first := env.matchBetween(t, tournament.ID, teams["A"], teams["D"])
	second := env.matchBetween(t, tournament.ID, teams["B"], teams["C"])

	require.NoError(t, env.defineWinner(tournament.ID, first.ExternalID, teams["A"]))
	assert.Equal(t, "1/2", env.reload(t, tournament.ID).Stage(), "semifinal still open")

	require.NoError(t, env.defineWinner(tournament.ID, second.ExternalID, teams["C"]))
	assert.Equal(t, "1", env.reload(t, tournament.ID).Stage())

	matches, err := env.matchRepo.ListByTournament(ctx, nil, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	final := env.matchBetween(t, tournament.ID, teams["A"], teams["C"])
	assert.Equal(t, "1", final.Stage)

	active, err := env.teamRepo.ListByTournament(ctx, nil, tournament.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "A", active[0].TeamName)
	assert.Equal(t, "C", active[1].TeamName)

	require.NoError(t, env.defineWinner(tournament.ID, final.ExternalID, teams["C"]))

	finished := env.reload(t, tournament.ID)
	require.NotNil(t, finished.ChampionTeamID)
	assert.Equal(t, teams["C"].ID, *finished.ChampionTeamID)
	assert.Equal(t, "1", finished.Stage())

	err = env.defineWinner(tournament.ID, final.ExternalID, teams["A"])
	assert.ErrorIs(t, err, ErrTournamentFinished)

	all, err := env.teamRepo.ListByTournament(ctx, nil, tournament.ID, false)
	require.NoError(t, err)
	banned := map[string]bool{}
	for _, team := range all {
		banned[team.TeamName] = team.IsBanned
	}
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": false, "D": true}, banned)
}

func TestDefineWinnerGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("second call on a resolved match keeps the ban", func(t *testing.T) {
		env := newTestEnv(t)
		tournament, teams := env.startedTournament(t)
		m := env.matchBetween(t, tournament.ID, teams["A"], teams["D"])

		require.NoError(t, env.defineWinner(tournament.ID, m.ExternalID, teams["A"]))
		err := env.defineWinner(tournament.ID, m.ExternalID, teams["D"])
		assert.ErrorIs(t, err, ErrMatchAlreadyResolved)

		loser, err := env.teamRepo.GetByID(ctx, nil, teams["D"].ID)
		require.NoError(t, err)
		assert.True(t, loser.IsBanned)
		winner, err := env.teamRepo.GetByID(ctx, nil, teams["A"].ID)
		require.NoError(t, err)
		assert.False(t, winner.IsBanned)

		stored, err := env.matchRepo.GetByExternalID(ctx, nil, tournament.ID, m.ExternalID)
		require.NoError(t, err)
		assert.Equal(t, teams["A"].ID, *stored.WinnerID)
	})

	t.Run("winner outside the match", func(t *testing.T) {
		env := newTestEnv(t)
		tournament, teams := env.startedTournament(t)
		m := env.matchBetween(t, tournament.ID, teams["A"], teams["D"])

		err := env.defineWinner(tournament.ID, m.ExternalID, teams["B"])
		assert.ErrorIs(t, err, ErrInvalidWinner)

		stored, err := env.matchRepo.GetByExternalID(ctx, nil, tournament.ID, m.ExternalID)
		require.NoError(t, err)
		assert.False(t, stored.IsResolved())
	})

	t.Run("unknown match", func(t *testing.T) {
		env := newTestEnv(t)
		tournament, teams := env.startedTournament(t)
		assert.ErrorIs(t, env.defineWinner(tournament.ID, 99, teams["A"]), ErrMatchNotFound)
	})

	t.Run("tournament not started", func(t *testing.T) {
		env := newTestEnv(t)
		tournament := env.openTournament(t)
		teams := env.register(t, tournament.ID, "A", "B")
		assert.ErrorIs(t, env.defineWinner(tournament.ID, 0, teams["A"]), ErrTournamentNotStarted)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.matches.DefineWinner(ctx, DefineWinnerInput{TournamentID: uuid.New(), WinnerID: uuid.New()})
		assert.ErrorIs(t, err, ErrTournamentNotFound)
	})

	t.Run("missing snapshot", func(t *testing.T) {
		env := newTestEnv(t)
		tournament, teams := env.startedTournament(t)
		m := env.matchBetween(t, tournament.ID, teams["A"], teams["D"])
		require.NoError(t, env.store.Delete(ctx, tournament.ID))

		err := env.defineWinner(tournament.ID, m.ExternalID, teams["A"])
		assert.ErrorIs(t, err, ErrSnapshotMissing)

		stored, err := env.matchRepo.GetByExternalID(ctx, nil, tournament.ID, m.ExternalID)
		require.NoError(t, err)
		assert.False(t, stored.IsResolved())
	})

	t.Run("snapshot write failure rolls back the result", func(t *testing.T) {
		env := newTestEnv(t)
		tournament, teams := env.startedTournament(t)
		m := env.matchBetween(t, tournament.ID, teams["A"], teams["D"])
		before, err := env.store.Load(ctx, tournament.ID)
		require.NoError(t, err)

		env.store.setFailSave(true)
		err = env.defineWinner(tournament.ID, m.ExternalID, teams["A"])
		assert.ErrorIs(t, err, errStoreDown)

		stored, err := env.matchRepo.GetByExternalID(ctx, nil, tournament.ID, m.ExternalID)
		require.NoError(t, err)
		assert.False(t, stored.IsResolved())
		after, err := env.store.Load(ctx, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		env.store.setFailSave(false)
		require.NoError(t, env.defineWinner(tournament.ID, m.ExternalID, teams["A"]))
	})

	t.Run("commit failure restores the previous snapshot", func(t *testing.T) {
		env := newTestEnvOn(t, dbtest.NewFile(t))
		tournament, teams := env.startedTournament(t)
		m := env.matchBetween(t, tournament.ID, teams["A"], teams["D"])
		before, err := env.store.Load(ctx, tournament.ID)
		require.NoError(t, err)

		reqCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		env.store.setAfterSave(cancel)

		err = env.matches.DefineWinner(reqCtx, DefineWinnerInput{
			TournamentID: tournament.ID,
			MatchID:      m.ExternalID,
			WinnerID:     teams["A"].ID,
		})
		require.Error(t, err)

		after, err := env.store.Load(ctx, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		stored, err := env.matchRepo.GetByExternalID(ctx, nil, tournament.ID, m.ExternalID)
		require.NoError(t, err)
		assert.False(t, stored.IsResolved())
		assert.Equal(t, "1/2", env.reload(t, tournament.ID).Stage())

		env.store.setAfterSave(nil)
		require.NoError(t, env.defineWinner(tournament.ID, m.ExternalID, teams["A"]))
	})
}

func TestInsertPairingsConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament, teams := env.startedTournament(t)
	m := env.matchBetween(t, tournament.ID, teams["A"], teams["D"])

	err := insertPairings(ctx, nil, env.matchRepo, tournament.ID, "1/2", []Pairing{
		{MatchID: m.ExternalID, Team1ID: teams["A"].ID, Team2ID: teams["D"].ID},
	})
	assert.ErrorIs(t, err, ErrInvalidBracketOperation)
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament, teams := env.startedTournament(t)

	matches, err := env.matches.ListByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Less(t, matches[0].ExternalID, matches[1].ExternalID)
	assert.Equal(t, "1/2", matches[0].Stage)
	env.matchBetween(t, tournament.ID, teams["B"], teams["C"])

	_, err = env.matches.ListByTournament(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestDefineWinnerStageOnlyMovesForward(t *testing.T) {
	env := newTestEnv(t)
	tournament := env.openTournament(t)
	names := teamNames(8)
	teams := env.register(t, tournament.ID, names...)

	started, err := env.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	cfg := models.DefaultBracketConfig()
	previous := cfg.StageIndex(started.Stage())
	for {
		current := env.reload(t, tournament.ID)
		if current.IsFinished() {
			break
		}
		matches, err := env.matchRepo.ListByTournament(context.Background(), nil, tournament.ID)
		require.NoError(t, err)

		resolved := false
		for _, m := range matches {
			if m.IsResolved() {
				continue
			}
			// the lower registered team always wins
			winner := teams[names[0]]
			for _, name := range names {
				if teams[name].ID == *m.Team1ID || teams[name].ID == *m.Team2ID {
					winner = teams[name]
					break
				}
			}
			require.NoError(t, env.defineWinner(tournament.ID, m.ExternalID, winner))
			resolved = true
			break
		}
		require.True(t, resolved, "unfinished tournament must have an open match")

		stage := cfg.StageIndex(env.reload(t, tournament.ID).Stage())
		assert.GreaterOrEqual(t, stage, previous)
		previous = stage
	}

	finished := env.reload(t, tournament.ID)
	assert.Equal(t, "1", finished.Stage())
	assert.Equal(t, teams[names[0]].ID, *finished.ChampionTeamID)

	active, err := env.teamRepo.CountActive(context.Background(), nil, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}

func TestDefineWinnerConcurrent(t *testing.T) {
	t.Run("distinct matches", func(t *testing.T) {
		env := newTestEnv(t)
		tournament, teams := env.startedTournament(t)
		first := env.matchBetween(t, tournament.ID, teams["A"], teams["D"])
		second := env.matchBetween(t, tournament.ID, teams["B"], teams["C"])

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs[0] = env.defineWinner(tournament.ID, first.ExternalID, teams["A"])
		}()
		go func() {
			defer wg.Done()
			errs[1] = env.defineWinner(tournament.ID, second.ExternalID, teams["C"])
		}()
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		matches, err := env.matchRepo.ListByTournament(context.Background(), nil, tournament.ID)
		require.NoError(t, err)
		assert.Len(t, matches, 3)
		env.matchBetween(t, tournament.ID, teams["A"], teams["C"])
		assert.Equal(t, "1", env.reload(t, tournament.ID).Stage())
	})

	t.Run("same match", func(t *testing.T) {
		env := newTestEnv(t)
		tournament, teams := env.startedTournament(t)
		m := env.matchBetween(t, tournament.ID, teams["A"], teams["D"])

		var wg sync.WaitGroup
		errs := make([]error, 2)
		winners := []*models.Team{teams["A"], teams["D"]}
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = env.defineWinner(tournament.ID, m.ExternalID, winners[i])
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, ErrMatchAlreadyResolved)
		}
		assert.Equal(t, 1, succeeded)

		active, err := env.teamRepo.CountActive(context.Background(), nil, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, active)
	})
}
