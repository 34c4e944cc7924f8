package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/esports-bracket/models"
	"github.com/Dosada05/esports-bracket/repositories"
	"github.com/Dosada05/esports-bracket/storage"
)

type DefineWinnerInput struct {
	TournamentID uuid.UUID `json:"tournament_id"`
	MatchID      int       `json:"match_id"`
	WinnerID     uuid.UUID `json:"winner_id"`
}

type MatchService interface {
	DefineWinner(ctx context.Context, input DefineWinnerInput) error
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error)
}

type matchService struct {
	db             *sqlx.DB
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	snapshots      storage.SnapshotStore
	adapter        *BracketAdapter
	logger         *slog.Logger
	now            func() time.Time
}

func NewMatchService(
	db *sqlx.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	snapshots storage.SnapshotStore,
	adapter *BracketAdapter,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		snapshots:      snapshots,
		adapter:        adapter,
		logger:         logger,
		now:            time.Now,
	}
}

// DefineWinner resolves one match. The relational changes are committed only
// after the new snapshot is stored; if the commit itself fails the previous
// snapshot is written back.
func (s *matchService) DefineWinner(ctx context.Context, input DefineWinnerInput) error {
	var (
		previous []byte
		written  bool
		advanced string
		loser    uuid.UUID
	)

	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		if err := s.tournamentRepo.Lock(ctx, tx, input.TournamentID); err != nil {
			return mapTournamentRepoError(err)
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, input.TournamentID)
		if err != nil {
			return mapTournamentRepoError(err)
		}
		if tournament.Status != models.StatusStarted {
			return ErrTournamentNotStarted
		}
		if tournament.IsFinished() {
			return ErrTournamentFinished
		}

		previous, err = s.snapshots.Load(ctx, tournament.ID)
		if err != nil {
			if errors.Is(err, storage.ErrSnapshotNotFound) {
				return ErrSnapshotMissing
			}
			return err
		}

		match, err := s.matchRepo.GetByExternalID(ctx, tx, tournament.ID, input.MatchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if match.IsResolved() {
			return ErrMatchAlreadyResolved
		}
		var ok bool
		if loser, ok = match.Opponent(input.WinnerID); !ok {
			return ErrInvalidWinner
		}

		if err := s.matchRepo.SetWinner(ctx, tx, match.ID, input.WinnerID, s.now()); err != nil {
			if errors.Is(err, repositories.ErrMatchAlreadyResolved) {
				return ErrMatchAlreadyResolved
			}
			return err
		}

		bracket, err := s.adapter.Import(previous)
		if err != nil {
			return err
		}
		if err := s.adapter.RecordWinner(bracket, match.ExternalID, input.WinnerID); err != nil {
			return err
		}

		label, pairings, done, err := s.adapter.CurrentPairings(bracket)
		if err != nil {
			return err
		}
		switch {
		case done:
			champion, ok := s.adapter.Champion(bracket)
			if !ok {
				return fmt.Errorf("%w: bracket finished without a champion", ErrInvalidBracketOperation)
			}
			if err := s.tournamentRepo.SetChampion(ctx, tx, tournament.ID, champion); err != nil {
				return err
			}
		case label != tournament.Stage():
			if err := s.advanceStage(ctx, tx, tournament, label, pairings); err != nil {
				return err
			}
			advanced = label
		}

		data, err := s.adapter.Export(bracket)
		if err != nil {
			return err
		}
		if err := s.snapshots.Save(ctx, tournament.ID, data); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		if written {
			s.restoreSnapshot(input.TournamentID, previous, err)
		}
		return err
	}

	attrs := []any{
		slog.String("tournament_id", input.TournamentID.String()),
		slog.Int("match_id", input.MatchID),
		slog.String("winner_id", input.WinnerID.String()),
		slog.String("eliminated_id", loser.String()),
	}
	if advanced != "" {
		attrs = append(attrs, slog.String("stage", advanced))
	}
	s.logger.Info("match resolved", attrs...)
	return nil
}

func (s *matchService) advanceStage(ctx context.Context, tx *sqlx.Tx, tournament *models.Tournament, label string, pairings []Pairing) error {
	cfg := s.adapter.Config()
	if cfg.StageIndex(label) <= cfg.StageIndex(tournament.Stage()) {
		return fmt.Errorf("%w: stage cannot move from %q to %q", ErrInvalidBracketOperation, tournament.Stage(), label)
	}
	if err := s.tournamentRepo.UpdateStage(ctx, tx, tournament.ID, label); err != nil {
		return err
	}
	return insertPairings(ctx, tx, s.matchRepo, tournament.ID, label, pairings)
}

// restoreSnapshot puts the pre-operation snapshot back after a failed commit.
func (s *matchService) restoreSnapshot(tournamentID uuid.UUID, previous []byte, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.snapshots.Save(ctx, tournamentID, previous); err != nil {
		s.logger.Error("bracket snapshot diverged from relational state, manual reconciliation required",
			slog.String("tournament_id", tournamentID.String()),
			slog.Any("error", err),
			slog.Any("cause", cause))
		return
	}
	s.logger.Warn("bracket snapshot restored after failed commit",
		slog.String("tournament_id", tournamentID.String()),
		slog.Any("cause", cause))
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return s.matchRepo.ListByTournament(ctx, nil, tournamentID)
}

func insertPairings(ctx context.Context, exec repositories.SQLExecutor, repo repositories.MatchRepository, tournamentID uuid.UUID, label string, pairings []Pairing) error {
	for _, p := range pairings {
		team1, team2 := p.Team1ID, p.Team2ID
		match := &models.Match{
			ExternalID:   p.MatchID,
			TournamentID: tournamentID,
			Stage:        label,
			Team1ID:      &team1,
			Team2ID:      &team2,
		}
		if err := repo.Create(ctx, exec, match); err != nil {
			if errors.Is(err, repositories.ErrMatchConflict) {
				return fmt.Errorf("%w: match %d already exists", ErrInvalidBracketOperation, p.MatchID)
			}
			return err
		}
	}
	return nil
}
