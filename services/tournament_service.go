package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/esports-bracket/models"
	"github.com/Dosada05/esports-bracket/repositories"
	"github.com/Dosada05/esports-bracket/storage"
	"github.com/Dosada05/esports-bracket/utils"
)

type CreateTournamentInput struct {
	GameID       uuid.UUID `json:"game_id"`
	Name         string    `json:"name"`
	RegStartDate time.Time `json:"reg_start_date"`
	StartDate    time.Time `json:"start_date"`
}

type ListTournamentsInput struct {
	Status   *models.TournamentStatus
	Page     int
	PageSize int
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, int, error)
	OpenRegistration(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	AutoOpenRegistrations(ctx context.Context) (int, error)
	Start(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	Overview(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	OpenBracket(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.Tournament, error)
	RebuildSnapshot(ctx context.Context, id uuid.UUID) error
	CheckSnapshots(ctx context.Context, repair bool) ([]uuid.UUID, error)
}

type tournamentService struct {
	db             *sqlx.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	snapshots      storage.SnapshotStore
	adapter        *BracketAdapter
	logger         *slog.Logger
	now            func() time.Time
}

func NewTournamentService(
	db *sqlx.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	snapshots storage.SnapshotStore,
	adapter *BracketAdapter,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		snapshots:      snapshots,
		adapter:        adapter,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if !input.RegStartDate.Before(input.StartDate) {
		return nil, ErrTournamentInvalidDateRange
	}

	tournament := &models.Tournament{
		GameID:       input.GameID,
		Name:         name,
		RegStartDate: input.RegStartDate.UTC(),
		StartDate:    input.StartDate.UTC(),
		Status:       models.StatusNotStarted,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		return nil, err
	}

	s.logger.Info("tournament created",
		slog.String("tournament_id", tournament.ID.String()),
		slog.String("name", tournament.Name))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, int, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *input.Status)
	}
	page, pageSize := utils.NormalizePage(input.Page, input.PageSize)
	return s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		Status: input.Status,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
}

func (s *tournamentService) OpenRegistration(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		var err error
		tournament, err = s.openRegistration(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament registration opened", slog.String("tournament_id", id.String()))
	return tournament, nil
}

func (s *tournamentService) openRegistration(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Tournament, error) {
	if err := s.tournamentRepo.Lock(ctx, tx, id); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, tx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if !isValidStatusTransition(tournament.Status, models.StatusRegStarted) {
		return nil, ErrTournamentInvalidStatusTransition
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tx, id, models.StatusRegStarted); err != nil {
		return nil, err
	}
	tournament.Status = models.StatusRegStarted
	return tournament, nil
}

// AutoOpenRegistrations moves every NOT_STARTED tournament whose registration
// date has passed to REG_STARTED. Each tournament is opened in its own
// transaction; one failure does not stop the others.
func (s *tournamentService) AutoOpenRegistrations(ctx context.Context) (int, error) {
	due, err := s.tournamentRepo.ListDueForRegistration(ctx, nil, s.now())
	if err != nil {
		return 0, err
	}

	opened := 0
	var errs []error
	for _, t := range due {
		err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
			_, err := s.openRegistration(ctx, tx, t.ID)
			return err
		})
		switch {
		case err == nil:
			opened++
			s.logger.Info("tournament registration opened by schedule", slog.String("tournament_id", t.ID.String()))
		case errors.Is(err, ErrTournamentInvalidStatusTransition):
			// opened or started concurrently
		default:
			errs = append(errs, fmt.Errorf("tournament %s: %w", t.ID, err))
		}
	}
	return opened, errors.Join(errs...)
}

// Start closes registration and generates the bracket. The snapshot is
// written last inside the transaction and removed again if the transaction
// does not commit.
func (s *tournamentService) Start(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	var (
		tournament *models.Tournament
		written    bool
		opened     int
	)

	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		if err := s.tournamentRepo.Lock(ctx, tx, id); err != nil {
			return mapTournamentRepoError(err)
		}
		var err error
		tournament, err = s.tournamentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return mapTournamentRepoError(err)
		}

		switch {
		case tournament.Status == models.StatusStarted:
			return ErrTournamentAlreadyStarted
		case !isValidStatusTransition(tournament.Status, models.StatusStarted):
			return ErrTournamentInvalidStatusTransition
		case s.now().Before(tournament.StartDate):
			return ErrTournamentNotYetStartable
		}

		exists, err := s.snapshots.Exists(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			return ErrTournamentAlreadyBracketed
		}

		teams, err := s.teamRepo.ListByTournament(ctx, tx, id, true)
		if err != nil {
			return err
		}
		bracket, err := s.adapter.CreateStage(tournament, teams)
		if err != nil {
			return err
		}
		label, pairings, _, err := s.adapter.CurrentPairings(bracket)
		if err != nil {
			return err
		}

		if err := insertPairings(ctx, tx, s.matchRepo, id, label, pairings); err != nil {
			return err
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, tx, id, models.StatusStarted); err != nil {
			return err
		}
		if err := s.tournamentRepo.UpdateStage(ctx, tx, id, label); err != nil {
			return err
		}
		tournament.Status = models.StatusStarted
		tournament.CurrentStage = &label
		opened = len(pairings)

		data, err := s.adapter.Export(bracket)
		if err != nil {
			return err
		}
		if err := s.snapshots.Save(ctx, id, data); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		if written {
			s.discardSnapshot(id, err)
		}
		return nil, err
	}

	s.logger.Info("tournament started",
		slog.String("tournament_id", id.String()),
		slog.String("stage", tournament.Stage()),
		slog.Int("matches", opened))
	return tournament, nil
}

func (s *tournamentService) discardSnapshot(id uuid.UUID, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.snapshots.Delete(ctx, id); err != nil {
		s.logger.Error("failed to remove bracket snapshot of a tournament that did not start",
			slog.String("tournament_id", id.String()),
			slog.Any("error", err),
			slog.Any("cause", cause))
	}
}

// Overview returns the tournament with its teams and matches.
func (s *tournamentService) Overview(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gctx, nil, id, false)
		if err != nil {
			return err
		}
		tournament.Teams = teams
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, nil, id)
		if err != nil {
			return err
		}
		tournament.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

// OpenBracket streams the stored snapshot. The caller closes the reader.
func (s *tournamentService) OpenBracket(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.snapshots.Open(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) {
			return nil, nil, ErrSnapshotMissing
		}
		return nil, nil, err
	}
	return rc, tournament, nil
}

// RebuildSnapshot regenerates the snapshot from the relational rows: the
// teams are seeded in registration order and every stored result is replayed.
func (s *tournamentService) RebuildSnapshot(ctx context.Context, id uuid.UUID) error {
	var replayed int
	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		if err := s.tournamentRepo.Lock(ctx, tx, id); err != nil {
			return mapTournamentRepoError(err)
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return mapTournamentRepoError(err)
		}
		if tournament.Status != models.StatusStarted {
			return ErrTournamentNotStarted
		}

		teams, err := s.teamRepo.ListByTournament(ctx, tx, id, false)
		if err != nil {
			return err
		}
		matches, err := s.matchRepo.ListByTournament(ctx, tx, id)
		if err != nil {
			return err
		}

		bracket, err := s.adapter.CreateStage(tournament, teams)
		if err != nil {
			return err
		}
		for _, m := range matches {
			team1, team2, err := s.adapter.MatchTeams(bracket, m.ExternalID)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrSnapshotDiverged, err)
			}
			if m.Team1ID == nil || m.Team2ID == nil || *m.Team1ID != team1 || *m.Team2ID != team2 {
				return fmt.Errorf("%w: match %d", ErrSnapshotDiverged, m.ExternalID)
			}
			if !m.IsResolved() {
				continue
			}
			if err := s.adapter.RecordWinner(bracket, m.ExternalID, *m.WinnerID); err != nil {
				return fmt.Errorf("%w: %v", ErrSnapshotDiverged, err)
			}
			replayed++
		}

		data, err := s.adapter.Export(bracket)
		if err != nil {
			return err
		}
		return s.snapshots.Save(ctx, id, data)
	})
	if err != nil {
		return err
	}

	s.logger.Info("bracket snapshot rebuilt",
		slog.String("tournament_id", id.String()),
		slog.Int("results_replayed", replayed))
	return nil
}

// CheckSnapshots returns the started tournaments that have no snapshot,
// rebuilding them when repair is set.
func (s *tournamentService) CheckSnapshots(ctx context.Context, repair bool) ([]uuid.UUID, error) {
	started, err := s.tournamentRepo.ListByStatus(ctx, nil, models.StatusStarted)
	if err != nil {
		return nil, err
	}

	var missing []uuid.UUID
	for _, t := range started {
		exists, err := s.snapshots.Exists(ctx, t.ID)
		if err != nil {
			return missing, err
		}
		if exists {
			continue
		}
		missing = append(missing, t.ID)
		s.logger.Warn("started tournament has no bracket snapshot", slog.String("tournament_id", t.ID.String()))

		if repair {
			if err := s.RebuildSnapshot(ctx, t.ID); err != nil {
				s.logger.Error("bracket snapshot rebuild failed",
					slog.String("tournament_id", t.ID.String()),
					slog.Any("error", err))
			}
		}
	}
	return missing, nil
}
