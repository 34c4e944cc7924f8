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
)

type RegisterTeamInput struct {
	TournamentID       uuid.UUID `json:"tournament_id"`
	TeamName           string    `json:"team_name"`
	CaptainName        string    `json:"captain_name"`
	CaptainPhoneNumber string    `json:"captain_phone_number"`
}

type RegistrationService interface {
	Register(ctx context.Context, input RegisterTeamInput) (*models.Team, error)
	ListTeams(ctx context.Context, tournamentID uuid.UUID) ([]models.Team, error)
}

type registrationService struct {
	db             *sqlx.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	capacity       int
	logger         *slog.Logger
	now            func() time.Time
}

func NewRegistrationService(
	db *sqlx.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	cfg models.BracketConfig,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		capacity:       cfg.Capacity,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *registrationService) Register(ctx context.Context, input RegisterTeamInput) (*models.Team, error) {
	team := &models.Team{
		TournamentID:       input.TournamentID,
		TeamName:           input.TeamName,
		CaptainName:        input.CaptainName,
		CaptainPhoneNumber: input.CaptainPhoneNumber,
		RegisteredAt:       s.now().UTC(),
	}

	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		if err := s.tournamentRepo.Lock(ctx, tx, input.TournamentID); err != nil {
			return mapTournamentRepoError(err)
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, input.TournamentID)
		if err != nil {
			return mapTournamentRepoError(err)
		}
		if tournament.Status != models.StatusRegStarted {
			return ErrRegistrationNotOpen
		}

		active, err := s.teamRepo.CountActive(ctx, tx, tournament.ID)
		if err != nil {
			return err
		}
		if active >= s.capacity {
			return ErrTournamentFull
		}

		if err := s.teamRepo.Create(ctx, tx, team); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return ErrTeamNameConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team registered",
		slog.String("tournament_id", team.TournamentID.String()),
		slog.String("team_id", team.ID.String()),
		slog.String("team_name", team.TeamName))
	return team, nil
}

func (s *registrationService) ListTeams(ctx context.Context, tournamentID uuid.UUID) ([]models.Team, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func mapTournamentRepoError(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}
