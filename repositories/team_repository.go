package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/esports-bracket/models"
)

var (
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamNameConflict      = errors.New("team name is already registered for this tournament")
	ErrTeamTournamentInvalid = errors.New("invalid tournament reference")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Team, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, activeOnly bool) ([]models.Team, error)
	CountActive(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error)
}

type sqlTeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) TeamRepository {
	return &sqlTeamRepository{db: db}
}

func (r *sqlTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// lostMatchExpr is true when team t has lost a resolved match.
const lostMatchExpr = `EXISTS (
		SELECT 1 FROM tournament_histories h
		WHERE h.tournament_id = t.tournament_id
		  AND h.winner_id IS NOT NULL
		  AND h.winner_id <> t.id
		  AND (h.team1_id = t.id OR h.team2_id = t.id))`

const teamColumns = `
	t.id, t.tournament_id, t.team_name, t.captain_name, t.captain_phone_number,
	t.registered_at, ` + lostMatchExpr + ` AS is_banned`

func (r *sqlTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	if team.RegisteredAt.IsZero() {
		team.RegisteredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tournament_teams (id, tournament_id, team_name, captain_name, captain_phone_number, registered_at)
		VALUES (:id, :tournament_id, :team_name, :captain_name, :captain_phone_number, :registered_at)`

	_, err := sqlx.NamedExecContext(ctx, executor, query, team)
	if err != nil {
		return r.handleTeamError(err)
	}
	return nil
}

func (r *sqlTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Team, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT` + teamColumns + ` FROM tournament_teams t WHERE t.id = ?`)

	team := &models.Team{}
	if err := sqlx.GetContext(ctx, executor, team, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %s: %w", id, err)
	}
	return team, nil
}

func (r *sqlTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, activeOnly bool) ([]models.Team, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + teamColumns + ` FROM tournament_teams t WHERE t.tournament_id = ?`
	if activeOnly {
		query += ` AND NOT ` + lostMatchExpr
	}
	query += ` ORDER BY t.registered_at ASC, t.id ASC`

	teams := []models.Team{}
	if err := sqlx.SelectContext(ctx, executor, &teams, executor.Rebind(query), tournamentID); err != nil {
		return nil, fmt.Errorf("failed to list teams for tournament %s: %w", tournamentID, err)
	}
	return teams, nil
}

func (r *sqlTeamRepository) CountActive(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT COUNT(*) FROM tournament_teams t WHERE t.tournament_id = ? AND NOT ` + lostMatchExpr)

	var count int
	if err := sqlx.GetContext(ctx, executor, &count, query, tournamentID); err != nil {
		return 0, fmt.Errorf("failed to count active teams for tournament %s: %w", tournamentID, err)
	}
	return count, nil
}

func (r *sqlTeamRepository) handleTeamError(err error) error {
	code, constraint, ok := constraintViolation(err)
	if ok {
		switch code {
		case pqUniqueViolation:
			if constraint == "tournament_teams_name_key" {
				return ErrTeamNameConflict
			}
		case pqForeignKeyViolation:
			if constraint == "tournament_teams_tournament_id_fkey" {
				return ErrTeamTournamentInvalid
			}
		}
	}
	return fmt.Errorf("failed to insert team: %w", err)
}
