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
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchAlreadyResolved = errors.New("match already has a winner")
	ErrMatchConflict        = errors.New("match already recorded for this tournament")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByExternalID(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, externalID int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error)
	// SetWinner only touches an unresolved match; a resolved one yields ErrMatchAlreadyResolved.
	SetWinner(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID, resolvedAt time.Time) error
}

type sqlMatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) MatchRepository {
	return &sqlMatchRepository{db: db}
}

func (r *sqlMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, external_id, tournament_id, stage, team1_id, team2_id, winner_id, created_at, resolved_at`

func (r *sqlMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tournament_histories (id, external_id, tournament_id, stage, team1_id, team2_id, created_at)
		VALUES (:id, :external_id, :tournament_id, :stage, :team1_id, :team2_id, :created_at)`

	_, err := sqlx.NamedExecContext(ctx, executor, query, m)
	if err != nil {
		if code, constraint, ok := constraintViolation(err); ok &&
			code == pqUniqueViolation && constraint == "tournament_histories_external_key" {
			return ErrMatchConflict
		}
		return fmt.Errorf("failed to insert match %d: %w", m.ExternalID, err)
	}
	return nil
}

func (r *sqlMatchRepository) GetByExternalID(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, externalID int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT` + matchColumns + ` FROM tournament_histories WHERE tournament_id = ? AND external_id = ?`)

	m := &models.Match{}
	if err := sqlx.GetContext(ctx, executor, m, query, tournamentID, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", externalID, err)
	}
	return m, nil
}

func (r *sqlMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT` + matchColumns + ` FROM tournament_histories WHERE tournament_id = ? ORDER BY external_id ASC`)

	matches := []models.Match{}
	if err := sqlx.SelectContext(ctx, executor, &matches, query, tournamentID); err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %s: %w", tournamentID, err)
	}
	return matches, nil
}

func (r *sqlMatchRepository) SetWinner(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID, resolvedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		UPDATE tournament_histories
		SET winner_id = ?, resolved_at = ?
		WHERE id = ? AND winner_id IS NULL`)

	result, err := executor.ExecContext(ctx, query, winnerID, resolvedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set match winner: %w", err)
	}
	return checkAffectedRows(result, ErrMatchAlreadyResolved)
}
