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
	ErrTournamentNotFound = errors.New("tournament not found")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	// Lock takes the row lock on the tournament for the rest of the transaction.
	Lock(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, int, error)
	ListByStatus(ctx context.Context, exec SQLExecutor, status models.TournamentStatus) ([]models.Tournament, error)
	ListDueForRegistration(ctx context.Context, exec SQLExecutor, now time.Time) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error
	UpdateStage(ctx context.Context, exec SQLExecutor, id uuid.UUID, stage string) error
	SetChampion(ctx context.Context, exec SQLExecutor, id uuid.UUID, teamID uuid.UUID) error
}

type sqlTournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) TournamentRepository {
	return &sqlTournamentRepository{db: db}
}

func (r *sqlTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, game_id, name, reg_start_date, start_date, status,
	current_stage, champion_team_id, lock_version, created_at`

func (r *sqlTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = models.StatusNotStarted
	}

	query := `
		INSERT INTO tournaments (id, game_id, name, reg_start_date, start_date, status, created_at)
		VALUES (:id, :game_id, :name, :reg_start_date, :start_date, :status, :created_at)`

	_, err := sqlx.NamedExecContext(ctx, executor, query, t)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (r *sqlTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT` + tournamentColumns + ` FROM tournaments WHERE id = ?`)

	t := &models.Tournament{}
	if err := sqlx.GetContext(ctx, executor, t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *sqlTournamentRepository) Lock(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE tournaments SET lock_version = lock_version + 1 WHERE id = ?`)

	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to lock tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *sqlTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.Status != nil {
		where += " AND status = ?"
		args = append(args, *filter.Status)
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM tournaments` + where)
	if err := sqlx.GetContext(ctx, r.db, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count tournaments: %w", err)
	}

	query := `SELECT` + tournamentColumns + ` FROM tournaments` + where + ` ORDER BY start_date DESC, created_at DESC`
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	tournaments := []models.Tournament{}
	if err := sqlx.SelectContext(ctx, r.db, &tournaments, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, total, nil
}

func (r *sqlTournamentRepository) ListByStatus(ctx context.Context, exec SQLExecutor, status models.TournamentStatus) ([]models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT` + tournamentColumns + ` FROM tournaments WHERE status = ? ORDER BY start_date ASC`)

	tournaments := []models.Tournament{}
	if err := sqlx.SelectContext(ctx, executor, &tournaments, query, status); err != nil {
		return nil, fmt.Errorf("failed to list %s tournaments: %w", status, err)
	}
	return tournaments, nil
}

func (r *sqlTournamentRepository) ListDueForRegistration(ctx context.Context, exec SQLExecutor, now time.Time) ([]models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE status = ? AND reg_start_date <= ?
		ORDER BY reg_start_date ASC`)

	tournaments := []models.Tournament{}
	if err := sqlx.SelectContext(ctx, executor, &tournaments, query, models.StatusNotStarted, now.UTC()); err != nil {
		return nil, fmt.Errorf("failed to list tournaments due for registration: %w", err)
	}
	return tournaments, nil
}

func (r *sqlTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE tournaments SET status = ? WHERE id = ?`)

	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *sqlTournamentRepository) UpdateStage(ctx context.Context, exec SQLExecutor, id uuid.UUID, stage string) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE tournaments SET current_stage = ? WHERE id = ?`)

	result, err := executor.ExecContext(ctx, query, stage, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament stage: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *sqlTournamentRepository) SetChampion(ctx context.Context, exec SQLExecutor, id uuid.UUID, teamID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE tournaments SET champion_team_id = ? WHERE id = ? AND champion_team_id IS NULL`)

	result, err := executor.ExecContext(ctx, query, teamID, id)
	if err != nil {
		return fmt.Errorf("failed to set tournament champion: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
