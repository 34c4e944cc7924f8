package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLExecutor is satisfied by both *sqlx.DB and *sqlx.Tx, so repository calls
// can join a transaction opened by a service.
type SQLExecutor interface {
	sqlx.ExtContext
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// SQLite does not report constraint names; each table carries a single
// unique constraint besides its primary key.
var sqliteUniqueConstraints = map[string]string{
	"users":                "users_username_key",
	"tournament_teams":     "tournament_teams_name_key",
	"tournament_histories": "tournament_histories_external_key",
}

const sqliteUniquePrefix = "UNIQUE constraint failed: "

// constraintViolation returns the SQLSTATE code and constraint name, if err is one.
func constraintViolation(err error) (code, constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}

	msg := err.Error()
	if i := strings.Index(msg, sqliteUniquePrefix); i >= 0 {
		column := msg[i+len(sqliteUniquePrefix):]
		table, _, _ := strings.Cut(column, ".")
		if name, found := sqliteUniqueConstraints[table]; found {
			return pqUniqueViolation, name, true
		}
	}
	return "", "", false
}
