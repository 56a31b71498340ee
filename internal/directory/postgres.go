package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) UserName(ctx context.Context, userID string) (string, error) {
	query := `SELECT full_name FROM users WHERE id = $1`

	var name string
	err := d.db.QueryRowContext(ctx, query, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user not found: %s", userID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	return name, nil
}

func (d *PostgresDirectory) CaseTitle(ctx context.Context, caseID string) (string, error) {
	query := `SELECT title FROM cases WHERE id = $1`

	var title string
	err := d.db.QueryRowContext(ctx, query, caseID).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("case not found: %s", caseID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up case: %w", err)
	}

	return title, nil
}

func (d *PostgresDirectory) CaseTeam(ctx context.Context, caseID string) (CaseTeam, error) {
	query := `
		SELECT COALESCE(assigned_lawyer_id, ''), COALESCE(assigned_to, ''), COALESCE(assigned_users, '{}')
		FROM cases
		WHERE id = $1
	`

	var team CaseTeam
	err := d.db.QueryRowContext(ctx, query, caseID).Scan(
		&team.AssignedLawyerID, &team.AssignedTo, pq.Array(&team.AssignedUsers),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return CaseTeam{}, fmt.Errorf("case not found: %s", caseID)
	}
	if err != nil {
		return CaseTeam{}, fmt.Errorf("failed to look up case team: %w", err)
	}

	return team, nil
}
