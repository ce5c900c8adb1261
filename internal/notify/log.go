package notify

import (
	"context"
	"database/sql"
)

// LogRepository persists dispatch outcomes in Postgres.
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository creates a repo.
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Insert writes one dispatch outcome.
func (r *LogRepository) Insert(ctx context.Context, out Outcome) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_log (id, student_name, roll_number, subject, destination, outcome, detail, sent_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, out.ID, out.StudentName, out.RollNumber, out.Subject, out.Destination, out.Result, out.Detail, out.SentAt)
	return err
}

// Recent returns the latest dispatch outcomes, newest first.
func (r *LogRepository) Recent(ctx context.Context, limit int) ([]Outcome, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_name, roll_number, subject, destination, outcome, detail, sent_at
		FROM notification_log
		ORDER BY sent_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Outcome
	for rows.Next() {
		var out Outcome
		if err := rows.Scan(&out.ID, &out.StudentName, &out.RollNumber, &out.Subject,
			&out.Destination, &out.Result, &out.Detail, &out.SentAt); err != nil {
			return nil, err
		}
		res = append(res, out)
	}
	return res, rows.Err()
}
