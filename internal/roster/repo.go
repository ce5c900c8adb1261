package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when an addressed student document does not exist.
var ErrNotFound = errors.New("student not found")

// Repository persists roster data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const studentColumns = `batch_id, section_id, student_id, name, roll_number, status, total_classes, classes_attended, subject, phone_number`

func scanStudent(row interface{ Scan(...any) error }) (StudentRecord, error) {
	var rec StudentRecord
	err := row.Scan(&rec.Batch, &rec.Section, &rec.StudentID, &rec.Name, &rec.RollNumber,
		&rec.Status, &rec.TotalClasses, &rec.ClassesAttended, &rec.Subject, &rec.PhoneNumber)
	return rec, err
}

// GetStudent reads one student document.
func (r *Repository) GetStudent(ctx context.Context, ref Ref) (StudentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE batch_id = $1 AND section_id = $2 AND student_id = $3
	`, ref.Batch, ref.Section, ref.StudentID)
	rec, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StudentRecord{}, ErrNotFound
	}
	return rec, err
}

// ListStudents returns the roster for a batch and section ordered by roll number.
func (r *Repository) ListStudents(ctx context.Context, batch, section string) ([]StudentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE batch_id = $1 AND section_id = $2
		ORDER BY roll_number
	`, batch, section)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []StudentRecord
	for rows.Next() {
		rec, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// UpdateStudent applies a partial merge; nil patch fields keep their stored value.
// Updating a missing document fails with ErrNotFound.
func (r *Repository) UpdateStudent(ctx context.Context, ref Ref, patch Patch) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET name         = COALESCE($4, name),
		    roll_number  = COALESCE($5, roll_number),
		    subject      = COALESCE($6, subject),
		    phone_number = COALESCE($7, phone_number),
		    updated_at   = NOW()
		WHERE batch_id = $1 AND section_id = $2 AND student_id = $3
	`, ref.Batch, ref.Section, ref.StudentID, patch.Name, patch.RollNumber, patch.Subject, patch.PhoneNumber)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyMark records one observation as a single conditional write: status flip
// and both counter roll-ups happen in the same statement, so a failure leaves
// no partial state. Returns the confirmed record.
func (r *Repository) ApplyMark(ctx context.Context, ref Ref, observed Status) (StudentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE students
		SET status           = $4,
		    total_classes    = total_classes + 1,
		    classes_attended = classes_attended + CASE WHEN $4 = 'present' THEN 1 ELSE 0 END,
		    updated_at       = NOW()
		WHERE batch_id = $1 AND section_id = $2 AND student_id = $3
		RETURNING `+studentColumns+`
	`, ref.Batch, ref.Section, ref.StudentID, string(observed))
	rec, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StudentRecord{}, ErrNotFound
	}
	return rec, err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, facultyID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, faculty_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, facultyID, expiresAt)
	return err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}
