package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub-backend/internal/audit"
)

type SQLStore struct {
	db     *sql.DB
	events *audit.EventRepo // optional
}

func NewSQLStore(db *sql.DB, events *audit.EventRepo) *SQLStore {
	return &SQLStore{db: db, events: events}
}

// Enroll creates the enrollment row for (user, course). Uniqueness is
// enforced by the UNIQUE(user_id, course_id) constraint, not by a prior
// existence check. A dropped enrollment is re-activated instead of rejected.
func (s *SQLStore) Enroll(ctx context.Context, userID, courseID string) (Enrollment, error) {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id=$1`, courseID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Enrollment{}, ErrCourseNotFound
		}
		return Enrollment{}, err
	}

	now := time.Now().Unix()
	id := "e-" + uuid.NewString()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollment (id, user_id, course_id, progress_percent, status, enrolled_at, updated_at)
		VALUES ($1, $2, $3, 0, 'enrolled', $4, $4)
		ON CONFLICT (user_id, course_id) DO NOTHING`,
		id, userID, courseID, now)
	if err != nil {
		return Enrollment{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// A row exists. Re-enrolling is only valid when it was dropped.
		res, err = s.db.ExecContext(ctx, `
			UPDATE enrollment SET status='enrolled', updated_at=$1
			WHERE user_id=$2 AND course_id=$3 AND status='dropped'`,
			now, userID, courseID)
		if err != nil {
			return Enrollment{}, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return Enrollment{}, ErrAlreadyEnrolled
		}
	}

	e, err := s.GetStatus(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if e == nil {
		return Enrollment{}, ErrNotFound
	}
	return *e, nil
}

func (s *SQLStore) GetStatus(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, course_id, progress_percent, status, enrolled_at, updated_at
		FROM enrollment WHERE user_id=$1 AND course_id=$2`,
		userID, courseID)
	var e Enrollment
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.ProgressPercent, &e.Status, &e.EnrolledAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (s *SQLStore) ListForUser(ctx context.Context, userID string) ([]CourseEnrollment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.user_id, e.course_id, e.progress_percent, e.status, e.enrolled_at, e.updated_at,
		       c.title, c.thumbnail
		FROM enrollment e
		JOIN courses c ON e.course_id = c.id
		WHERE e.user_id=$1
		ORDER BY e.enrolled_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CourseEnrollment{}
	for rows.Next() {
		var ce CourseEnrollment
		if err := rows.Scan(&ce.ID, &ce.UserID, &ce.CourseID, &ce.ProgressPercent, &ce.Status,
			&ce.EnrolledAt, &ce.UpdatedAt, &ce.CourseTitle, &ce.CourseThumbnail); err != nil {
			return nil, err
		}
		out = append(out, ce)
	}
	return out, rows.Err()
}

// UpdateProgress sets the caller-supplied progress on an enrollment the user
// owns. Reaching 100 marks the enrollment completed and issues the course
// certificate; the update, the status transition and the certificate insert
// commit or roll back as one transaction. Certificate issuance is idempotent
// across concurrent completions via UNIQUE(user_id, course_id).
func (s *SQLStore) UpdateProgress(ctx context.Context, enrollmentID, userID string, percent float64) (Enrollment, error) {
	if percent < 0 || percent > 100 {
		return Enrollment{}, ErrInvalidProgress
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Enrollment{}, err
	}
	defer tx.Rollback()

	var e Enrollment
	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, course_id, progress_percent, status, enrolled_at, updated_at
		FROM enrollment WHERE id=$1 AND user_id=$2`,
		enrollmentID, userID)
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.ProgressPercent, &e.Status, &e.EnrolledAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Enrollment{}, ErrNotFound
		}
		return Enrollment{}, err
	}

	now := time.Now().Unix()
	completed := percent >= 100
	status := e.Status
	if completed {
		status = StatusCompleted
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE enrollment SET progress_percent=$1, status=$2, updated_at=$3 WHERE id=$4`,
		percent, status, now, enrollmentID); err != nil {
		return Enrollment{}, err
	}

	var issuedCertID string
	if completed {
		certID := "cert-" + uuid.NewString()
		certURL := fmt.Sprintf("certificate-%s-%s-%d.pdf", e.UserID, e.CourseID, time.Now().UnixMilli())
		res, err := tx.ExecContext(ctx, `
			INSERT INTO certificates (id, user_id, course_id, certificate_url, issued_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, course_id) DO NOTHING`,
			certID, e.UserID, e.CourseID, certURL, now)
		if err != nil {
			return Enrollment{}, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			issuedCertID = certID
		}
	}

	if err := tx.Commit(); err != nil {
		return Enrollment{}, err
	}

	e.ProgressPercent = percent
	e.Status = status
	e.UpdatedAt = now

	if s.events != nil && completed {
		_ = s.events.Append(ctx, audit.TypeEnrollmentCompleted, e.ID, map[string]any{
			"user_id": e.UserID, "course_id": e.CourseID,
		})
		if issuedCertID != "" {
			_ = s.events.Append(ctx, audit.TypeCertificateIssued, issuedCertID, map[string]any{
				"user_id": e.UserID, "course_id": e.CourseID,
			})
		}
	}
	return e, nil
}

func (s *SQLStore) Drop(ctx context.Context, enrollmentID, userID string) (Enrollment, error) {
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, `
		UPDATE enrollment SET status='dropped', updated_at=$1 WHERE id=$2 AND user_id=$3`,
		now, enrollmentID, userID)
	if err != nil {
		return Enrollment{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Enrollment{}, ErrNotFound
	}

	var e Enrollment
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, course_id, progress_percent, status, enrolled_at, updated_at
		FROM enrollment WHERE id=$1`,
		enrollmentID)
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.ProgressPercent, &e.Status, &e.EnrolledAt, &e.UpdatedAt); err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

func (s *SQLStore) CourseStats(ctx context.Context, courseID string) (CourseStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status='enrolled' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status='completed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status='dropped' THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(progress_percent), 0)
		FROM enrollment WHERE course_id=$1`,
		courseID)
	var st CourseStats
	if err := row.Scan(&st.Total, &st.Enrolled, &st.Completed, &st.Dropped, &st.AvgProgress); err != nil {
		return CourseStats{}, err
	}
	return st, nil
}
