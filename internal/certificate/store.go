package certificate

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("certificate not found")

type Certificate struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	CourseID       string `json:"course_id"`
	CertificateURL string `json:"certificate_url"`
	IssuedAt       int64  `json:"issued_at"`

	CourseTitle string `json:"course_title,omitempty"`
	FullName    string `json:"full_name,omitempty"`
}

// Store reads certificates issued by the enrollment engine.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) ListForUser(ctx context.Context, userID string) ([]Certificate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.course_id, c.certificate_url, c.issued_at, co.title
		FROM certificates c
		JOIN courses co ON c.course_id = co.id
		WHERE c.user_id=$1
		ORDER BY c.issued_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Certificate{}
	for rows.Next() {
		var c Certificate
		if err := rows.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CertificateURL, &c.IssuedAt, &c.CourseTitle); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id, userID string) (Certificate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.user_id, c.course_id, c.certificate_url, c.issued_at, co.title, u.full_name
		FROM certificates c
		JOIN courses co ON c.course_id = co.id
		JOIN users u ON c.user_id = u.id
		WHERE c.id=$1 AND c.user_id=$2`,
		id, userID)
	var c Certificate
	if err := row.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CertificateURL, &c.IssuedAt, &c.CourseTitle, &c.FullName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Certificate{}, ErrNotFound
		}
		return Certificate{}, err
	}
	return c, nil
}

// Verify resolves a certificate by its public URL. No auth: anyone holding
// the URL may check authenticity.
func (s *Store) Verify(ctx context.Context, certificateURL string) (Certificate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.user_id, c.course_id, c.certificate_url, c.issued_at, co.title, u.full_name
		FROM certificates c
		JOIN courses co ON c.course_id = co.id
		JOIN users u ON c.user_id = u.id
		WHERE c.certificate_url=$1`,
		certificateURL)
	var c Certificate
	if err := row.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CertificateURL, &c.IssuedAt, &c.CourseTitle, &c.FullName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Certificate{}, ErrNotFound
		}
		return Certificate{}, err
	}
	return c, nil
}
