package enrollment

import (
	"context"
	"errors"
)

var (
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrNotFound        = errors.New("enrollment not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrInvalidProgress = errors.New("progress_percent must be between 0 and 100")
)

type Store interface {
	Enroll(ctx context.Context, userID, courseID string) (Enrollment, error)
	GetStatus(ctx context.Context, userID, courseID string) (*Enrollment, error)
	ListForUser(ctx context.Context, userID string) ([]CourseEnrollment, error)
	UpdateProgress(ctx context.Context, enrollmentID, userID string, percent float64) (Enrollment, error)
	Drop(ctx context.Context, enrollmentID, userID string) (Enrollment, error)
	CourseStats(ctx context.Context, courseID string) (CourseStats, error)
}
