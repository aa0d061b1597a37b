package enrollment

// Status is the lifecycle state of one (user, course) enrollment.
type Status string

const (
	StatusEnrolled  Status = "enrolled"
	StatusCompleted Status = "completed"
	StatusDropped   Status = "dropped"
)

type Enrollment struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	CourseID        string  `json:"course_id"`
	ProgressPercent float64 `json:"progress_percent"`
	Status          Status  `json:"status"`
	EnrolledAt      int64   `json:"enrolled_at"`
	UpdatedAt       int64   `json:"updated_at"`
}

// CourseEnrollment is an enrollment joined with course summary fields, for
// the "my courses" listing.
type CourseEnrollment struct {
	Enrollment
	CourseTitle     string `json:"course_title"`
	CourseThumbnail string `json:"course_thumbnail"`
}

type CourseStats struct {
	Total       int     `json:"total"`
	Enrolled    int     `json:"enrolled"`
	Completed   int     `json:"completed"`
	Dropped     int     `json:"dropped"`
	AvgProgress float64 `json:"avg_progress"`
}
