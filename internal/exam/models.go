package exam

type Exam struct {
	ID             string `json:"id"`
	CourseID       string `json:"course_id"`
	ChapterID      string `json:"chapter_id"`
	Title          string `json:"title"`
	TimeLimit      int    `json:"time_limit"` // minutes
	TotalQuestions int    `json:"total_questions"`
	CreatedAt      int64  `json:"created_at,omitempty"`

	Questions []Question `json:"questions,omitempty"`
}

type Question struct {
	ID           string `json:"id"`
	ChapterID    string `json:"chapter_id"`
	QuestionText string `json:"question_text"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
	// Populated only for privileged callers; never serialized when empty.
	CorrectAnswer string `json:"correct_answer,omitempty"`
}

type Answer struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"required,oneof=a b c d"`
}

// AttemptRecord is the accumulating per-(user, exam) record: attempt_count
// grows with every submission, score holds only the latest attempt's score.
type AttemptRecord struct {
	ID           string   `json:"id"`
	ExamID       string   `json:"exam_id"`
	UserID       string   `json:"user_id"`
	AttemptCount int      `json:"attempt_count"`
	Score        *float64 `json:"score"`
	UpdatedAt    int64    `json:"updated_at"`
}

type SubmitResult struct {
	Score          float64 `json:"score"`
	CorrectCount   int     `json:"correct_count"`
	TotalQuestions int     `json:"total_questions"`
	Attempt        int     `json:"attempt"`
}
