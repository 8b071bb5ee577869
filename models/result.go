package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPass = "pass"
	StatusFail = "fail"
)

type Answer struct {
	QuestionID       string  `json:"question_id"`
	SelectedOptions  []int   `json:"selected_options"`
	IsCorrect        bool    `json:"is_correct"`
	PointsAwarded    float64 `json:"points_awarded"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`
}

// ExamResult is one graded submission. Rows are write-once; the unique index on
// (exam_id, student_id, attempt_number) makes the loser of two concurrent
// submissions fail with a duplicate-key error instead of reusing a number.
type ExamResult struct {
	ID            string                      `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID        string                      `gorm:"type:uuid;uniqueIndex:idx_exam_student_attempt" json:"exam_id"`
	StudentID     string                      `gorm:"type:uuid;uniqueIndex:idx_exam_student_attempt" json:"student_id"`
	AttemptNumber int                         `gorm:"uniqueIndex:idx_exam_student_attempt" json:"attempt_number"`
	Answers       datatypes.JSONSlice[Answer] `json:"answers"`
	Score         float64                     `json:"score"`
	TotalPoints   float64                     `json:"total_points"`
	Percentage    float64                     `json:"percentage"`
	Status        string                      `json:"status"` // pass, fail
	StartedAt     time.Time                   `json:"started_at"`
	SubmittedAt   time.Time                   `json:"submitted_at"`
}
