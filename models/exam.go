package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleTutor   = "tutor"
	RoleStudent = "student"
)

const (
	QuestionTypeSingle   = "single"
	QuestionTypeMultiple = "multiple"
)

// Identity is the authenticated caller, decoded once per request and passed
// explicitly into every access/scoring decision.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Type        string   `json:"type"` // single, multiple
	Options     []Option `json:"options"`
	Points      float64  `json:"points"`
	Topic       string   `json:"topic,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

type Exam struct {
	ID                     string                         `gorm:"type:uuid;primaryKey" json:"id"`
	Title                  string                         `json:"title"`
	Subject                string                         `json:"subject"`
	TutorID                string                         `gorm:"type:uuid;index" json:"tutor_id"`
	AssignedTo             datatypes.JSONSlice[string]    `json:"assigned_to"`
	Questions              datatypes.JSONSlice[Question]  `json:"questions"`
	DurationMinutes        int                            `json:"duration_minutes"`
	StartDate              time.Time                      `json:"start_date"`
	EndDate                time.Time                      `json:"end_date"`
	AttemptLimit           int                            `gorm:"default:1" json:"attempt_limit"`
	PassingScore           float64                        `json:"passing_score"`
	ShowCorrectAnswers     bool                           `json:"show_correct_answers"`
	ShowResultsImmediately bool                           `json:"show_results_immediately"`
	RandomizeQuestions     bool                           `json:"randomize_questions"`
	IsActive               bool                           `gorm:"default:true" json:"is_active"`
	CreatedAt              time.Time                      `json:"created_at"`
	UpdatedAt              time.Time                      `json:"updated_at"`
}

// IsAssignedTo reports whether the student id is in the exam's assignee set.
func (e *Exam) IsAssignedTo(studentID string) bool {
	for _, id := range e.AssignedTo {
		if id == studentID {
			return true
		}
	}
	return false
}
