package services

import (
	"fmt"
	"strings"

	"examportal/models"
)

// ValidateExam checks the shape rules the persistence layer will not enforce:
// non-empty assignee and question sets, a coherent time window, and well-formed
// questions. Returns a ValidationError naming the offending field.
func ValidateExam(exam *models.Exam) error {
	if strings.TrimSpace(exam.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if strings.TrimSpace(exam.Subject) == "" {
		return &ValidationError{Field: "subject", Reason: "is required"}
	}
	if len(exam.AssignedTo) == 0 {
		return &ValidationError{Field: "assigned_to", Reason: "at least one student must be assigned"}
	}
	if len(exam.Questions) == 0 {
		return &ValidationError{Field: "questions", Reason: "at least one question is required"}
	}
	if !exam.EndDate.After(exam.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must be after start_date"}
	}
	if exam.AttemptLimit < 1 {
		return &ValidationError{Field: "attempt_limit", Reason: "must be at least 1"}
	}
	if exam.PassingScore < 0 || exam.PassingScore > 100 {
		return &ValidationError{Field: "passing_score", Reason: "must be between 0 and 100"}
	}

	for i, q := range exam.Questions {
		if err := validateQuestion(i, q); err != nil {
			return err
		}
	}
	return nil
}

func validateQuestion(index int, q models.Question) error {
	field := fmt.Sprintf("questions[%d]", index)

	if strings.TrimSpace(q.Text) == "" {
		return &ValidationError{Field: field + ".text", Reason: "is required"}
	}
	if q.Type != models.QuestionTypeSingle && q.Type != models.QuestionTypeMultiple {
		return &ValidationError{Field: field + ".type", Reason: "must be single or multiple"}
	}
	if len(q.Options) < 2 {
		return &ValidationError{Field: field + ".options", Reason: "at least two options are required"}
	}
	if q.Points < 0 {
		return &ValidationError{Field: field + ".points", Reason: "must not be negative"}
	}

	hasCorrect := false
	for j, opt := range q.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("%s.options[%d].text", field, j),
				Reason: "is required",
			}
		}
		if opt.IsCorrect {
			hasCorrect = true
		}
	}
	if !hasCorrect {
		return &ValidationError{Field: field + ".options", Reason: "at least one option must be marked correct"}
	}
	return nil
}
