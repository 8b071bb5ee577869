package services

import (
	"time"

	"examportal/models"
)

const (
	WindowUpcoming  = "upcoming"
	WindowActive    = "active"
	WindowCompleted = "completed"
)

// WindowState classifies now against the exam window. Both bounds are
// inclusive: a submission at exactly start_date or end_date is in window.
func WindowState(exam *models.Exam, now time.Time) string {
	if now.Before(exam.StartDate) {
		return WindowUpcoming
	}
	if now.After(exam.EndDate) {
		return WindowCompleted
	}
	return WindowActive
}

// CheckAccess grants the owning tutor and assigned students, nobody else.
func CheckAccess(exam *models.Exam, identity models.Identity) error {
	switch identity.Role {
	case models.RoleTutor:
		if exam.TutorID == identity.ID {
			return nil
		}
	case models.RoleStudent:
		if exam.IsAssignedTo(identity.ID) {
			return nil
		}
	}
	return ErrAccessDenied
}

// CheckSubmitWindow rejects submissions outside the exam window with a
// distinct error for each side.
func CheckSubmitWindow(exam *models.Exam, now time.Time) error {
	switch WindowState(exam, now) {
	case WindowUpcoming:
		return ErrExamNotOpen
	case WindowCompleted:
		return ErrExamClosed
	}
	return nil
}
