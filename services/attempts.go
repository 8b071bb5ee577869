package services

import "examportal/models"

// NextAttempt computes the next attempt number for a student on an exam from
// their prior results and enforces the attempt limit. Attempt numbers are
// strictly increasing: max existing + 1, starting at 1.
func NextAttempt(prior []models.ExamResult, attemptLimit int) (int, error) {
	highest := 0
	for _, r := range prior {
		if r.AttemptNumber > highest {
			highest = r.AttemptNumber
		}
	}

	candidate := highest + 1
	if candidate > attemptLimit {
		return 0, &AttemptLimitError{
			AttemptsMade:    highest,
			AttemptsAllowed: attemptLimit,
		}
	}
	return candidate, nil
}
