package services

import (
	"fmt"
	"math"
	"sort"

	"examportal/models"
)

// SubmittedAnswer is one raw answer from a submission body.
type SubmittedAnswer struct {
	QuestionID       string `json:"question_id"`
	SelectedOptions  []int  `json:"selected_options"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

// ScoreSummary is the outcome of grading a whole submission.
type ScoreSummary struct {
	Answers     []models.Answer
	Score       float64
	TotalPoints float64
	Percentage  float64
	Status      string
}

// Score grades a submission against the exam's question set. Answers are
// matched by question id first, then by positional fallback ("q0", "q1", ...),
// and a question with no matching answer is graded against an empty selection
// rather than rejected.
func Score(questions []models.Question, submitted []SubmittedAnswer, passingScore float64) ScoreSummary {
	byID := make(map[string]SubmittedAnswer, len(submitted))
	for _, a := range submitted {
		if _, ok := byID[a.QuestionID]; !ok {
			byID[a.QuestionID] = a
		}
	}

	summary := ScoreSummary{Answers: make([]models.Answer, 0, len(questions))}
	for i, q := range questions {
		summary.TotalPoints += q.Points

		answer, ok := byID[q.ID]
		if !ok {
			answer, ok = byID[fmt.Sprintf("q%d", i)]
		}
		if !ok {
			answer = SubmittedAnswer{QuestionID: q.ID}
		}

		selected := normalizeSelection(answer.SelectedOptions)
		correct := gradeQuestion(q, selected)

		awarded := 0.0
		if correct {
			awarded = q.Points
			summary.Score += q.Points
		}

		summary.Answers = append(summary.Answers, models.Answer{
			QuestionID:       q.ID,
			SelectedOptions:  selected,
			IsCorrect:        correct,
			PointsAwarded:    awarded,
			TimeSpentSeconds: answer.TimeSpentSeconds,
		})
	}

	if summary.TotalPoints > 0 {
		summary.Percentage = round2(100 * summary.Score / summary.TotalPoints)
	}
	if summary.Percentage >= passingScore {
		summary.Status = models.StatusPass
	} else {
		summary.Status = models.StatusFail
	}
	return summary
}

func gradeQuestion(q models.Question, selected []int) bool {
	correct := correctIndexes(q.Options)

	switch q.Type {
	case models.QuestionTypeSingle:
		// A question authored with no correct option can never be satisfied.
		return len(correct) > 0 && len(selected) == 1 && selected[0] == correct[0]
	case models.QuestionTypeMultiple:
		return len(selected) > 0 && equalIntSets(selected, correct)
	}
	return false
}

func correctIndexes(options []models.Option) []int {
	var out []int
	for i, opt := range options {
		if opt.IsCorrect {
			out = append(out, i)
		}
	}
	return out
}

// normalizeSelection dedupes and sorts the selected option indexes, so the
// submission is treated as a set.
func normalizeSelection(selected []int) []int {
	seen := make(map[int]struct{}, len(selected))
	out := make([]int, 0, len(selected))
	for _, idx := range selected {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func equalIntSets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
