package services

import (
	"math/rand"
	"time"

	"examportal/models"
)

// OptionView is an option as shown to a viewer. IsCorrect is nil when the
// answer key is withheld.
type OptionView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type QuestionView struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Type        string       `json:"type"`
	Options     []OptionView `json:"options"`
	Points      float64      `json:"points"`
	Topic       string       `json:"topic,omitempty"`
	Difficulty  string       `json:"difficulty,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

// ExamView is an exam as shown to a viewer, with the derived window state.
// Students never see the answer key here; they get it, if at all, through
// their results.
type ExamView struct {
	ID                     string         `json:"id"`
	Title                  string         `json:"title"`
	Subject                string         `json:"subject"`
	TutorID                string         `json:"tutor_id"`
	AssignedTo             []string       `json:"assigned_to"`
	Questions              []QuestionView `json:"questions"`
	DurationMinutes        int            `json:"duration_minutes"`
	StartDate              time.Time      `json:"start_date"`
	EndDate                time.Time      `json:"end_date"`
	AttemptLimit           int            `json:"attempt_limit"`
	PassingScore           float64        `json:"passing_score"`
	ShowCorrectAnswers     bool           `json:"show_correct_answers"`
	ShowResultsImmediately bool           `json:"show_results_immediately"`
	RandomizeQuestions     bool           `json:"randomize_questions"`
	WindowState            string         `json:"window_state"`
}

// ResultView is a graded result plus the exam's question set, redacted per the
// viewer's role and the exam's show_correct_answers flag.
type ResultView struct {
	ID            string          `json:"id"`
	ExamID        string          `json:"exam_id"`
	StudentID     string          `json:"student_id"`
	AttemptNumber int             `json:"attempt_number"`
	Answers       []models.Answer `json:"answers"`
	Questions     []QuestionView  `json:"questions"`
	Score         float64         `json:"score"`
	TotalPoints   float64         `json:"total_points"`
	Percentage    float64         `json:"percentage"`
	Status        string          `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

// ExamViewFor renders an exam for a viewer. Tutors see the full record;
// students see the questions without the answer key, shuffled when the exam
// randomizes question order.
func ExamViewFor(exam *models.Exam, identity models.Identity, now time.Time) ExamView {
	includeKey := identity.Role == models.RoleTutor
	questions := questionViews(exam.Questions, includeKey)
	if !includeKey && exam.RandomizeQuestions {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	return ExamView{
		ID:                     exam.ID,
		Title:                  exam.Title,
		Subject:                exam.Subject,
		TutorID:                exam.TutorID,
		AssignedTo:             exam.AssignedTo,
		Questions:              questions,
		DurationMinutes:        exam.DurationMinutes,
		StartDate:              exam.StartDate,
		EndDate:                exam.EndDate,
		AttemptLimit:           exam.AttemptLimit,
		PassingScore:           exam.PassingScore,
		ShowCorrectAnswers:     exam.ShowCorrectAnswers,
		ShowResultsImmediately: exam.ShowResultsImmediately,
		RandomizeQuestions:     exam.RandomizeQuestions,
		WindowState:            WindowState(exam, now),
	}
}

// ResultViewFor renders a result for a viewer. The answer key is stripped when
// the viewer is a student and the exam forbids showing correct answers; the
// student still sees their own selections and per-answer correctness.
func ResultViewFor(result *models.ExamResult, exam *models.Exam, identity models.Identity) ResultView {
	includeKey := identity.Role == models.RoleTutor || exam.ShowCorrectAnswers

	return ResultView{
		ID:            result.ID,
		ExamID:        result.ExamID,
		StudentID:     result.StudentID,
		AttemptNumber: result.AttemptNumber,
		Answers:       result.Answers,
		Questions:     questionViews(exam.Questions, includeKey),
		Score:         result.Score,
		TotalPoints:   result.TotalPoints,
		Percentage:    result.Percentage,
		Status:        result.Status,
		StartedAt:     result.StartedAt,
		SubmittedAt:   result.SubmittedAt,
	}
}

func questionViews(questions []models.Question, includeKey bool) []QuestionView {
	out := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		options := make([]OptionView, 0, len(q.Options))
		for _, opt := range q.Options {
			view := OptionView{ID: opt.ID, Text: opt.Text}
			if includeKey {
				isCorrect := opt.IsCorrect
				view.IsCorrect = &isCorrect
			}
			options = append(options, view)
		}
		out = append(out, QuestionView{
			ID:          q.ID,
			Text:        q.Text,
			Type:        q.Type,
			Options:     options,
			Points:      q.Points,
			Topic:       q.Topic,
			Difficulty:  q.Difficulty,
			Explanation: q.Explanation,
		})
	}
	return out
}
