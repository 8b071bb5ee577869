package controllers

import (
	"errors"
	"time"

	"examportal/config"
	"examportal/middleware"
	"examportal/models"
	"examportal/repositories"
	"examportal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ExamsController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Log      *logrus.Logger
	Exams    *repositories.ExamRepository
	Results  *repositories.ResultRepository
	validate *validator.Validate
}

func NewExamsController(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *ExamsController {
	return &ExamsController{
		DB:       db,
		Cfg:      cfg,
		Log:      log,
		Exams:    repositories.NewExamRepository(db),
		Results:  repositories.NewResultRepository(db),
		validate: validator.New(),
	}
}

type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	Text        string        `json:"text"`
	Type        string        `json:"type"`
	Options     []OptionInput `json:"options"`
	Points      *float64      `json:"points"`
	Topic       string        `json:"topic"`
	Difficulty  string        `json:"difficulty"`
	Explanation string        `json:"explanation"`
}

type CreateExamInput struct {
	Title                  string          `json:"title" validate:"required"`
	Subject                string          `json:"subject" validate:"required"`
	AssignedTo             []string        `json:"assigned_to" validate:"required,min=1"`
	Questions              []QuestionInput `json:"questions" validate:"required,min=1"`
	DurationMinutes        int             `json:"duration_minutes"`
	StartDate              time.Time       `json:"start_date" validate:"required"`
	EndDate                time.Time       `json:"end_date" validate:"required"`
	AttemptLimit           int             `json:"attempt_limit"`
	PassingScore           float64         `json:"passing_score"`
	ShowCorrectAnswers     bool            `json:"show_correct_answers"`
	ShowResultsImmediately *bool           `json:"show_results_immediately"`
	RandomizeQuestions     bool            `json:"randomize_questions"`
}

func (ec *ExamsController) CreateExam(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)
	if identity.Role != models.RoleTutor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only tutors can create exams",
		})
	}

	var input CreateExamInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if err := ec.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	exam := buildExam(&input, identity.ID)
	if err := services.ValidateExam(exam); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := ec.Exams.Create(exam); err != nil {
		ec.Log.WithError(err).Error("create exam failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create exam",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Exam created",
		"exam":    exam,
	})
}

// buildExam constructs the domain record and assigns the stable identifiers
// submissions will reference.
func buildExam(input *CreateExamInput, tutorID string) *models.Exam {
	questions := make([]models.Question, 0, len(input.Questions))
	for _, q := range input.Questions {
		options := make([]models.Option, 0, len(q.Options))
		for _, opt := range q.Options {
			options = append(options, models.Option{
				ID:        uuid.NewString(),
				Text:      opt.Text,
				IsCorrect: opt.IsCorrect,
			})
		}

		points := 1.0
		if q.Points != nil {
			points = *q.Points
		}

		questions = append(questions, models.Question{
			ID:          uuid.NewString(),
			Text:        q.Text,
			Type:        q.Type,
			Options:     options,
			Points:      points,
			Topic:       q.Topic,
			Difficulty:  q.Difficulty,
			Explanation: q.Explanation,
		})
	}

	attemptLimit := input.AttemptLimit
	if attemptLimit == 0 {
		attemptLimit = 1
	}
	showResults := true
	if input.ShowResultsImmediately != nil {
		showResults = *input.ShowResultsImmediately
	}

	return &models.Exam{
		ID:                     uuid.NewString(),
		Title:                  input.Title,
		Subject:                input.Subject,
		TutorID:                tutorID,
		AssignedTo:             uniqueStrings(input.AssignedTo),
		Questions:              questions,
		DurationMinutes:        input.DurationMinutes,
		StartDate:              input.StartDate,
		EndDate:                input.EndDate,
		AttemptLimit:           attemptLimit,
		PassingScore:           input.PassingScore,
		ShowCorrectAnswers:     input.ShowCorrectAnswers,
		ShowResultsImmediately: showResults,
		RandomizeQuestions:     input.RandomizeQuestions,
		IsActive:               true,
	}
}

func (ec *ExamsController) ListExams(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)

	var (
		exams []models.Exam
		err   error
	)
	if identity.Role == models.RoleTutor {
		exams, err = ec.Exams.FindByTutor(identity.ID)
	} else {
		exams, err = ec.Exams.FindAssignedTo(identity.ID)
	}
	if err != nil {
		ec.Log.WithError(err).Error("list exams failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	now := time.Now()
	views := make([]services.ExamView, 0, len(exams))
	for i := range exams {
		views = append(views, services.ExamViewFor(&exams[i], identity, now))
	}

	return c.JSON(fiber.Map{"exams": views})
}

func (ec *ExamsController) GetExam(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)

	exam, ok := ec.fetchExam(c)
	if !ok {
		return nil
	}

	if err := services.CheckAccess(exam, identity); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this exam",
		})
	}

	return c.JSON(fiber.Map{
		"exam": services.ExamViewFor(exam, identity, time.Now()),
	})
}

type UpdateExamInput struct {
	Title                  *string    `json:"title"`
	Subject                *string    `json:"subject"`
	AssignedTo             []string   `json:"assigned_to"`
	DurationMinutes        *int       `json:"duration_minutes"`
	StartDate              *time.Time `json:"start_date"`
	EndDate                *time.Time `json:"end_date"`
	AttemptLimit           *int       `json:"attempt_limit"`
	PassingScore           *float64   `json:"passing_score"`
	ShowCorrectAnswers     *bool      `json:"show_correct_answers"`
	ShowResultsImmediately *bool      `json:"show_results_immediately"`
	RandomizeQuestions     *bool      `json:"randomize_questions"`
}

func (ec *ExamsController) UpdateExam(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)

	exam, ok := ec.fetchExam(c)
	if !ok {
		return nil
	}
	if identity.Role != models.RoleTutor || exam.TutorID != identity.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to edit this exam",
		})
	}

	var input UpdateExamInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Title != nil {
		exam.Title = *input.Title
	}
	if input.Subject != nil {
		exam.Subject = *input.Subject
	}
	if input.AssignedTo != nil {
		exam.AssignedTo = uniqueStrings(input.AssignedTo)
	}
	if input.DurationMinutes != nil {
		exam.DurationMinutes = *input.DurationMinutes
	}
	if input.StartDate != nil {
		exam.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		exam.EndDate = *input.EndDate
	}
	if input.AttemptLimit != nil {
		exam.AttemptLimit = *input.AttemptLimit
	}
	if input.PassingScore != nil {
		exam.PassingScore = *input.PassingScore
	}
	if input.ShowCorrectAnswers != nil {
		exam.ShowCorrectAnswers = *input.ShowCorrectAnswers
	}
	if input.ShowResultsImmediately != nil {
		exam.ShowResultsImmediately = *input.ShowResultsImmediately
	}
	if input.RandomizeQuestions != nil {
		exam.RandomizeQuestions = *input.RandomizeQuestions
	}

	if err := services.ValidateExam(exam); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := ec.Exams.Update(exam); err != nil {
		ec.Log.WithError(err).Error("update exam failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update exam",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Exam updated",
		"exam":    exam,
	})
}

type SubmitExamInput struct {
	Answers   []services.SubmittedAnswer `json:"answers"`
	StartedAt *time.Time                 `json:"started_at"`
}

func (ec *ExamsController) SubmitExam(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)
	if identity.Role != models.RoleStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only students can submit exams",
		})
	}

	exam, ok := ec.fetchExam(c)
	if !ok {
		return nil
	}
	if err := services.CheckAccess(exam, identity); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not assigned to this exam",
		})
	}

	var input SubmitExamInput
	if err := c.BodyParser(&input); err != nil || input.Answers == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Answers must be an array",
		})
	}

	now := time.Now()
	if err := services.CheckSubmitWindow(exam, now); err != nil {
		switch {
		case errors.Is(err, services.ErrExamNotOpen):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Exam has not opened yet",
			})
		case errors.Is(err, services.ErrExamClosed):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Exam is closed",
			})
		}
	}

	summary := services.Score(exam.Questions, input.Answers, exam.PassingScore)

	startedAt := now
	if input.StartedAt != nil {
		startedAt = *input.StartedAt
	}

	// The counter read and the insert are not atomic; the unique index on
	// (exam_id, student_id, attempt_number) catches the race and the loser
	// recomputes once before giving up with a conflict.
	for try := 0; try < 2; try++ {
		prior, err := ec.Results.ListByExamAndStudent(exam.ID, identity.ID)
		if err != nil {
			ec.Log.WithError(err).Error("load prior attempts failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not query database",
			})
		}

		attemptNumber, err := services.NextAttempt(prior, exam.AttemptLimit)
		if err != nil {
			var limitErr *services.AttemptLimitError
			if errors.As(err, &limitErr) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":            "No attempts left",
					"attempts_made":    limitErr.AttemptsMade,
					"attempts_allowed": limitErr.AttemptsAllowed,
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not compute attempt number",
			})
		}

		result := &models.ExamResult{
			ID:            uuid.NewString(),
			ExamID:        exam.ID,
			StudentID:     identity.ID,
			AttemptNumber: attemptNumber,
			Answers:       summary.Answers,
			Score:         summary.Score,
			TotalPoints:   summary.TotalPoints,
			Percentage:    summary.Percentage,
			Status:        summary.Status,
			StartedAt:     startedAt,
			SubmittedAt:   now,
		}

		if err := ec.Results.Create(result); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			ec.Log.WithError(err).Error("save result failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not save result",
			})
		}

		if !exam.ShowResultsImmediately {
			return c.JSON(fiber.Map{
				"submitted":      true,
				"attempt_number": result.AttemptNumber,
			})
		}
		return c.JSON(fiber.Map{
			"score":          result.Score,
			"total_points":   result.TotalPoints,
			"percentage":     result.Percentage,
			"status":         result.Status,
			"attempt_number": result.AttemptNumber,
		})
	}

	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"error": "Concurrent submission detected, please retry",
	})
}

func (ec *ExamsController) GetExamResults(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)

	exam, ok := ec.fetchExam(c)
	if !ok {
		return nil
	}

	var (
		results []models.ExamResult
		err     error
	)
	switch identity.Role {
	case models.RoleTutor:
		if exam.TutorID != identity.ID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have access to this exam",
			})
		}
		results, err = ec.Results.ListByExam(exam.ID)
	default:
		if !exam.IsAssignedTo(identity.ID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have access to this exam",
			})
		}
		results, err = ec.Results.ListByExamAndStudent(exam.ID, identity.ID)
	}
	if err != nil {
		ec.Log.WithError(err).Error("list results failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	views := make([]services.ResultView, 0, len(results))
	for i := range results {
		views = append(views, services.ResultViewFor(&results[i], exam, identity))
	}

	return c.JSON(fiber.Map{"results": views})
}

func (ec *ExamsController) GetResult(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)

	result, err := ec.Results.FindByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Result not found",
			})
		}
		ec.Log.WithError(err).Error("load result failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	exam, err := ec.Exams.FindByID(result.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Exam not found",
			})
		}
		ec.Log.WithError(err).Error("load exam failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	isOwnerTutor := identity.Role == models.RoleTutor && exam.TutorID == identity.ID
	isOwningStudent := identity.Role == models.RoleStudent && result.StudentID == identity.ID
	if !isOwnerTutor && !isOwningStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this result",
		})
	}

	return c.JSON(fiber.Map{
		"result": services.ResultViewFor(result, exam, identity),
	})
}

func (ec *ExamsController) DeleteExam(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)

	exam, ok := ec.fetchExam(c)
	if !ok {
		return nil
	}
	if identity.Role != models.RoleTutor || exam.TutorID != identity.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to delete this exam",
		})
	}

	deleted, err := ec.Results.DeleteByExam(exam.ID)
	if err != nil {
		ec.Log.WithError(err).Error("cascade delete results failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete results",
		})
	}
	if err := ec.Exams.SoftDelete(exam); err != nil {
		ec.Log.WithError(err).Error("delete exam failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete exam",
		})
	}

	return c.JSON(fiber.Map{
		"message":         "Exam deleted",
		"deleted_results": deleted,
	})
}

func (ec *ExamsController) ClearAttempts(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)

	exam, ok := ec.fetchExam(c)
	if !ok {
		return nil
	}

	var (
		deleted int64
		err     error
	)
	switch {
	case identity.Role == models.RoleTutor && exam.TutorID == identity.ID:
		deleted, err = ec.Results.DeleteByExam(exam.ID)
	case identity.Role == models.RoleStudent && exam.IsAssignedTo(identity.ID):
		deleted, err = ec.Results.DeleteByExamAndStudent(exam.ID, identity.ID)
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this exam",
		})
	}
	if err != nil {
		ec.Log.WithError(err).Error("clear attempts failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not clear attempts",
		})
	}

	return c.JSON(fiber.Map{
		"message":       "Attempts cleared",
		"deleted_count": deleted,
	})
}

// fetchExam loads the exam from the path id, writing the error response itself
// when the lookup fails.
func (ec *ExamsController) fetchExam(c *fiber.Ctx) (*models.Exam, bool) {
	exam, err := ec.Exams.FindByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Exam not found",
			})
		} else {
			ec.Log.WithError(err).Error("load exam failed")
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not query database",
			})
		}
		return nil, false
	}
	return exam, true
}

func validationErrorResponse(c *fiber.Ctx, err error) error {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"field":  vErr.Field,
			"reason": vErr.Reason,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
