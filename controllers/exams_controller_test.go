package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"examportal/config"
	"examportal/models"
	"examportal/routes"
	"examportal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config

	tutorID       string
	studentID     string
	outsiderID    string
	tutorToken    string
	studentToken  string
	outsiderToken string
)

func TestMain(m *testing.M) {
	setup()
	code := m.Run()
	os.Exit(code)
}

func setup() {
	cfg = &config.Config{
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	var err error
	db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		panic(err)
	}
	if err := db.AutoMigrate(&models.Exam{}, &models.ExamResult{}); err != nil {
		panic(err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app = fiber.New()
	routes.SetupRoutes(app, db, cfg, logger)

	tutorID = uuid.NewString()
	studentID = uuid.NewString()
	outsiderID = uuid.NewString()
	tutorToken, _ = utils.GenerateJWTToken(tutorID, models.RoleTutor, cfg)
	studentToken, _ = utils.GenerateJWTToken(studentID, models.RoleStudent, cfg)
	outsiderToken, _ = utils.GenerateJWTToken(outsiderID, models.RoleStudent, cfg)
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(jsonData)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp, result
}

// examPayload builds a create-exam body with an open window: one SINGLE
// question worth 2 points (first option correct) and one MULTIPLE question
// worth 3 points (first two options correct).
func examPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":         "Algebra midterm",
		"subject":       "Math",
		"assigned_to":   []string{studentID},
		"start_date":    time.Now().Add(-time.Hour).Format(time.RFC3339),
		"end_date":      time.Now().Add(time.Hour).Format(time.RFC3339),
		"attempt_limit": 3,
		"passing_score": 60,
		"questions": []map[string]interface{}{
			{
				"text":   "Pick A",
				"type":   "single",
				"points": 2,
				"options": []map[string]interface{}{
					{"text": "A", "is_correct": true},
					{"text": "B"},
					{"text": "C"},
				},
			},
			{
				"text":   "Pick X and Y",
				"type":   "multiple",
				"points": 3,
				"options": []map[string]interface{}{
					{"text": "X", "is_correct": true},
					{"text": "Y", "is_correct": true},
					{"text": "Z"},
				},
			},
		},
	}
}

func createExam(t *testing.T, overrides map[string]interface{}) map[string]interface{} {
	t.Helper()

	payload := examPayload()
	for k, v := range overrides {
		payload[k] = v
	}

	resp, result := doJSON(t, "POST", "/api/exams", tutorToken, payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return result["exam"].(map[string]interface{})
}

func questionIDs(exam map[string]interface{}) []string {
	questions := exam["questions"].([]interface{})
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.(map[string]interface{})["id"].(string))
	}
	return ids
}

func submitAnswers(t *testing.T, examID, token string, answers []map[string]interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	return doJSON(t, "POST", "/api/exams/"+examID+"/submit", token, map[string]interface{}{
		"answers": answers,
	})
}

func correctAnswers(ids []string) []map[string]interface{} {
	return []map[string]interface{}{
		{"question_id": ids[0], "selected_options": []int{0}},
		{"question_id": ids[1], "selected_options": []int{0, 1}},
	}
}

func wrongAnswers(ids []string) []map[string]interface{} {
	return []map[string]interface{}{
		{"question_id": ids[0], "selected_options": []int{1}},
		{"question_id": ids[1], "selected_options": []int{0}},
	}
}

func TestCreateExamRequiresTutor(t *testing.T) {
	resp, result := doJSON(t, "POST", "/api/exams", studentToken, examPayload())
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Only tutors can create exams", result["error"])
}

func TestCreateExamValidation(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]interface{}
		field     string
	}{
		{
			"no questions",
			map[string]interface{}{"questions": []map[string]interface{}{}},
			"",
		},
		{
			"end before start",
			map[string]interface{}{
				"start_date": time.Now().Add(time.Hour).Format(time.RFC3339),
				"end_date":   time.Now().Format(time.RFC3339),
			},
			"end_date",
		},
		{
			"question without correct option",
			map[string]interface{}{
				"questions": []map[string]interface{}{
					{
						"text": "Impossible",
						"type": "single",
						"options": []map[string]interface{}{
							{"text": "A"},
							{"text": "B"},
						},
					},
				},
			},
			"questions[0].options",
		},
		{
			"option with empty text",
			map[string]interface{}{
				"questions": []map[string]interface{}{
					{
						"text": "Blank option",
						"type": "single",
						"options": []map[string]interface{}{
							{"text": "A", "is_correct": true},
							{"text": ""},
						},
					},
				},
			},
			"questions[0].options[1].text",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := examPayload()
			for k, v := range tc.overrides {
				payload[k] = v
			}

			resp, result := doJSON(t, "POST", "/api/exams", tutorToken, payload)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			if tc.field != "" {
				assert.Equal(t, tc.field, result["field"])
			}
		})
	}
}

func TestGetExamHidesAnswerKeyFromStudent(t *testing.T) {
	exam := createExam(t, nil)
	examID := exam["id"].(string)

	resp, result := doJSON(t, "GET", "/api/exams/"+examID, studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	view := result["exam"].(map[string]interface{})
	assert.Equal(t, "active", view["window_state"])
	for _, q := range view["questions"].([]interface{}) {
		for _, opt := range q.(map[string]interface{})["options"].([]interface{}) {
			_, present := opt.(map[string]interface{})["is_correct"]
			assert.False(t, present)
		}
	}

	// The unassigned student is rejected outright.
	resp, _ = doJSON(t, "GET", "/api/exams/"+examID, outsiderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSubmitExamScoresAndPasses(t *testing.T) {
	exam := createExam(t, nil)
	examID := exam["id"].(string)
	ids := questionIDs(exam)

	resp, result := submitAnswers(t, examID, studentToken, correctAnswers(ids))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 5.0, result["score"])
	assert.Equal(t, 5.0, result["total_points"])
	assert.Equal(t, 100.0, result["percentage"])
	assert.Equal(t, "pass", result["status"])
	assert.Equal(t, 1.0, result["attempt_number"])

	resp, result = submitAnswers(t, examID, studentToken, wrongAnswers(ids))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.0, result["score"])
	assert.Equal(t, 0.0, result["percentage"])
	assert.Equal(t, "fail", result["status"])
	assert.Equal(t, 2.0, result["attempt_number"])
}

func TestSubmitExamRejectsNonArrayAnswers(t *testing.T) {
	exam := createExam(t, nil)
	examID := exam["id"].(string)

	resp, result := doJSON(t, "POST", "/api/exams/"+examID+"/submit", studentToken, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Answers must be an array", result["error"])
}

func TestSubmitExamEnforcesAttemptLimit(t *testing.T) {
	exam := createExam(t, map[string]interface{}{"attempt_limit": 2})
	examID := exam["id"].(string)
	ids := questionIDs(exam)

	for i := 1; i <= 2; i++ {
		resp, result := submitAnswers(t, examID, studentToken, correctAnswers(ids))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(i), result["attempt_number"])
	}

	resp, result := submitAnswers(t, examID, studentToken, correctAnswers(ids))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No attempts left", result["error"])
	assert.Equal(t, 2.0, result["attempts_made"])
	assert.Equal(t, 2.0, result["attempts_allowed"])
}

func TestSubmitExamOutsideWindow(t *testing.T) {
	upcoming := createExam(t, map[string]interface{}{
		"start_date": time.Now().Add(time.Hour).Format(time.RFC3339),
		"end_date":   time.Now().Add(2 * time.Hour).Format(time.RFC3339),
	})
	resp, result := submitAnswers(t, upcoming["id"].(string), studentToken, correctAnswers(questionIDs(upcoming)))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Exam has not opened yet", result["error"])

	closed := createExam(t, map[string]interface{}{
		"start_date": time.Now().Add(-2 * time.Hour).Format(time.RFC3339),
		"end_date":   time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	resp, result = submitAnswers(t, closed["id"].(string), studentToken, correctAnswers(questionIDs(closed)))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Exam is closed", result["error"])
}

func TestSubmitExamRequiresAssignment(t *testing.T) {
	exam := createExam(t, nil)
	examID := exam["id"].(string)

	resp, _ := submitAnswers(t, examID, outsiderToken, correctAnswers(questionIDs(exam)))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = submitAnswers(t, examID, tutorToken, correctAnswers(questionIDs(exam)))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestResultsAreRedactedPerRole(t *testing.T) {
	exam := createExam(t, map[string]interface{}{"show_correct_answers": false})
	examID := exam["id"].(string)
	ids := questionIDs(exam)

	resp, _ := submitAnswers(t, examID, studentToken, wrongAnswers(ids))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, result := doJSON(t, "GET", "/api/exams/"+examID+"/results", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	studentResults := result["results"].([]interface{})
	require.Len(t, studentResults, 1)

	studentView := studentResults[0].(map[string]interface{})
	for _, q := range studentView["questions"].([]interface{}) {
		for _, opt := range q.(map[string]interface{})["options"].([]interface{}) {
			_, present := opt.(map[string]interface{})["is_correct"]
			assert.False(t, present)
		}
	}
	answers := studentView["answers"].([]interface{})
	require.NotEmpty(t, answers)
	_, present := answers[0].(map[string]interface{})["is_correct"]
	assert.True(t, present)

	resp, result = doJSON(t, "GET", "/api/exams/"+examID+"/results", tutorToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	tutorResults := result["results"].([]interface{})
	require.Len(t, tutorResults, 1)

	tutorView := tutorResults[0].(map[string]interface{})
	firstOption := tutorView["questions"].([]interface{})[0].(map[string]interface{})["options"].([]interface{})[0]
	assert.Equal(t, true, firstOption.(map[string]interface{})["is_correct"])
}

func TestGetSingleResult(t *testing.T) {
	exam := createExam(t, nil)
	examID := exam["id"].(string)

	resp, _ := submitAnswers(t, examID, studentToken, correctAnswers(questionIDs(exam)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, listing := doJSON(t, "GET", "/api/exams/"+examID+"/results", studentToken, nil)
	resultID := listing["results"].([]interface{})[0].(map[string]interface{})["id"].(string)

	resp, result := doJSON(t, "GET", "/api/results/"+resultID, studentToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, resultID, result["result"].(map[string]interface{})["id"])

	resp, _ = doJSON(t, "GET", "/api/results/"+resultID, outsiderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, "GET", "/api/results/"+uuid.NewString(), tutorToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteExamCascadesResults(t *testing.T) {
	exam := createExam(t, nil)
	examID := exam["id"].(string)
	ids := questionIDs(exam)

	submitAnswers(t, examID, studentToken, correctAnswers(ids))
	submitAnswers(t, examID, studentToken, wrongAnswers(ids))

	resp, _ := doJSON(t, "DELETE", "/api/exams/"+examID, studentToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, result := doJSON(t, "DELETE", "/api/exams/"+examID, tutorToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2.0, result["deleted_results"])

	resp, _ = doJSON(t, "GET", "/api/exams/"+examID, tutorToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestClearAttempts(t *testing.T) {
	exam := createExam(t, nil)
	examID := exam["id"].(string)
	ids := questionIDs(exam)

	submitAnswers(t, examID, studentToken, correctAnswers(ids))

	resp, result := doJSON(t, "DELETE", "/api/exams/"+examID+"/attempts", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, result["deleted_count"])

	// Numbering restarts once the slate is clean.
	resp, submitResult := submitAnswers(t, examID, studentToken, correctAnswers(ids))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, submitResult["attempt_number"])
}

func TestUpdateExamOwnership(t *testing.T) {
	exam := createExam(t, nil)
	examID := exam["id"].(string)

	resp, _ := doJSON(t, "PUT", "/api/exams/"+examID, studentToken, map[string]interface{}{
		"title": "Hijacked",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, result := doJSON(t, "PUT", "/api/exams/"+examID, tutorToken, map[string]interface{}{
		"title":         "Algebra midterm (rescheduled)",
		"passing_score": 70,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := result["exam"].(map[string]interface{})
	assert.Equal(t, "Algebra midterm (rescheduled)", updated["title"])
	assert.Equal(t, 70.0, updated["passing_score"])
}

func TestListExamsPerRole(t *testing.T) {
	exam := createExam(t, nil)
	examID := exam["id"].(string)

	resp, result := doJSON(t, "GET", "/api/exams", tutorToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, containsExam(result["exams"], examID))

	resp, result = doJSON(t, "GET", "/api/exams", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, containsExam(result["exams"], examID))

	resp, result = doJSON(t, "GET", "/api/exams", outsiderToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, containsExam(result["exams"], examID))
}

func containsExam(list interface{}, id string) bool {
	exams, ok := list.([]interface{})
	if !ok {
		return false
	}
	for _, e := range exams {
		if e.(map[string]interface{})["id"] == id {
			return true
		}
	}
	return false
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	resp, _ := doJSON(t, "GET", "/api/exams", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
