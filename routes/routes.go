package routes

import (
	"examportal/config"
	"examportal/controllers"
	"examportal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, log *logrus.Logger) {
	identity := middleware.IdentityMiddleware(cfg)

	examsController := controllers.NewExamsController(db, cfg, log)

	exams := app.Group("/api/exams", identity)
	exams.Post("/", examsController.CreateExam)
	exams.Get("/", examsController.ListExams)
	exams.Get("/:id", examsController.GetExam)
	exams.Put("/:id", examsController.UpdateExam)
	exams.Delete("/:id", examsController.DeleteExam)
	exams.Post("/:id/submit", examsController.SubmitExam)
	exams.Get("/:id/results", examsController.GetExamResults)
	exams.Delete("/:id/attempts", examsController.ClearAttempts)

	app.Get("/api/results/:id", identity, examsController.GetResult)
}
