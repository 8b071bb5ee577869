package repositories

import (
	"examportal/models"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(exam *models.Exam) error {
	return r.DB.Create(exam).Error
}

func (r *ExamRepository) Update(exam *models.Exam) error {
	return r.DB.Save(exam).Error
}

// FindByID fetches an active exam with its embedded question set. Soft-deleted
// exams are treated as not found.
func (r *ExamRepository) FindByID(id string) (*models.Exam, error) {
	var exam models.Exam
	if err := r.DB.Where("id = ? AND is_active = ?", id, true).First(&exam).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) FindByTutor(tutorID string) ([]models.Exam, error) {
	var exams []models.Exam
	err := r.DB.Where("tutor_id = ? AND is_active = ?", tutorID, true).
		Order("created_at DESC").
		Find(&exams).Error
	return exams, err
}

// FindAssignedTo fetches the active exams a student is assigned to. Assignee
// membership lives in a JSON column, so filtering happens here rather than in
// a dialect-specific JSON query.
func (r *ExamRepository) FindAssignedTo(studentID string) ([]models.Exam, error) {
	var exams []models.Exam
	if err := r.DB.Where("is_active = ?", true).Order("created_at DESC").Find(&exams).Error; err != nil {
		return nil, err
	}

	assigned := make([]models.Exam, 0, len(exams))
	for _, exam := range exams {
		if exam.IsAssignedTo(studentID) {
			assigned = append(assigned, exam)
		}
	}
	return assigned, nil
}

// SoftDelete flags the exam inactive. Its results are removed separately by
// the result repository.
func (r *ExamRepository) SoftDelete(exam *models.Exam) error {
	exam.IsActive = false
	return r.DB.Save(exam).Error
}
