package repositories

import (
	"examportal/models"

	"gorm.io/gorm"
)

type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

// Create inserts a graded result. A duplicate (exam_id, student_id,
// attempt_number) surfaces as gorm.ErrDuplicatedKey for the caller to retry
// with a recomputed attempt number.
func (r *ResultRepository) Create(result *models.ExamResult) error {
	return r.DB.Create(result).Error
}

func (r *ResultRepository) FindByID(id string) (*models.ExamResult, error) {
	var result models.ExamResult
	if err := r.DB.Where("id = ?", id).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultRepository) ListByExam(examID string) ([]models.ExamResult, error) {
	var results []models.ExamResult
	err := r.DB.Where("exam_id = ?", examID).
		Order("submitted_at DESC").
		Find(&results).Error
	return results, err
}

func (r *ResultRepository) ListByExamAndStudent(examID, studentID string) ([]models.ExamResult, error) {
	var results []models.ExamResult
	err := r.DB.Where("exam_id = ? AND student_id = ?", examID, studentID).
		Order("attempt_number ASC").
		Find(&results).Error
	return results, err
}

func (r *ResultRepository) DeleteByExam(examID string) (int64, error) {
	res := r.DB.Where("exam_id = ?", examID).Delete(&models.ExamResult{})
	return res.RowsAffected, res.Error
}

func (r *ResultRepository) DeleteByExamAndStudent(examID, studentID string) (int64, error) {
	res := r.DB.Where("exam_id = ? AND student_id = ?", examID, studentID).Delete(&models.ExamResult{})
	return res.RowsAffected, res.Error
}
