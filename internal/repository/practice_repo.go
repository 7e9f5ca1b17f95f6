package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
)

type PracticeRepository struct {
	db *gorm.DB
}

func NewPracticeRepository(db *gorm.DB) *PracticeRepository {
	return &PracticeRepository{db: db}
}

func (r *PracticeRepository) WithTx(tx *gorm.DB) *PracticeRepository {
	return &PracticeRepository{db: tx}
}

func (r *PracticeRepository) Create(q *model.PracticeQuestion) error {
	return r.db.Create(q).Error
}

func (r *PracticeRepository) GetByUserAndID(userID, id int64) (*model.PracticeQuestion, error) {
	var q model.PracticeQuestion
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *PracticeRepository) GetByTaskID(taskID int64) (*model.PracticeQuestion, error) {
	var q model.PracticeQuestion
	err := r.db.Where("task_id = ?", taskID).First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// RecordAnswer 只记录第一次作答，返回受影响行数
func (r *PracticeRepository) RecordAnswer(id int64, answer int, correct bool) (int64, error) {
	result := r.db.Model(&model.PracticeQuestion{}).
		Where("id = ? AND user_answer IS NULL", id).
		Updates(map[string]interface{}{
			"user_answer": answer,
			"is_correct":  correct,
		})
	return result.RowsAffected, result.Error
}
