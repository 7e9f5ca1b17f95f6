package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(task *model.TaskSubmission) error {
	return r.db.Create(task).Error
}

func (r *TaskRepository) GetByID(id int64) (*model.TaskSubmission, error) {
	var task model.TaskSubmission
	err := r.db.Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetByUserAndID 只能查询自己的任务
func (r *TaskRepository) GetByUserAndID(userID, id int64) (*model.TaskSubmission, error) {
	var task model.TaskSubmission
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// TransitionStatus 条件更新状态，返回受影响行数
func (r *TaskRepository) TransitionStatus(id int64, from, to string) (int64, error) {
	result := r.db.Model(&model.TaskSubmission{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// Complete 写入结果，仅对处理中的任务生效
func (r *TaskRepository) Complete(id int64, output string, wordCount, creditsUsed int, at time.Time) (int64, error) {
	result := r.db.Model(&model.TaskSubmission{}).
		Where("id = ? AND status = ?", id, model.TaskStatusProcessing).
		Updates(map[string]interface{}{
			"status":       model.TaskStatusCompleted,
			"output":       output,
			"word_count":   wordCount,
			"credits_used": creditsUsed,
			"completed_at": at,
		})
	return result.RowsAffected, result.Error
}

// Fail 标记失败，仅对未完成的任务生效
func (r *TaskRepository) Fail(id int64, message string, at time.Time) error {
	return r.db.Model(&model.TaskSubmission{}).
		Where("id = ? AND status IN ?", id, []string{model.TaskStatusPending, model.TaskStatusProcessing}).
		Updates(map[string]interface{}{
			"status":        model.TaskStatusFailed,
			"error_message": message,
			"completed_at":  at,
		}).Error
}

func (r *TaskRepository) ListByUser(userID int64, kind string, page, pageSize int) ([]model.TaskSubmission, int64, error) {
	var tasks []model.TaskSubmission
	var total int64

	query := r.db.Model(&model.TaskSubmission{}).Where("user_id = ?", userID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&tasks).Error
	return tasks, total, err
}

type groupCount struct {
	Grp   string
	Total int64
}

func (r *TaskRepository) countBy(column string) (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&model.TaskSubmission{}).
		Select(column + " AS grp, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Grp] = row.Total
	}
	return counts, nil
}

func (r *TaskRepository) CountByKind() (map[string]int64, error) {
	return r.countBy("kind")
}

func (r *TaskRepository) CountByStatus() (map[string]int64, error) {
	return r.countBy("status")
}
