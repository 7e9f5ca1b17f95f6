package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/pkg/metrics"
	"github.com/qs3c/prep_go_server/internal/pkg/prompt"
	"github.com/qs3c/prep_go_server/internal/repository"
)

var (
	ErrTaskNotFound     = errors.New("任务不存在")
	ErrPracticeNotFound = errors.New("练习题不存在")
	ErrAlreadyAnswered  = errors.New("该题已经作答")
	errTaskStateChanged = errors.New("task state changed during execution")
)

const titleMaxRunes = 60

// TaskService 提交流程：权限检查 → 执行 → 扣减额度
type TaskService struct {
	db           *gorm.DB
	taskRepo     *repository.TaskRepository
	userRepo     *repository.UserRepository
	practiceRepo *repository.PracticeRepository
	gate         *Gate
	executor     *Executor
	credits      *CreditService
	metrics      *metrics.Collector
	log          *zap.Logger
	now          func() time.Time
}

func NewTaskService(
	db *gorm.DB,
	taskRepo *repository.TaskRepository,
	userRepo *repository.UserRepository,
	practiceRepo *repository.PracticeRepository,
	gate *Gate,
	executor *Executor,
	credits *CreditService,
	m *metrics.Collector,
	log *zap.Logger,
) *TaskService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskService{
		db:           db,
		taskRepo:     taskRepo,
		userRepo:     userRepo,
		practiceRepo: practiceRepo,
		gate:         gate,
		executor:     executor,
		credits:      credits,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

// Submit 提交并同步执行一个 AI 任务，只有成功时才扣减额度
func (s *TaskService) Submit(ctx context.Context, userID int64, req *dto.SubmitTaskRequest) (*dto.SubmitTaskResponse, error) {
	kind := model.TaskKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if !kind.Valid() {
		return nil, ErrInvalidTaskKind
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.gate.Check(user, kind, s.now()); err != nil {
		s.metrics.RecordTask(string(kind), "denied")
		return nil, err
	}

	fields := req.Fields
	if fields == nil {
		fields = map[string]string{}
	}

	p, err := s.executor.Prepare(kind, fields)
	if err != nil {
		return nil, err
	}

	task := &model.TaskSubmission{
		UserID: userID,
		Kind:   kind,
		Title:  taskTitle(req.Title, kind, fields),
		Input:  model.Fields(fields),
		Status: model.TaskStatusPending,
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, err
	}
	if _, err := s.taskRepo.TransitionStatus(task.ID, model.TaskStatusPending, model.TaskStatusProcessing); err != nil {
		return nil, err
	}

	output, err := s.executor.Run(ctx, kind, p)
	if err != nil {
		s.fail(task, err)
		return nil, err
	}

	var question *model.PracticeQuestion
	if kind == model.TaskPractice {
		question, err = parsePractice(output, fields)
		if err != nil {
			s.fail(task, err)
			return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
		}
		question.UserID = userID
		question.TaskID = task.ID
	}

	charged := s.gate.Charged(kind)
	creditsUsed := 0
	if charged {
		creditsUsed = 1
	}
	wordCount := len(strings.Fields(output))
	completedAt := s.now()
	balance := user.Credits

	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.taskRepo.WithTx(tx).Complete(task.ID, output, wordCount, creditsUsed, completedAt)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errTaskStateChanged
		}

		if charged {
			if balance, err = s.credits.ConsumeTx(tx, userID, task.ID); err != nil {
				return err
			}
		}

		if question != nil {
			return s.practiceRepo.WithTx(tx).Create(question)
		}
		return nil
	})
	if err != nil {
		s.fail(task, err)
		return nil, err
	}

	if charged {
		s.metrics.RecordCreditConsumed()
	}
	s.metrics.RecordTask(string(kind), model.TaskStatusCompleted)

	resp := &dto.SubmitTaskResponse{
		TaskID:           task.ID,
		Kind:             string(kind),
		Status:           model.TaskStatusCompleted,
		Output:           output,
		WordCount:        wordCount,
		CreditsUsed:      creditsUsed,
		CreditsRemaining: balance,
		CompletedAt:      completedAt.Format(time.RFC3339),
	}
	if question != nil {
		resp.Practice = practiceView(question)
	}
	return resp, nil
}

func (s *TaskService) fail(task *model.TaskSubmission, cause error) {
	if err := s.taskRepo.Fail(task.ID, cause.Error(), s.now()); err != nil {
		s.log.Error("mark task failed", zap.Int64("task_id", task.ID), zap.Error(err))
	}
	s.metrics.RecordTask(string(task.Kind), model.TaskStatusFailed)
}

// List 任务历史
func (s *TaskService) List(userID int64, kind string, query *dto.ListQuery) ([]dto.TaskListItem, int64, error) {
	query.Normalize()

	if kind != "" && !model.TaskKind(kind).Valid() {
		return nil, 0, ErrInvalidTaskKind
	}

	tasks, total, err := s.taskRepo.ListByUser(userID, kind, query.Page, query.PageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]dto.TaskListItem, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskListItem(&tasks[i]))
	}
	return items, total, nil
}

// Get 任务详情，只能查看自己的任务
func (s *TaskService) Get(userID, taskID int64) (*dto.TaskDetail, error) {
	task, err := s.taskRepo.GetByUserAndID(userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	detail := &dto.TaskDetail{
		TaskListItem: taskListItem(task),
		Input:        map[string]string(task.Input),
		Output:       task.Output,
		ErrorMessage: task.ErrorMessage,
	}

	if task.Kind == model.TaskPractice && task.Status == model.TaskStatusCompleted {
		q, err := s.practiceRepo.GetByTaskID(task.ID)
		if err == nil {
			detail.Practice = practiceView(q)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return detail, nil
}

// AnswerPractice 记录练习题答案，每题只能作答一次
func (s *TaskService) AnswerPractice(userID, questionID int64, answer int) (*dto.PracticeQuestion, error) {
	q, err := s.practiceRepo.GetByUserAndID(userID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPracticeNotFound
		}
		return nil, err
	}
	if q.UserAnswer != nil {
		return nil, ErrAlreadyAnswered
	}

	correct := answer == q.CorrectAnswer
	rows, err := s.practiceRepo.RecordAnswer(q.ID, answer, correct)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAlreadyAnswered
	}

	q.UserAnswer = &answer
	q.IsCorrect = &correct
	return practiceView(q), nil
}

func taskListItem(task *model.TaskSubmission) dto.TaskListItem {
	item := dto.TaskListItem{
		ID:          task.ID,
		Kind:        string(task.Kind),
		Title:       task.Title,
		Status:      task.Status,
		WordCount:   task.WordCount,
		CreditsUsed: task.CreditsUsed,
		CreatedAt:   task.CreatedAt.Format(time.RFC3339),
	}
	if task.CompletedAt != nil {
		item.CompletedAt = task.CompletedAt.Format(time.RFC3339)
	}
	return item
}

// taskTitle 未指定标题时取第一个必填字段的前若干字符
func taskTitle(title string, kind model.TaskKind, fields map[string]string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	for _, name := range prompt.Required(kind) {
		if v := strings.TrimSpace(fields[name]); v != "" {
			return truncateRunes(v, titleMaxRunes)
		}
	}
	return string(kind)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
