package model

import (
	"time"
)

type TaskKind string

const (
	TaskTutor    TaskKind = "tutor"
	TaskHomework TaskKind = "homework"
	TaskHumanize TaskKind = "humanize"
	TaskPractice TaskKind = "practice"
	TaskReview   TaskKind = "review"
	TaskOutline  TaskKind = "outline"
)

// TaskKinds 全部任务类型
var TaskKinds = []TaskKind{TaskTutor, TaskHomework, TaskHumanize, TaskPractice, TaskReview, TaskOutline}

func (k TaskKind) Valid() bool {
	for _, kind := range TaskKinds {
		if k == kind {
			return true
		}
	}
	return false
}

const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

type TaskSubmission struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	UserID       int64      `gorm:"not null;index" json:"user_id"`
	Kind         TaskKind   `gorm:"size:20;not null;index" json:"kind"`
	Title        string     `gorm:"size:200" json:"title"`
	Input        Fields     `gorm:"type:text" json:"input"`
	Status       string     `gorm:"size:20;default:pending;index" json:"status"`
	Output       string     `gorm:"type:text" json:"output,omitempty"`
	WordCount    int        `json:"word_count"`
	CreditsUsed  int        `gorm:"default:0" json:"credits_used"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func (TaskSubmission) TableName() string {
	return "task_submissions"
}
