package model

import (
	"time"
)

type PracticeQuestion struct {
	ID            int64       `gorm:"primaryKey" json:"id"`
	UserID        int64       `gorm:"not null;index" json:"user_id"`
	TaskID        int64       `gorm:"index" json:"task_id"`
	Question      string      `gorm:"type:text;not null" json:"question"`
	Options       StringArray `gorm:"type:text;not null" json:"options"`
	CorrectAnswer int         `gorm:"not null" json:"correct_answer"`
	Explanation   string      `gorm:"type:text" json:"explanation"`
	Category      string      `gorm:"size:50" json:"category"`
	Difficulty    string      `gorm:"size:20" json:"difficulty"` // Easy, Medium, Hard
	ExamType      string      `gorm:"size:20" json:"exam_type"`
	UserAnswer    *int        `json:"user_answer,omitempty"`
	IsCorrect     *bool       `json:"is_correct,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (PracticeQuestion) TableName() string {
	return "practice_questions"
}
