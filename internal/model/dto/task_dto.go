package dto

// SubmitTaskRequest 提交 AI 任务
type SubmitTaskRequest struct {
	Kind   string            `json:"kind" binding:"required"`
	Title  string            `json:"title" binding:"omitempty,max=200"`
	Fields map[string]string `json:"fields"`
}

// SubmitTaskResponse 任务结果
type SubmitTaskResponse struct {
	TaskID           int64             `json:"task_id"`
	Kind             string            `json:"kind"`
	Status           string            `json:"status"`
	Output           string            `json:"output"`
	WordCount        int               `json:"word_count"`
	CreditsUsed      int               `json:"credits_used"`
	CreditsRemaining int               `json:"credits_remaining"`
	Practice         *PracticeQuestion `json:"practice,omitempty"`
	CompletedAt      string            `json:"completed_at,omitempty"`
}

// TaskListItem 任务历史
type TaskListItem struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	WordCount   int    `json:"word_count"`
	CreditsUsed int    `json:"credits_used"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// TaskDetail 任务详情
type TaskDetail struct {
	TaskListItem
	Input        map[string]string `json:"input"`
	Output       string            `json:"output,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Practice     *PracticeQuestion `json:"practice,omitempty"`
}

// PracticeQuestion 练习题（不返回正确答案，直到作答）
type PracticeQuestion struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	ExamType      string   `json:"exam_type"`
	CorrectAnswer *int     `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	UserAnswer    *int     `json:"user_answer,omitempty"`
	IsCorrect     *bool    `json:"is_correct,omitempty"`
}

// AnswerPracticeRequest 提交练习题答案
type AnswerPracticeRequest struct {
	Answer *int `json:"answer" binding:"required,min=0,max=3"`
}

// ListQuery 分页参数
type ListQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize 填充默认分页
func (q *ListQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
}
