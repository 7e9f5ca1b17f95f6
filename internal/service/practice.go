package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/model/dto"
)

const practiceOptionCount = 4

var errMalformedPractice = errors.New("malformed practice question")

type practicePayload struct {
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
}

// parsePractice 解析练习题 JSON，correctAnswer 可以是下标或 A-D
func parsePractice(output string, fields map[string]string) (*model.PracticeQuestion, error) {
	var payload practicePayload
	if err := json.Unmarshal([]byte(stripCodeFence(output)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedPractice, err)
	}

	if strings.TrimSpace(payload.Question) == "" {
		return nil, fmt.Errorf("%w: empty question", errMalformedPractice)
	}
	if len(payload.Options) != practiceOptionCount {
		return nil, fmt.Errorf("%w: expected %d options, got %d", errMalformedPractice, practiceOptionCount, len(payload.Options))
	}

	idx, err := answerIndex(payload.CorrectAnswer)
	if err != nil {
		return nil, err
	}

	return &model.PracticeQuestion{
		Question:      strings.TrimSpace(payload.Question),
		Options:       model.StringArray(payload.Options),
		CorrectAnswer: idx,
		Explanation:   strings.TrimSpace(payload.Explanation),
		Category:      fieldOr(fields, "category", ""),
		Difficulty:    fieldOr(fields, "difficulty", "medium"),
		ExamType:      fieldOr(fields, "exam_type", "SAT"),
	}, nil
}

func answerIndex(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 || n >= practiceOptionCount {
			return 0, fmt.Errorf("%w: answer index %d out of range", errMalformedPractice, n)
		}
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: correctAnswer missing", errMalformedPractice)
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= 'A' && s[0] < 'A'+practiceOptionCount {
		return int(s[0] - 'A'), nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < practiceOptionCount {
		return n, nil
	}
	return 0, fmt.Errorf("%w: unrecognized answer %q", errMalformedPractice, s)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func fieldOr(fields map[string]string, key, def string) string {
	if v := strings.TrimSpace(fields[key]); v != "" {
		return v
	}
	return def
}

// practiceView 作答前不返回正确答案和解析
func practiceView(q *model.PracticeQuestion) *dto.PracticeQuestion {
	view := &dto.PracticeQuestion{
		ID:         q.ID,
		Question:   q.Question,
		Options:    []string(q.Options),
		Category:   q.Category,
		Difficulty: q.Difficulty,
		ExamType:   q.ExamType,
		UserAnswer: q.UserAnswer,
		IsCorrect:  q.IsCorrect,
	}
	if q.UserAnswer != nil {
		correct := q.CorrectAnswer
		view.CorrectAnswer = &correct
		view.Explanation = q.Explanation
	}
	return view
}
