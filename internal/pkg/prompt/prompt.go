package prompt

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/qs3c/prep_go_server/internal/model"
)

var (
	ErrUnknownKind  = errors.New("unknown task kind")
	ErrMissingField = errors.New("missing required field")
)

// Prompt 渲染后的提示词
type Prompt struct {
	System      string
	User        string
	JSON        bool    // 要求返回 JSON 对象
	Temperature float32 // 0 表示使用客户端默认值
}

type spec struct {
	system      string
	required    []string
	defaults    map[string]string
	tmpl        *template.Template
	json        bool
	temperature float32
}

var specs = map[model.TaskKind]spec{
	model.TaskTutor: {
		system:   "You are an expert tutor for standardized exam preparation.",
		required: []string{"question"},
		defaults: map[string]string{"exam_type": "standardized exams", "category": "General"},
		tmpl: parse("tutor", `You are an expert tutor helping students prepare for {{.exam_type}}.

Question: {{.question}}
Category: {{.category}}

Provide a detailed, step-by-step explanation that helps the student understand the concept thoroughly. Use clear language and examples where appropriate.`),
	},
	model.TaskHomework: {
		system:   "You are an expert academic writer.",
		required: []string{"topic", "instructions"},
		defaults: map[string]string{"assignment_type": "essay", "citation_style": "APA", "word_count": "1000"},
		tmpl: parse("homework", `Complete this assignment.

Assignment Type: {{.assignment_type}}
Topic: {{.topic}}
Instructions: {{.instructions}}
Citation Style: {{.citation_style}}
Word Count: {{.word_count}} words
{{- if .file_content}}

Uploaded Content:
{{.file_content}}
{{- end}}

Requirements:
1. Write a complete, well-structured {{.assignment_type}}
2. Use proper {{.citation_style}} citation format
3. Include in-text citations and references
4. Meet the {{.word_count}} word count requirement
5. Use academic language and proper formatting

Write the complete assignment now:`),
	},
	model.TaskHumanize: {
		system:   "You are a careful editor who rewrites text in a natural human voice.",
		required: []string{"text"},
		tmpl: parse("humanize", `Rewrite the following text so it reads naturally, as a person would write it.

Make it:
- More conversational and natural
- Vary sentence structure and length
- Use natural transitions between ideas
- Remove repetitive or mechanical phrasing
- Keep the original meaning and facts intact

Text:
{{.text}}

Rewritten version:`),
	},
	model.TaskPractice: {
		system:      "You write exam practice questions and answer only with JSON.",
		required:    []string{"category"},
		defaults:    map[string]string{"difficulty": "medium", "exam_type": "SAT"},
		json:        true,
		temperature: 0.8,
		tmpl: parse("practice", `Generate a {{.difficulty}} difficulty multiple-choice question for {{.exam_type}} {{.category}} practice.

Format your response as JSON with this structure:
{
  "question": "The question text",
  "options": ["Option A", "Option B", "Option C", "Option D"],
  "correctAnswer": 0,
  "explanation": "Detailed explanation of why the answer is correct"
}

The correctAnswer should be the index (0-3) of the correct option.`),
	},
	model.TaskReview: {
		system:   "You are an expert academic reviewer.",
		required: []string{"file_content"},
		defaults: map[string]string{"assignment_type": "essay"},
		tmpl: parse("review", `Review this {{.assignment_type}} and provide detailed feedback.

Content:
{{.file_content}}

Provide:
1. Overall assessment (grade/score)
2. Strengths
3. Areas for improvement
4. Specific suggestions
5. Grammar and style feedback
6. Citation and formatting feedback

Detailed review:`),
	},
	model.TaskOutline: {
		system:   "You are an academic writing advisor.",
		required: []string{"topic"},
		defaults: map[string]string{"essay_type": "argumentative", "citation_style": "APA", "word_count": "1000"},
		tmpl: parse("outline", `Create a detailed outline for a {{.essay_type}} essay on: {{.topic}}

Requirements:
- Citation Style: {{.citation_style}}
- Target Length: {{.word_count}} words
- Include thesis statement
- Main points with sub-points
- Suggested sources
- Conclusion strategy

Detailed outline:`),
	},
}

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=zero").Parse(text))
}

// Required 返回任务类型的必填字段
func Required(kind model.TaskKind) []string {
	return specs[kind].required
}

// Render 按任务类型渲染提示词，同样的输入总是得到同样的输出
func Render(kind model.TaskKind, fields map[string]string) (Prompt, error) {
	s, ok := specs[kind]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	data := make(map[string]string, len(s.defaults)+len(fields))
	for k, v := range s.defaults {
		data[k] = v
	}
	for k, v := range fields {
		v = strings.TrimSpace(v)
		if v != "" {
			data[k] = v
		}
	}

	for _, name := range s.required {
		if data[name] == "" {
			return Prompt{}, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	var b strings.Builder
	if err := s.tmpl.Execute(&b, data); err != nil {
		return Prompt{}, fmt.Errorf("render %s prompt: %w", kind, err)
	}

	return Prompt{
		System:      s.system,
		User:        b.String(),
		JSON:        s.json,
		Temperature: s.temperature,
	}, nil
}
