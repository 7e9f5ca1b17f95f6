package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/prep_go_server/internal/model"
)

func TestRender_AllKinds(t *testing.T) {
	fields := map[model.TaskKind]map[string]string{
		model.TaskTutor:    {"question": "What is 2+2?"},
		model.TaskHomework: {"topic": "Climate", "instructions": "Argue for carbon tax"},
		model.TaskHumanize: {"text": "The results indicate a positive trend."},
		model.TaskPractice: {"category": "Math"},
		model.TaskReview:   {"file_content": "My essay draft."},
		model.TaskOutline:  {"topic": "Renewable energy"},
	}

	for _, kind := range model.TaskKinds {
		t.Run(string(kind), func(t *testing.T) {
			p, err := Render(kind, fields[kind])
			require.NoError(t, err)
			assert.NotEmpty(t, p.System)
			assert.NotEmpty(t, p.User)
			for _, v := range fields[kind] {
				assert.Contains(t, p.User, v)
			}
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	fields := map[string]string{"question": "Define entropy", "category": "Physics"}

	a, err := Render(model.TaskTutor, fields)
	require.NoError(t, err)
	b, err := Render(model.TaskTutor, fields)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRender_Defaults(t *testing.T) {
	p, err := Render(model.TaskTutor, map[string]string{"question": "Why?"})
	require.NoError(t, err)

	assert.Contains(t, p.User, "prepare for standardized exams")
	assert.Contains(t, p.User, "Category: General")
}

func TestRender_OverridesDefaults(t *testing.T) {
	p, err := Render(model.TaskHomework, map[string]string{
		"topic":          "Rome",
		"instructions":   "Summarize the fall",
		"citation_style": "MLA",
		"word_count":     "500",
		"file_content":   "notes here",
	})
	require.NoError(t, err)

	assert.Contains(t, p.User, "Citation Style: MLA")
	assert.Contains(t, p.User, "Word Count: 500 words")
	assert.Contains(t, p.User, "Uploaded Content:\nnotes here")
}

func TestRender_OmitsEmptyFileContent(t *testing.T) {
	p, err := Render(model.TaskHomework, map[string]string{"topic": "Rome", "instructions": "x"})
	require.NoError(t, err)

	assert.NotContains(t, p.User, "Uploaded Content")
}

func TestRender_MissingField(t *testing.T) {
	tests := []struct {
		kind   model.TaskKind
		fields map[string]string
	}{
		{model.TaskTutor, nil},
		{model.TaskTutor, map[string]string{"question": "   "}},
		{model.TaskHomework, map[string]string{"topic": "Rome"}},
		{model.TaskHumanize, map[string]string{}},
		{model.TaskReview, map[string]string{"assignment_type": "essay"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			_, err := Render(tt.kind, tt.fields)
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestRender_UnknownKind(t *testing.T) {
	_, err := Render(model.TaskKind("essay_mill"), map[string]string{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRender_PracticeRequestsJSON(t *testing.T) {
	p, err := Render(model.TaskPractice, map[string]string{"category": "Reading", "difficulty": "hard"})
	require.NoError(t, err)

	assert.True(t, p.JSON)
	assert.Equal(t, float32(0.8), p.Temperature)
	assert.Contains(t, p.User, "hard difficulty")
	assert.Contains(t, p.User, "correctAnswer")
}

func TestRequired(t *testing.T) {
	assert.Equal(t, []string{"question"}, Required(model.TaskTutor))
	assert.Nil(t, Required(model.TaskKind("unknown")))
}
