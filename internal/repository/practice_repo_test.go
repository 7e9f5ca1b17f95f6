package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/testutil"
)

func TestPracticeRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPracticeRepository(db)
	user := testutil.TestUser(t, db)
	task := testutil.TestTask(t, db, user.ID, model.TaskPractice, model.TaskStatusCompleted)

	q := &model.PracticeQuestion{
		UserID:        user.ID,
		TaskID:        task.ID,
		Question:      "2+2?",
		Options:       model.StringArray{"3", "4", "5", "6"},
		CorrectAnswer: 1,
		Category:      "Math",
	}
	require.NoError(t, repo.Create(q))

	found, err := repo.GetByTaskID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4", "5", "6"}, []string(found.Options))
	assert.Nil(t, found.UserAnswer)

	rows, err := repo.RecordAnswer(q.ID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.RecordAnswer(q.ID, 2, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	found, err = repo.GetByUserAndID(user.ID, q.ID)
	require.NoError(t, err)
	require.NotNil(t, found.UserAnswer)
	assert.Equal(t, 1, *found.UserAnswer)
	require.NotNil(t, found.IsCorrect)
	assert.True(t, *found.IsCorrect)

	_, err = repo.GetByUserAndID(user.ID+1, q.ID)
	assert.Error(t, err)
}
