package main

import (
	"testing"

	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"Question", "Correct", "Wrong 1", "Wrong 2", "Wrong 3", "Difficulty"},
		{"Capital of France?", "Paris", "Rome", "Madrid", "Berlin", "Easy"},
		{" Largest ocean? ", "Pacific", "Atlantic"},
		{"", "Nothing", "Else"},
		{"Only one option?", "Yes", "Yes"},
	}

	questions, problems := parseRows(rows, "Geography")

	require.Len(t, questions, 2)
	assert.Equal(t, models.Question{
		QuestionText:     "Capital of France?",
		CorrectAnswer:    "Paris",
		IncorrectAnswers: []string{"Rome", "Madrid", "Berlin"},
		Category:         "Geography",
		Difficulty:       models.DifficultyEasy,
	}, questions[0])
	assert.Equal(t, "Largest ocean?", questions[1].QuestionText)
	assert.Equal(t, models.DifficultyMedium, questions[1].Difficulty)

	require.Len(t, problems, 2)
	assert.Contains(t, problems[0], "row 4")
	assert.Contains(t, problems[1], "row 5")
}
