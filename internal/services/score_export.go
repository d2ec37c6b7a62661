package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const scoreSheet = "Scores"

// ScoreExporter renders the leaderboard as an Excel workbook.
type ScoreExporter struct {
	users *repositories.UserRepository
}

func NewScoreExporter(users *repositories.UserRepository) *ScoreExporter {
	return &ScoreExporter{users: users}
}

// Export returns the xlsx bytes and the number of ranked users.
func (e *ScoreExporter) Export(ctx context.Context) ([]byte, int, error) {
	users, err := e.users.AllScores(ctx)
	if err != nil {
		return nil, 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scoreSheet); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to prepare sheet")
	}

	header := []interface{}{"Rank", "User ID", "First Name", "Username", "Score"}
	if err := f.SetSheetRow(scoreSheet, "A1", &header); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to write header")
	}

	for i, u := range users {
		row := []interface{}{i + 1, u.UserID, u.FirstName, u.Username, u.QuizScore}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(scoreSheet, cell, &row); err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to write score row")
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to render workbook")
	}
	return buf.Bytes(), len(users), nil
}
