package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/adhyankumar740-cloud/Game/internal/config"
	"github.com/adhyankumar740-cloud/Game/internal/database"
	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/internal/services"
	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
)

// Sheet layout, one question per row after the header:
// question | correct answer | wrong 1 | wrong 2 | wrong 3 | difficulty
const (
	colQuestion = iota
	colCorrect
	colWrong1
	colWrong2
	colWrong3
	colDifficulty
)

func main() {
	path := flag.String("file", "questions.xlsx", "Excel workbook to import")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate:", err)
	}

	f, err := excelize.OpenFile(*path)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	repo := repositories.NewQuestionRepository(db)
	totalImported := int64(0)

	for _, sheetName := range f.GetSheetList() {
		fmt.Printf("Importing sheet: %s\n", sheetName)
		rows, err := f.GetRows(sheetName)
		if err != nil {
			fmt.Printf("Error reading sheet %s: %v\n", sheetName, err)
			continue
		}

		questions, problems := parseRows(rows, sheetName)
		for _, p := range problems {
			fmt.Println(p)
		}

		added, err := repo.BulkCreate(context.Background(), questions)
		if err != nil {
			fmt.Printf("Error importing sheet %s: %v\n", sheetName, err)
			continue
		}
		totalImported += added
	}

	fmt.Printf("Successfully imported %d questions.\n", totalImported)
}

func cell(row []string, col int) string {
	if col < len(row) {
		return strings.TrimSpace(row[col])
	}
	return ""
}

func parseDifficulty(value string) string {
	switch strings.ToLower(value) {
	case models.DifficultyEasy:
		return models.DifficultyEasy
	case models.DifficultyHard:
		return models.DifficultyHard
	default:
		return models.DifficultyMedium
	}
}

// parseRows turns sheet rows into bank questions. The first row is a header.
// Rows that would not make a valid quiz are reported and skipped.
func parseRows(rows [][]string, category string) ([]models.Question, []string) {
	var questions []models.Question
	var problems []string

	for i, row := range rows {
		if i == 0 {
			continue
		}

		question, correct := cell(row, colQuestion), cell(row, colCorrect)
		var wrong []string
		for _, col := range []int{colWrong1, colWrong2, colWrong3} {
			if answer := cell(row, col); answer != "" {
				wrong = append(wrong, answer)
			}
		}

		if _, err := services.NewQuizItem(question, correct, wrong); err != nil {
			problems = append(problems, fmt.Sprintf("Skipping row %d of %s: %v", i+1, category, err))
			continue
		}

		questions = append(questions, models.Question{
			QuestionText:     question,
			CorrectAnswer:    correct,
			IncorrectAnswers: wrong,
			Category:         category,
			Difficulty:       parseDifficulty(cell(row, colDifficulty)),
		})
	}

	return questions, problems
}
