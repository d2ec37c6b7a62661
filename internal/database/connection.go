package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/config"
	"github.com/adhyankumar740-cloud/Game/internal/models"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	if strings.HasPrefix(dsn, sqlitePrefix) {
		logger.Info("Using local SQLite database", "path", strings.TrimPrefix(dsn, sqlitePrefix))
		return OpenSQLite(strings.TrimPrefix(dsn, sqlitePrefix), logLevel)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
		// Row-locked read-modify-write paths open their own transactions.
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

// OpenSQLite opens a file-backed SQLite database. SQLite has no row locks, so
// the pool is pinned to one connection and transactions serialize instead.
func OpenSQLite(path string, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(logLevel),
		NowFunc:                func() time.Time { return time.Now().UTC() },
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.BotValue{},
		&models.User{},
		&models.Chat{},
		&models.Question{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// fallbackQuestions keeps broadcasts going when the trivia API is down.
var fallbackQuestions = []models.Question{
	{
		QuestionText:     "What is the capital of France?",
		CorrectAnswer:    "Paris",
		IncorrectAnswers: []string{"London", "Berlin", "Rome"},
		Category:         "Geography",
		Difficulty:       models.DifficultyEasy,
	},
	{
		QuestionText:     "Which planet is known as the Red Planet?",
		CorrectAnswer:    "Mars",
		IncorrectAnswers: []string{"Earth", "Jupiter", "Venus"},
		Category:         "Science",
		Difficulty:       models.DifficultyEasy,
	},
	{
		QuestionText:     "What is the largest ocean on Earth?",
		CorrectAnswer:    "Pacific",
		IncorrectAnswers: []string{"Atlantic", "Indian", "Arctic"},
		Category:         "Geography",
		Difficulty:       models.DifficultyEasy,
	},
	{
		QuestionText:     "Who is credited with inventing the telephone?",
		CorrectAnswer:    "Alexander Graham Bell",
		IncorrectAnswers: []string{"Thomas Edison", "Nikola Tesla", "Isaac Newton"},
		Category:         "History",
		Difficulty:       models.DifficultyMedium,
	},
	{
		QuestionText:     "What is the currency of Japan?",
		CorrectAnswer:    "Yen",
		IncorrectAnswers: []string{"Yuan", "Won", "Ringgit"},
		Category:         "Economics",
		Difficulty:       models.DifficultyEasy,
	},
	{
		QuestionText:     "How many sides does a hexagon have?",
		CorrectAnswer:    "6",
		IncorrectAnswers: []string{"5", "7", "8"},
		Category:         "Mathematics",
		Difficulty:       models.DifficultyEasy,
	},
	{
		QuestionText:     "Which gas do plants absorb from the atmosphere?",
		CorrectAnswer:    "Carbon dioxide",
		IncorrectAnswers: []string{"Oxygen", "Nitrogen", "Helium"},
		Category:         "Science",
		Difficulty:       models.DifficultyEasy,
	},
	{
		QuestionText:     "Which element has the chemical symbol Fe?",
		CorrectAnswer:    "Iron",
		IncorrectAnswers: []string{"Fluorine", "Lead", "Tin"},
		Category:         "Science",
		Difficulty:       models.DifficultyMedium,
	},
}

// SeedQuestions inserts the fallback bank when the questions table is empty.
func SeedQuestions(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Question{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if count > 0 {
		return nil
	}

	logger.Info("Seeding fallback trivia questions...", "count", len(fallbackQuestions))
	questions := make([]models.Question, len(fallbackQuestions))
	copy(questions, fallbackQuestions)
	return db.Create(&questions).Error
}
