package runlog

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LogEntry is one logrus entry persisted by DBHook.
type LogEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RunID     string    `gorm:"index" json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Scenario  string    `json:"scenario"`
	Action    string    `json:"action"`
	Error     string    `json:"error"`
}

// ScenarioResult is the outcome of one test case.
type ScenarioResult struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	RunID      string        `gorm:"index" json:"run_id"`
	Name       string        `json:"name"`
	Target     string        `json:"target"`
	Passed     bool          `json:"passed"`
	Duration   time.Duration `json:"duration"`
	Screenshot string        `json:"screenshot"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Journal stores a run's log entries and scenario results in SQLite.
type Journal struct {
	DB    *gorm.DB
	RunID string
}

// OpenJournal opens (creating if needed) the SQLite journal at path.
func OpenJournal(path string) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	// Parallel tests share the journal; SQLite takes one writer at a time.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&LogEntry{}, &ScenarioResult{}); err != nil {
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return &Journal{DB: db, RunID: time.Now().UTC().Format("20060102T150405.000Z")}, nil
}

// Record stores the outcome of one scenario.
func (j *Journal) Record(res ScenarioResult) error {
	res.RunID = j.RunID
	if res.FinishedAt.IsZero() {
		res.FinishedAt = time.Now()
	}
	if err := j.DB.Create(&res).Error; err != nil {
		return fmt.Errorf("failed to save scenario result: %w", err)
	}
	return nil
}

// Results returns the scenario results of the current run, oldest first.
func (j *Journal) Results() ([]ScenarioResult, error) {
	var out []ScenarioResult
	err := j.DB.Where("run_id = ?", j.RunID).Order("id ASC").Find(&out).Error
	return out, err
}

// Close releases the underlying connection.
func (j *Journal) Close() error {
	sqlDB, err := j.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DBHook writes every logrus entry of the run to the journal.
type DBHook struct {
	Journal *Journal
}

// Fire records the entry in the database.
func (hook *DBHook) Fire(entry *logrus.Entry) error {
	if hook.Journal == nil || hook.Journal.DB == nil {
		return fmt.Errorf("journal is not initialized")
	}

	log := LogEntry{
		RunID:     hook.Journal.RunID,
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Scenario:  stringField(entry, "scenario"),
		Action:    stringField(entry, "action"),
	}
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		log.Error = err.Error()
	}

	if err := hook.Journal.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("failed to save log to database: %w", err)
	}
	return nil
}

// Levels implements logrus.Hook.
func (hook *DBHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func stringField(entry *logrus.Entry, key string) string {
	if v, ok := entry.Data[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}
