package activitylogger

import (
	"log"

	"github.com/pocketbase/pocketbase/daos"
	"github.com/pocketbase/pocketbase/models"
)

// daoProvider is an interface that matches the methods we need from
// pocketbase.PocketBase to allow for easier testing.
type daoProvider interface {
	Dao() *daos.Dao
}

// Logger records notable application events (Spotify connects, token
// refreshes, album materializations) to the console and the
// activity_logs collection.
type Logger struct {
	app daoProvider
}

// New creates a new activity logger instance
func New(app daoProvider) *Logger {
	return &Logger{app: app}
}

// Record logs an event to both the console and the activity_logs
// collection. Persistence failures are logged but never propagate; the
// operation being logged must not fail because of its audit trail.
func (l *Logger) Record(level, message, source string) {
	log.Printf("ACTIVITY [%s] [%s] %s", level, source, message)

	if err := l.saveToDatabase(level, message, source); err != nil {
		log.Printf("Failed to save activity log record: %v", err)
	}
}

// Info is shorthand for Record("info", ...).
func (l *Logger) Info(message, source string) {
	l.Record("info", message, source)
}

// Error is shorthand for Record("error", ...).
func (l *Logger) Error(message, source string) {
	l.Record("error", message, source)
}

func (l *Logger) saveToDatabase(level, message, source string) error {
	collection, err := l.app.Dao().FindCollectionByNameOrId("activity_logs")
	if err != nil {
		return err
	}

	record := models.NewRecord(collection)
	record.Set("level", level)
	record.Set("message", message)
	record.Set("source", source)

	return l.app.Dao().SaveRecord(record)
}
