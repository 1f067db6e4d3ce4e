package eventdb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// EventDB stores operational events (config changes, resets, model failures)
// in a local sqlite database, so they survive restarts and can be inspected
// over the API.
type EventDB struct {
	Log logs.Log
	DB  *gorm.DB
}

// Open or create the event DB inside root
func Open(logger logs.Log, root string) (*EventDB, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0777); err != nil {
		return nil, fmt.Errorf("Failed to create event storage path '%v': %w", root, err)
	}
	dbPath := filepath.Join(root, "events.sqlite")
	db, err := dbh.OpenDB(logger, dbh.MakeSqliteConfig(dbPath), Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open database %v: %w", dbPath, err)
	}
	return &EventDB{
		Log: logger,
		DB:  db,
	}, nil
}

// AddEvent records one event. data may be nil.
func (e *EventDB) AddEvent(eventType string, data *EventData) error {
	ev := &Event{
		Time:      dbh.MakeIntTime(time.Now()),
		EventType: eventType,
	}
	if data != nil {
		ev.Data = dbh.MakeJSONField(*data)
	}
	if err := e.DB.Create(ev).Error; err != nil {
		return fmt.Errorf("Failed to save event %v: %w", eventType, err)
	}
	return nil
}

// Latest returns the most recent events, newest first
func (e *EventDB) Latest(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	events := []Event{}
	if err := e.DB.Order("time DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// EventsSince returns events at or after the given time, oldest first
func (e *EventDB) EventsSince(since time.Time) ([]Event, error) {
	events := []Event{}
	if err := e.DB.Where("time >= ?", since.UnixMilli()).Order("time ASC, id ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (e *EventDB) Close() {
	if sqlDB, err := e.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
