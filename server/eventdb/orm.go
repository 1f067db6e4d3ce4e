package eventdb

import (
	"github.com/cyclopcam/dbh"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// Event is one operational event worth keeping: a config change, a stats
// reset, a pipeline start or stop, a model failure.
type Event struct {
	BaseModel
	Time      dbh.IntTime               `json:"time"`
	EventType string                    `json:"eventType"`
	Data      *dbh.JSONField[EventData] `json:"data,omitempty"`
}

// EventData is the freeform payload of an event. Which fields are populated
// depends on EventType.
type EventData struct {
	Message string             `json:"message,omitempty"`
	Values  map[string]float64 `json:"values,omitempty"`
	Detail  map[string]string  `json:"detail,omitempty"`
}

// Well-known event types
const (
	EventTypeStart        = "pipeline_start"
	EventTypeStop         = "pipeline_stop"
	EventTypeConfigChange = "config_change"
	EventTypeStatsReset   = "stats_reset"
	EventTypeModelError   = "model_error"
)
