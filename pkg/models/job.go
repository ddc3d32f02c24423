package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ConversionJob represents one requested video conversion
type ConversionJob struct {
	ID          string        `json:"id" db:"id"`
	SourceKey   string        `json:"source_key" db:"source_key"`
	OutputName  string        `json:"output_name" db:"output_name"`
	Status      string        `json:"status" db:"status"`
	Priority    int           `json:"priority" db:"priority"`
	Progress    int           `json:"progress" db:"progress"`
	ErrorMsg    string        `json:"error_msg,omitempty" db:"error_msg"`
	RetryCount  int           `json:"retry_count" db:"retry_count"`
	WorkerID    string        `json:"worker_id,omitempty" db:"worker_id"`
	StartedAt   *time.Time    `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
	Config      ConvertConfig `json:"config" db:"config"`
}

// ConvertConfig holds conversion parameters for a job
type ConvertConfig struct {
	Preset        string `json:"preset"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	SampleRate    int    `json:"sample_rate,omitempty"`
	OutputFormat  string `json:"output_format,omitempty"`
	SnapshotCount int    `json:"snapshot_count,omitempty"`
}

// Value implements driver.Valuer for database storage
func (cc ConvertConfig) Value() (driver.Value, error) {
	return json.Marshal(cc)
}

// Scan implements sql.Scanner for database retrieval
func (cc *ConvertConfig) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, cc)
}

// JobStatus constants
const (
	JobStatusPending    = "pending"
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// JobPriority constants
const (
	JobPriorityLow    = 0
	JobPriorityNormal = 5
	JobPriorityHigh   = 10
)
