package models

import (
	"database/sql/driver"
	"encoding/json"
	"strconv"
	"time"
)

// Conversion represents the stored outcome of a finished conversion job
type Conversion struct {
	ID           string      `json:"id" db:"id"`
	JobID        string      `json:"job_id" db:"job_id"`
	SourceKey    string      `json:"source_key" db:"source_key"`
	ConvertedKey string      `json:"converted_key" db:"converted_key"`
	Converted    bool        `json:"converted" db:"converted"`
	Size         int64       `json:"size" db:"size"`
	Metadata     Metadata    `json:"metadata" db:"metadata"`
	Snapshots    SnapshotSet `json:"snapshots" db:"snapshots"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// Metadata holds probed media characteristics as loosely typed fields
type Metadata map[string]interface{}

// Value implements driver.Valuer for database storage
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// SnapshotSet maps a second offset to the storage key of the snapshot
// captured at that offset. Only successful captures are present.
type SnapshotSet map[int]string

// MarshalJSON encodes offsets as string keys so the set survives a JSON
// column round-trip.
func (s SnapshotSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(s))
	for offset, key := range s {
		out[strconv.Itoa(offset)] = key
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *SnapshotSet) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set := make(SnapshotSet, len(raw))
	for k, v := range raw {
		offset, err := strconv.Atoi(k)
		if err != nil {
			return err
		}
		set[offset] = v
	}
	*s = set
	return nil
}

// Value implements driver.Valuer for database storage
func (s SnapshotSet) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for database retrieval
func (s *SnapshotSet) Scan(value interface{}) error {
	if value == nil {
		*s = make(SnapshotSet)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, s)
}
