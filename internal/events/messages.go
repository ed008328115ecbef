package events

import (
	"encoding/json"
	"time"
)

// Record change actions carried on the wire.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Record types carried on the wire.
const (
	TypeFuel        = "fuel"
	TypeMaintenance = "maintenance"
)

// RecordChange announces one record mutation. The audit worker consumes
// these and appends them to the audit log.
type RecordChange struct {
	RecordType string    `json:"record_type"`
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewRecordChange stamps a change message with the current time.
func NewRecordChange(recordType, recordID, userID, action string) RecordChange {
	return RecordChange{
		RecordType: recordType,
		RecordID:   recordID,
		UserID:     userID,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON serializes the message for publishing.
func (m RecordChange) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeFromJSON deserializes a consumed message body.
func RecordChangeFromJSON(body []byte) (*RecordChange, error) {
	var m RecordChange
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
