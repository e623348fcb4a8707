package amqp

import (
	"encoding/json"
	"time"
)

// EntrySyncMessage asks the worker to mirror one log entry to the
// timesheet. Only ID and version travel on the wire; the worker fetches
// the current row from the database.
type EntrySyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(id, version int64) *EntrySyncMessage {
	return &EntrySyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EntryDeleteMessage asks the worker to remove a mirrored entry. The
// row is already soft-deleted locally, so the identifying fields are
// carried in the message itself.
type EntryDeleteMessage struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryDeleteMessage(id int64, date string) *EntryDeleteMessage {
	return &EntryDeleteMessage{
		ID:        id,
		Date:      date,
		Timestamp: time.Now(),
	}
}

func (m *EntryDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryDeleteMessageFromJSON(data []byte) (*EntryDeleteMessage, error) {
	var msg EntryDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
