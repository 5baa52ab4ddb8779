package amqp

import (
	"encoding/json"
	"time"
)

// StateChangedMessage announces that a user's snapshot was written locally.
// It carries only the identity and version; the consumer fetches the full
// snapshot from the snapshot store.
type StateChangedMessage struct {
	UserID    string    `json:"userId"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStateChangedMessage(userID string, version int64) *StateChangedMessage {
	return &StateChangedMessage{
		UserID:    userID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
