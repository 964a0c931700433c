package amqp

import (
	"encoding/json"
	"time"

	"finly/internal/notify"
)

// ChangeMessage is the wire form of a change event, timestamped at publish
// time so consumers can order refreshes.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage wraps a hub event for publishing.
func NewChangeMessage(ev notify.Event) *ChangeMessage {
	return &ChangeMessage{
		Entity:    ev.Entity,
		Op:        ev.Op,
		ID:        ev.ID,
		OwnerID:   ev.OwnerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
