package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"paycycle/internal/core"
)

// RolloverDueMessage asks the rollover worker to advance a user's pay
// anchor. It carries the anchor observed by the publisher so the worker can
// detect that another delivery already applied it.
type RolloverDueMessage struct {
	MessageID string    `json:"messageId"`
	UserID    string    `json:"userId"`
	Anchor    string    `json:"anchor"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRolloverDueMessage creates a message for the given stale anchor
func NewRolloverDueMessage(userID string, anchor core.Date) *RolloverDueMessage {
	return &RolloverDueMessage{
		MessageID: uuid.NewString(),
		UserID:    userID,
		Anchor:    anchor.String(),
		Timestamp: time.Now(),
	}
}

// AnchorDate parses the carried anchor.
func (m *RolloverDueMessage) AnchorDate() (core.Date, error) {
	return core.ParseDate(m.Anchor)
}

// ToJSON converts the message to JSON bytes
func (m *RolloverDueMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RolloverDueMessageFromJSON decodes and checks a message body.
func RolloverDueMessageFromJSON(data []byte) (*RolloverDueMessage, error) {
	var msg RolloverDueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, fmt.Errorf("rollover message without user id")
	}
	if _, err := msg.AnchorDate(); err != nil {
		return nil, fmt.Errorf("rollover message anchor: %w", err)
	}
	return &msg, nil
}
