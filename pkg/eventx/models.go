package eventx

import (
	"encoding/json"
	"time"
)

// Status represents the delivery state of an event
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusDelivered Status = "delivered"
	StatusRetrying  Status = "retrying"
	StatusDead      Status = "dead"
)

// Event is a store change notification to be delivered at least once
type Event struct {
	Type    string          `json:"type"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// MaxRetries bounds redelivery. Zero means the dispatcher default.
	MaxRetries int `json:"max_retries"`
}

// Delivery is an event as tracked by the queue
type Delivery struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Status     Status          `json:"status"`
	Error      string          `json:"error,omitempty"`
	MaxRetries int             `json:"max_retries"`
	Attempts   int             `json:"attempts"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Decode unmarshals the payload into v
func (d *Delivery) Decode(v interface{}) error {
	if len(d.Payload) == 0 {
		return eventxErrors.New(ErrEmptyPayload).WithDetail("event_id", d.ID)
	}
	if err := json.Unmarshal(d.Payload, v); err != nil {
		return eventxErrors.NewWithCause(ErrDecode, err).WithDetail("event_id", d.ID)
	}
	return nil
}

// NewEvent builds an event with a JSON payload
func NewEvent(eventType, key string, payload interface{}) (Event, error) {
	ev := Event{Type: eventType, Key: key}
	if payload == nil {
		return ev, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, eventxErrors.NewWithCause(ErrEncode, err).WithDetail("type", eventType)
	}
	ev.Payload = raw
	return ev, nil
}
