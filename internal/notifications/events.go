package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event categories delivered to users.
const (
	EventNewConnectionRequest = "new_connection_request"
	EventConnectionAccepted   = "connection_accepted"
	EventCodeRelated          = "code_related"
)

// Event is the envelope published on a user's channel.
type Event struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	RecipientID uint                   `json:"recipient_id"`
	Message     string                 `json:"message"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NewEvent builds an event with a fresh id.
func NewEvent(recipientID uint, eventType, message string, payload map[string]interface{}) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		RecipientID: recipientID,
		Message:     message,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}
}

// Encode returns the wire form of e.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
