package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is the envelope this service publishes. Key is the partition key
// (booking id), keeping every event for one booking on one partition.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSource        = "source"
	HeaderSchemaVersion = "schema-version"
)

// NewJSONMessage marshals payload and stamps the standard headers.
func NewJSONMessage(key, eventType, source string, payload any) (Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Key:   key,
		Value: value,
		Headers: map[string]string{
			HeaderEventID:       uuid.New().String(),
			HeaderEventType:     eventType,
			HeaderSource:        source,
			HeaderSchemaVersion: "1",
		},
		Timestamp: time.Now().UTC(),
	}, nil
}
