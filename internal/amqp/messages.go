package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DocumentSavedMessage announces that the local budget document was saved
// Carries only counters, the worker re-reads the document before uploading
type DocumentSavedMessage struct {
	ID           string    `json:"id"`
	Version      int       `json:"version"`
	Transactions int       `json:"transactions"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewDocumentSavedMessage creates a save notification with a fresh message ID
func NewDocumentSavedMessage(version, transactions int) *DocumentSavedMessage {
	return &DocumentSavedMessage{
		ID:           uuid.NewString(),
		Version:      version,
		Transactions: transactions,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DocumentSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func DocumentSavedMessageFromJSON(data []byte) (*DocumentSavedMessage, error) {
	var msg DocumentSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
