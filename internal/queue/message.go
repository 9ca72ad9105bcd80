package queue

import "encoding/json"

// EventDocumentIngested is published once per stored document.
const EventDocumentIngested = "document.ingested"

// MessageVersion is bumped whenever Message changes shape.
const MessageVersion = 1

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Type        string `json:"type"`
	DocumentID  int64  `json:"documentId"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	StorageKey  string `json:"storageKey,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
	RequestID   string `json:"requestId,omitempty"`
	EnqueuedAt  string `json:"enqueuedAt"`
	Version     int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
