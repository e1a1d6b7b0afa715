package amqp

import (
	"encoding/json"
	"time"

	"it10bb/internal/core"
	"it10bb/internal/render"
)

// Error kinds carried by EstimateResultMessage.
const (
	ErrorKindInvalidInput = "invalid_input"
	ErrorKindDegenerate   = "degenerate_weights"
	ErrorKindInternal     = "internal"
	ErrorKindExport       = "export"
)

// EstimateRequestMessage asks a worker to allocate a household's expenses.
type EstimateRequestMessage struct {
	RequestID string       `json:"request_id"`
	Profile   core.Profile `json:"profile"`
	Export    bool         `json:"export,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// EstimateResultMessage is the worker's reply. Error without Report means the
// estimate itself failed; Error with Report means only the export failed.
type EstimateResultMessage struct {
	RequestID string         `json:"request_id"`
	Report    *render.Report `json:"report,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewEstimateRequestMessage(requestID string, p core.Profile, export bool) *EstimateRequestMessage {
	return &EstimateRequestMessage{
		RequestID: requestID,
		Profile:   p,
		Export:    export,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EstimateRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EstimateRequestMessageFromJSON creates a message from JSON bytes
func EstimateRequestMessageFromJSON(data []byte) (*EstimateRequestMessage, error) {
	var msg EstimateRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToJSON converts the message to JSON bytes
func (m *EstimateResultMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EstimateResultMessageFromJSON creates a message from JSON bytes
func EstimateResultMessageFromJSON(data []byte) (*EstimateResultMessage, error) {
	var msg EstimateResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Failed reports whether the worker could not produce a report.
func (m *EstimateResultMessage) Failed() bool {
	return m.Report == nil
}
