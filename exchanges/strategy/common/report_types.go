package common

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
)

var (
	// ErrReporterIsNil is returned when the reporter channel has already been
	// handed out and closed
	ErrReporterIsNil = errors.New("reporter is nil")
	// ErrInvalidUUID is returned when an activity holder is built without an
	// identifier
	ErrInvalidUUID = errors.New("invalid UUID")

	errActivitiesIsNil            = errors.New("activities is nil")
	errStrategyDescriptionIsEmpty = errors.New("strategy description is empty")
)

const defaultReporterBuffer = 1000

// Reason defines the type of report sent to a receiver
type Reason string

// Report reasons
const (
	Start       Reason = "STRATEGY START"
	SlicePlaced Reason = "SLICE PLACED"
	SliceFailed Reason = "SLICE FAILED"
	Wait        Reason = "STRATEGY WAITING"
	Info        Reason = "INFO"
	Complete    Reason = "STRATEGY COMPLETED"
	FatalError  Reason = "FATAL ERROR"
	ContextDone Reason = "CONTEXT DONE"
)

// Report defines a strategy action broadcast to a receiver
type Report struct {
	ID       uuid.UUID   `json:"id"`
	Strategy string      `json:"strategy"`
	Action   interface{} `json:"action,omitempty"`
	Finished bool        `json:"finished,omitempty"`
	Reason   Reason      `json:"reason"`
	Time     time.Time   `json:"time"`
}

// MessageAction is a plain text report payload
type MessageAction struct {
	Message string `json:"message"`
}

// SliceAction describes a single slice attempt
type SliceAction struct {
	Index   int    `json:"index"`
	OrderID string `json:"orderID,omitempty"`
	Size    string `json:"size"`
	Price   string `json:"price,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// WaitAction tells the receiver how long until the next slice
type WaitAction struct {
	Until string `json:"until"`
}

// CompleteAction carries the final status of an execution
type CompleteAction struct {
	Status string `json:"status"`
}

// ErrorAction carries an error
type ErrorAction struct {
	Error error `json:"error"`
}
