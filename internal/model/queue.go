package model

import (
	"time"

	"github.com/google/uuid"
)

type QueueEventType string

const (
	QueueEventTokenGenerated QueueEventType = "queue.token_generated"
	QueueEventPatientCalled  QueueEventType = "queue.patient_called"
	QueueEventCompleted      QueueEventType = "queue.consultation_completed"
	QueueEventCancelled      QueueEventType = "queue.appointment_cancelled"
)

// QueueEvent is the payload fanned out to every viewer of a date's queue.
type QueueEvent struct {
	Type          QueueEventType    `json:"type"`
	Date          string            `json:"date"`
	AppointmentID uuid.UUID         `json:"appointment_id"`
	TokenNumber   *int              `json:"token_number,omitempty"`
	Status        AppointmentStatus `json:"status"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// QueueChannel is the broker channel carrying QueueEvents for a date.
func QueueChannel(date string) string {
	return "queue:" + date
}

// QueueSnapshot partitions one date's appointments for display.
// Current is the at-most-one in-progress appointment, Next the waiting
// appointment with the smallest token.
type QueueSnapshot struct {
	Date      string         `json:"date"`
	Current   *Appointment   `json:"current,omitempty"`
	Next      *Appointment   `json:"next,omitempty"`
	Waiting   []*Appointment `json:"waiting"`
	Scheduled []*Appointment `json:"scheduled"`
	Completed []*Appointment `json:"completed"`
	Cancelled []*Appointment `json:"cancelled"`
}

// DisplayBoard is the unauthenticated waiting-room view: token numbers
// only, no patient identifiers.
type DisplayBoard struct {
	Date         string `json:"date"`
	CurrentToken *int   `json:"current_token,omitempty"`
	NextToken    *int   `json:"next_token,omitempty"`
	Waiting      int    `json:"waiting"`
}
