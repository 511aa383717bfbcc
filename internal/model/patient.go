package model

import "time"

// PatientRecord is a derived directory entry, not a persisted row. It is
// keyed by name+phone over the appointment history; the first appointment
// encountered in descending creation order wins and later duplicates are
// discarded without merging.
type PatientRecord struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Age       string    `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	LastVisit string    `json:"last_visit"`
	SeenAt    time.Time `json:"-"`
}

// PatientKey builds the compound natural key used for deduplication.
func PatientKey(name, phone string) string {
	return name + "-" + phone
}
