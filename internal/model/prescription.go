package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	PrescriptionStatusActive       PrescriptionStatus = "active"
	PrescriptionStatusCompleted    PrescriptionStatus = "completed"
	PrescriptionStatusDiscontinued PrescriptionStatus = "discontinued"
	PrescriptionStatusPending      PrescriptionStatus = "pending"
)

type MedicineTiming string

const (
	TimingBeforeMeal   MedicineTiming = "before_meal"
	TimingAfterMeal    MedicineTiming = "after_meal"
	TimingEmptyStomach MedicineTiming = "empty_stomach"
	TimingBedtime      MedicineTiming = "bedtime"
	TimingAsNeeded     MedicineTiming = "as_needed"
)

// MedicineLine is one prescribed medicine. MedicineID references the
// catalog; name and category are captured at prescription time.
type MedicineLine struct {
	MedicineID   uuid.UUID      `json:"medicine_id" binding:"required"`
	Name         string         `json:"name" binding:"required"`
	Category     string         `json:"category"`
	Dosage       string         `json:"dosage" binding:"required"`
	Frequency    string         `json:"frequency"`
	Duration     string         `json:"duration"`
	Timing       MedicineTiming `json:"timing" binding:"omitempty,oneof=before_meal after_meal empty_stomach bedtime as_needed"`
	Instructions string         `json:"instructions"`
}

// MedicineLines is stored as a JSONB column.
type MedicineLines []MedicineLine

func (m MedicineLines) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *MedicineLines) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported medicine lines type %T", src)
	}
}

// Prescription duplicates patient demographics at creation time rather
// than referencing them; edits are in place, there is no versioning.
type Prescription struct {
	Base
	AppointmentID *uuid.UUID         `db:"appointment_id" json:"appointment_id,omitempty"`
	PatientName   string             `db:"patient_name" json:"patient_name"`
	PatientAge    string             `db:"patient_age" json:"patient_age,omitempty"`
	PatientGender string             `db:"patient_gender" json:"patient_gender,omitempty"`
	PatientPhone  string             `db:"patient_phone" json:"patient_phone"`
	PatientEmail  string             `db:"patient_email" json:"patient_email,omitempty"`
	DoctorID      *uuid.UUID         `db:"doctor_id" json:"doctor_id,omitempty"`
	DoctorName    string             `db:"doctor_name" json:"doctor_name"`
	Diagnosis     string             `db:"diagnosis" json:"diagnosis,omitempty"`
	Symptoms      string             `db:"symptoms" json:"symptoms,omitempty"`
	Medicines     MedicineLines      `db:"medicines" json:"medicines"`
	Instructions  string             `db:"instructions" json:"instructions,omitempty"`
	FollowUpDate  string             `db:"follow_up_date" json:"follow_up_date,omitempty"`
	Status        PrescriptionStatus `db:"status" json:"status"`
	Notes         string             `db:"notes" json:"notes,omitempty"`
}

type CreatePrescriptionRequest struct {
	AppointmentID *uuid.UUID     `json:"appointment_id"`
	PatientName   string         `json:"patient_name" binding:"required"`
	PatientAge    string         `json:"patient_age"`
	PatientGender string         `json:"patient_gender"`
	PatientPhone  string         `json:"patient_phone" binding:"required"`
	PatientEmail  string         `json:"patient_email" binding:"omitempty,email"`
	Diagnosis     string         `json:"diagnosis"`
	Symptoms      string         `json:"symptoms"`
	Medicines     []MedicineLine `json:"medicines" binding:"required,min=1,dive"`
	Instructions  string         `json:"instructions"`
	FollowUpDate  string         `json:"follow_up_date" binding:"omitempty,dateonly"`
	Notes         string         `json:"notes"`
}

type UpdatePrescriptionRequest struct {
	Diagnosis    *string             `json:"diagnosis"`
	Symptoms     *string             `json:"symptoms"`
	Medicines    []MedicineLine      `json:"medicines" binding:"omitempty,min=1,dive"`
	Instructions *string             `json:"instructions"`
	FollowUpDate *string             `json:"follow_up_date" binding:"omitempty,dateonly"`
	Status       *PrescriptionStatus `json:"status" binding:"omitempty,oneof=active completed discontinued pending"`
	Notes        *string             `json:"notes"`
}

type PrescriptionFilters struct {
	DoctorID   *uuid.UUID
	DoctorName string
	Status     PrescriptionStatus
	PatientKey string
}
