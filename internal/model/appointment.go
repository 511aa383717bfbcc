package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled      AppointmentStatus = "scheduled"
	AppointmentStatusTokenGenerated AppointmentStatus = "token_generated"
	AppointmentStatusInProgress     AppointmentStatus = "in_progress"
	AppointmentStatusCompleted      AppointmentStatus = "completed"
	AppointmentStatusCancelled      AppointmentStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

type AppointmentType string

const (
	AppointmentTypeConsultation AppointmentType = "consultation"
	AppointmentTypeCheckup      AppointmentType = "checkup"
	AppointmentTypeEmergency    AppointmentType = "emergency"
	AppointmentTypeFollowup     AppointmentType = "followup"
)

// VitalSigns is captured free-text at the desk; no unit validation is applied.
type VitalSigns struct {
	BloodPressure string `db:"blood_pressure" json:"blood_pressure,omitempty"`
	HeartRate     string `db:"heart_rate" json:"heart_rate,omitempty"`
	Temperature   string `db:"temperature" json:"temperature,omitempty"`
	Weight        string `db:"weight" json:"weight,omitempty"`
}

// Appointment is one visit slot. Patient demographics are denormalized
// free text; DoctorID is the stable identifier and DoctorName a display
// cache kept for rows that predate id assignment.
type Appointment struct {
	Base
	PatientName    string            `db:"patient_name" json:"patient_name"`
	PatientAge     string            `db:"patient_age" json:"patient_age,omitempty"`
	PatientGender  string            `db:"patient_gender" json:"patient_gender,omitempty"`
	PatientPhone   string            `db:"patient_phone" json:"patient_phone"`
	PatientEmail   string            `db:"patient_email" json:"patient_email,omitempty"`
	DoctorID       *uuid.UUID        `db:"doctor_id" json:"doctor_id,omitempty"`
	DoctorName     string            `db:"doctor_name" json:"doctor_name"`
	Date           string            `db:"appointment_date" json:"appointment_date"`
	TimeSlot       string            `db:"time_slot" json:"time_slot,omitempty"`
	Type           AppointmentType   `db:"appointment_type" json:"appointment_type"`
	Status         AppointmentStatus `db:"status" json:"status"`
	TokenNumber    *int              `db:"token_number" json:"token_number,omitempty"`
	TokenIssuedAt  *time.Time        `db:"token_issued_at" json:"token_issued_at,omitempty"`
	Symptoms       string            `db:"symptoms" json:"symptoms,omitempty"`
	Notes          string            `db:"notes" json:"notes,omitempty"`
	MedicalHistory string            `db:"medical_history" json:"medical_history,omitempty"`
	Medications    string            `db:"medications" json:"medications,omitempty"`
	VitalSigns
}

type CreateAppointmentRequest struct {
	PatientName    string          `json:"patient_name" binding:"required"`
	PatientAge     string          `json:"patient_age"`
	PatientGender  string          `json:"patient_gender" binding:"omitempty,oneof=male female other"`
	PatientPhone   string          `json:"patient_phone" binding:"required"`
	PatientEmail   string          `json:"patient_email" binding:"omitempty,email"`
	DoctorID       *uuid.UUID      `json:"doctor_id"`
	DoctorName     string          `json:"doctor_name" binding:"required"`
	Date           string          `json:"appointment_date" binding:"required,dateonly"`
	TimeSlot       string          `json:"time_slot"`
	Type           AppointmentType `json:"appointment_type" binding:"required,oneof=consultation checkup emergency followup"`
	Symptoms       string          `json:"symptoms"`
	Notes          string          `json:"notes" binding:"max=2000"`
	MedicalHistory string          `json:"medical_history"`
	Medications    string          `json:"medications"`
	VitalSigns     VitalSigns      `json:"vital_signs"`
}

type UpdateAppointmentRequest struct {
	PatientName    *string          `json:"patient_name"`
	PatientAge     *string          `json:"patient_age"`
	PatientGender  *string          `json:"patient_gender" binding:"omitempty,oneof=male female other"`
	PatientPhone   *string          `json:"patient_phone"`
	PatientEmail   *string          `json:"patient_email" binding:"omitempty,email"`
	DoctorID       *uuid.UUID       `json:"doctor_id"`
	DoctorName     *string          `json:"doctor_name"`
	Date           *string          `json:"appointment_date" binding:"omitempty,dateonly"`
	TimeSlot       *string          `json:"time_slot"`
	Type           *AppointmentType `json:"appointment_type" binding:"omitempty,oneof=consultation checkup emergency followup"`
	Symptoms       *string          `json:"symptoms"`
	Notes          *string          `json:"notes"`
	MedicalHistory *string          `json:"medical_history"`
	Medications    *string          `json:"medications"`
	VitalSigns     *VitalSigns      `json:"vital_signs"`
}

type AppointmentFilters struct {
	Date       string
	DoctorID   *uuid.UUID
	DoctorName string
	Status     AppointmentStatus
}
