package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodOnline PaymentMethod = "online"
)

type InvoiceItem struct {
	Description string  `json:"description" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"gte=0"`
}

func (i InvoiceItem) Amount() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// InvoiceItems is stored as a JSONB column.
type InvoiceItems []InvoiceItem

func (it InvoiceItems) Value() (driver.Value, error) {
	return json.Marshal(it)
}

func (it *InvoiceItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*it = nil
		return nil
	case []byte:
		return json.Unmarshal(v, it)
	case string:
		return json.Unmarshal([]byte(v), it)
	default:
		return fmt.Errorf("unsupported invoice items type %T", src)
	}
}

type Invoice struct {
	Base
	InvoiceNumber string         `db:"invoice_number" json:"invoice_number"`
	AppointmentID *uuid.UUID     `db:"appointment_id" json:"appointment_id,omitempty"`
	PatientName   string         `db:"patient_name" json:"patient_name"`
	PatientPhone  string         `db:"patient_phone" json:"patient_phone"`
	DoctorName    string         `db:"doctor_name" json:"doctor_name,omitempty"`
	Items         InvoiceItems   `db:"items" json:"items"`
	Subtotal      float64        `db:"subtotal" json:"subtotal"`
	Tax           float64        `db:"tax" json:"tax"`
	Discount      float64        `db:"discount" json:"discount"`
	Total         float64        `db:"total" json:"total"`
	Status        InvoiceStatus  `db:"status" json:"status"`
	PaymentMethod *PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	DueDate       string         `db:"due_date" json:"due_date,omitempty"`
	PaidAt        *time.Time     `db:"paid_at" json:"paid_at,omitempty"`
}

// Payment is persisted separately and references its invoice.
type Payment struct {
	Base
	InvoiceID uuid.UUID     `db:"invoice_id" json:"invoice_id"`
	Amount    float64       `db:"amount" json:"amount"`
	Method    PaymentMethod `db:"method" json:"method"`
	Reference string        `db:"reference" json:"reference,omitempty"`
	PaidAt    time.Time     `db:"paid_at" json:"paid_at"`
}

type CreateInvoiceRequest struct {
	AppointmentID *uuid.UUID    `json:"appointment_id"`
	PatientName   string        `json:"patient_name" binding:"required"`
	PatientPhone  string        `json:"patient_phone" binding:"required"`
	DoctorName    string        `json:"doctor_name"`
	Items         []InvoiceItem `json:"items" binding:"required,min=1,dive"`
	Tax           float64       `json:"tax" binding:"gte=0"`
	Discount      float64       `json:"discount" binding:"gte=0"`
	DueDate       string        `json:"due_date" binding:"omitempty,dateonly"`
}

type RecordPaymentRequest struct {
	Amount    float64       `json:"amount" binding:"required,gt=0"`
	Method    PaymentMethod `json:"method" binding:"required,oneof=cash card online"`
	Reference string        `json:"reference"`
}

type InvoiceFilters struct {
	Status       InvoiceStatus
	PatientPhone string
	DoctorName   string
}
