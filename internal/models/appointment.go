package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// transitions is the closed legality table for appointment status
// changes. COMPLETED and CANCELLED are terminal: no entry, no way out.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCompleted, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// Valid reports whether the status is one of the known states.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status machine permits s -> to.
func (s AppointmentStatus) CanTransitionTo(to AppointmentStatus) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is legal.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsActive reports whether the appointment still occupies its slot.
// Only active appointments count for slot-conflict detection.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// ActiveStatuses are the states that hold a doctor's slot.
func ActiveStatuses() []AppointmentStatus {
	return []AppointmentStatus{StatusPending, StatusConfirmed}
}

// Appointment represents a scheduled medical appointment
type Appointment struct {
	BaseModel
	PatientID string            `gorm:"size:64;index;not null" json:"patientId"`
	DoctorID  string            `gorm:"size:64;index:idx_doctor_slot,priority:1;not null" json:"doctorId"`
	DateTime  time.Time         `gorm:"index:idx_doctor_slot,priority:2" json:"dateTime"`
	Status    AppointmentStatus `gorm:"size:20;default:'PENDING';index" json:"status"`
	Reason    string            `gorm:"size:255" json:"reason"`

	// Relations
	Patient Patient `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"-"`
}
