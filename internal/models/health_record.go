package models

import (
	"time"
)

// HealthRecord represents a clinical visit record. Records are written
// by doctors and are append-only from the clinical workflow's
// perspective; update and delete exist only as administrative overrides.
type HealthRecord struct {
	BaseModel
	PatientID    string    `gorm:"size:64;index;not null" json:"patientId"`
	DoctorID     string    `gorm:"size:64;index;not null" json:"doctorId"`
	RecordDate   time.Time `json:"date"`
	Symptoms     string    `gorm:"type:text" json:"symptoms"`
	Diagnosis    string    `gorm:"type:text" json:"diagnosis"`
	Treatment    string    `gorm:"type:text" json:"treatment,omitempty"`
	Prescription string    `gorm:"type:text" json:"prescription,omitempty"`

	// Relations
	Patient Patient `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"-"`
}
