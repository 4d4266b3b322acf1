package models

// Patient represents a patient's clinical profile. Ownership is fixed at
// creation time: the account that registered the profile holds the
// back-link and it is never re-assigned.
type Patient struct {
	BaseModel
	Name           string `gorm:"size:255;not null" json:"name"`
	Age            int    `json:"age"`
	Gender         string `gorm:"size:20" json:"gender"`
	Contact        string `gorm:"size:20" json:"contact"`
	Address        string `gorm:"size:255" json:"address,omitempty"`
	MedicalHistory string `gorm:"type:text" json:"medicalHistory,omitempty"`

	// Relations (not always preloaded)
	Appointments  []Appointment  `gorm:"foreignKey:PatientID" json:"-"`
	HealthRecords []HealthRecord `gorm:"foreignKey:PatientID" json:"-"`
}
