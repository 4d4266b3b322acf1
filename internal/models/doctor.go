package models

// Doctor represents a doctor's profile. Same ownership rule as Patient:
// the registering account is linked once and for good.
type Doctor struct {
	BaseModel
	Name      string `gorm:"size:255;not null" json:"name"`
	Specialty string `gorm:"size:100;not null" json:"specialty"`
	Contact   string `gorm:"size:20" json:"contact,omitempty"`
	Email     string `gorm:"size:255" json:"email,omitempty"`
	Schedule  string `gorm:"type:text" json:"schedule,omitempty"` // free-text availability descriptor

	// Relations (not always preloaded)
	Appointments  []Appointment  `gorm:"foreignKey:DoctorID" json:"-"`
	HealthRecords []HealthRecord `gorm:"foreignKey:DoctorID" json:"-"`
}
