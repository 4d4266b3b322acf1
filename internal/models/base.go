package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// ID prefixes per entity kind. Patient and doctor IDs carry distinct
// prefixes so an account's linked entity is identifiable from the ID alone.
const (
	PrefixPatient      = "P"
	PrefixDoctor       = "D"
	PrefixAppointment  = "A"
	PrefixHealthRecord = "R"
)

// NewID generates a prefixed entity ID, e.g. "P-<uuid>" for patients.
func NewID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

// InitDB initializes database connection
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	// TranslateError turns the driver's duplicate-key errors into
	// gorm.ErrDuplicatedKey so the store layer can map them.
	db, err := gorm.Open(mysql.Open(config.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto migrate the database models
	err = db.AutoMigrate(
		&Account{},
		&RefreshToken{},
		&Patient{},
		&Doctor{},
		&Appointment{},
		&HealthRecord{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN string
}
