// Package store provides keyed persistence for accounts, patients,
// doctors, appointments and health records. It exposes plain CRUD plus
// the handful of atomic primitives the core's concurrency rules need
// (linked-entity compare-and-swap, slot-unique appointment insert,
// status compare-and-swap). Business rules live in core, not here.
package store

import (
	"errors"

	"clinic-records-server/internal/models"
)

// Sentinel errors returned by store implementations. The core maps
// these to its machine-readable error kinds.
var (
	ErrNotFound      = errors.New("store: record not found")
	ErrDuplicate     = errors.New("store: duplicate key")
	ErrAlreadyLinked = errors.New("store: account already linked")
	ErrSlotTaken     = errors.New("store: slot already taken")
	ErrStateConflict = errors.New("store: state conflict")
)

// AccountStore persists login accounts and owns the account->entity
// linkage primitive.
type AccountStore interface {
	Create(a *models.Account) error
	GetByID(id string) (*models.Account, error)
	GetByUsername(username string) (*models.Account, error)
	Update(a *models.Account) error

	// LinkPatient atomically creates the patient record and sets the
	// account's linked entity ID. Fails with ErrAlreadyLinked when the
	// account holds a link, ErrNotFound when the account is unknown.
	// Either both writes commit or neither does.
	LinkPatient(accountID string, p *models.Patient) error
	// LinkDoctor is the doctor-side counterpart of LinkPatient.
	LinkDoctor(accountID string, d *models.Doctor) error
}

// PatientStore persists patient profiles. Create exists for seeding
// free-standing records; the usual path is AccountStore.LinkPatient.
type PatientStore interface {
	Create(p *models.Patient) error
	Get(id string) (*models.Patient, error)
	List() ([]models.Patient, error)
	Update(p *models.Patient) error
	Delete(id string) error
}

// DoctorStore persists doctor profiles.
type DoctorStore interface {
	Create(d *models.Doctor) error
	Get(id string) (*models.Doctor, error)
	List() ([]models.Doctor, error)
	Update(d *models.Doctor) error
	Delete(id string) error
}

// AppointmentFilter narrows List results. Zero fields are ignored.
type AppointmentFilter struct {
	PatientID string
	DoctorID  string
	Status    models.AppointmentStatus
}

// AppointmentStore persists appointments. Create and UpdateStatusFrom
// are atomic with respect to concurrent calls on the same doctor/slot
// or the same appointment.
type AppointmentStore interface {
	// Create inserts a new appointment. Fails with ErrSlotTaken when an
	// appointment in an active state already holds (DoctorID, DateTime).
	// The check and the insert happen in one transaction.
	Create(a *models.Appointment) error
	Get(id string) (*models.Appointment, error)
	List(f AppointmentFilter) ([]models.Appointment, error)

	// UpdateStatusFrom sets the appointment's status to `to` only if the
	// current status is one of `from` (a compare-and-swap). Returns the
	// updated appointment, ErrNotFound for an unknown ID, or
	// ErrStateConflict when the current status is outside `from`.
	UpdateStatusFrom(id string, to models.AppointmentStatus, from ...models.AppointmentStatus) (*models.Appointment, error)

	// Delete removes the row outright, whatever its state.
	Delete(id string) error
}

// HealthRecordStore persists clinical visit records.
type HealthRecordStore interface {
	Create(r *models.HealthRecord) error
	Get(id string) (*models.HealthRecord, error)
	ListByPatient(patientID string) ([]models.HealthRecord, error)
	ListByDoctor(doctorID string) ([]models.HealthRecord, error)
	Update(r *models.HealthRecord) error
	Delete(id string) error
}

// RefreshTokenStore persists issued refresh tokens.
type RefreshTokenStore interface {
	Create(t *models.RefreshToken) error
	// GetActive returns the token row if it exists, is not revoked and
	// has not expired. accountID may be "" to match any account.
	GetActive(token, accountID string) (*models.RefreshToken, error)
	Revoke(t *models.RefreshToken) error
}

// Store bundles the per-collection stores behind one handle.
type Store struct {
	Accounts      AccountStore
	Patients      PatientStore
	Doctors       DoctorStore
	Appointments  AppointmentStore
	HealthRecords HealthRecordStore
	RefreshTokens RefreshTokenStore
}
