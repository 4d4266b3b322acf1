package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"clinic-records-server/internal/models"
	"clinic-records-server/internal/store"
)

// fixture wires the core services over the in-memory store.
type fixture struct {
	store     *store.Store
	identity  *Identity
	linkage   *LinkageResolver
	guard     *Guard
	scheduler *Scheduler
	records   *HealthRecords
}

func newFixture() *fixture {
	s := store.NewMemory()
	linkage := NewLinkageResolver(s)
	guard := NewGuard(linkage)
	return &fixture{
		store:     s,
		identity:  NewIdentity(s),
		linkage:   linkage,
		guard:     guard,
		scheduler: NewScheduler(s, guard, linkage),
		records:   NewHealthRecords(s, guard, linkage),
	}
}

// newAccount seeds an account directly, skipping password hashing.
func (f *fixture) newAccount(t *testing.T, username string, role models.Role) Session {
	t.Helper()
	account := &models.Account{Username: username, Role: role, IsActive: true}
	require.NoError(t, f.store.Accounts.Create(account))
	return Session{AccountID: account.ID, Role: role}
}

// newPatient seeds a patient account with a linked profile and returns
// the session and patient ID.
func (f *fixture) newPatient(t *testing.T, username string) (Session, string) {
	t.Helper()
	session := f.newAccount(t, username, models.RolePatient)
	patient, err := f.linkage.LinkPatient(session, PatientProfile{
		Name:    "Patient " + username,
		Age:     34,
		Gender:  "F",
		Contact: "5550001000",
	})
	require.NoError(t, err)
	return session, patient.ID
}

// newDoctor seeds a doctor account with a linked profile and returns
// the session and doctor ID.
func (f *fixture) newDoctor(t *testing.T, username string) (Session, string) {
	t.Helper()
	session := f.newAccount(t, username, models.RoleDoctor)
	doctor, err := f.linkage.LinkDoctor(session, DoctorProfile{
		Name:      "Dr. " + username,
		Specialty: "General Medicine",
	})
	require.NoError(t, err)
	return session, doctor.ID
}

func (f *fixture) newAdmin(t *testing.T) Session {
	t.Helper()
	return f.newAccount(t, "admin", models.RoleAdmin)
}
