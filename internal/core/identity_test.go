package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-records-server/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture()

	account, err := f.identity.Register("jane", "secret123", models.RolePatient, "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, models.RolePatient, account.Role)
	assert.True(t, account.IsActive)
	assert.Nil(t, account.LinkedEntityID)
	assert.NotEqual(t, "secret123", account.PasswordHash)

	logged, err := f.identity.Login("jane", "secret123")
	require.NoError(t, err)
	assert.Equal(t, account.ID, logged.ID)
	assert.NotNil(t, logged.LastLogin)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture()

	_, err := f.identity.Register("  ", "secret123", models.RolePatient, "", nil)
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	_, err = f.identity.Register("jane", "short", models.RolePatient, "", nil)
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	_, err = f.identity.Register("jane", "secret123", models.Role("NURSE"), "", nil)
	assert.True(t, IsKind(err, KindValidation), "got %v", err)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newFixture()

	_, err := f.identity.Register("jane", "secret123", models.RolePatient, "", nil)
	require.NoError(t, err)

	_, err = f.identity.Register("jane", "another-pass", models.RoleDoctor, "", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation), "got %v", err)
	assert.Contains(t, err.Error(), "username already exists")
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture()

	_, err := f.identity.Register("jane", "secret123", models.RolePatient, "", nil)
	require.NoError(t, err)

	// Unknown username and wrong password are indistinguishable.
	_, unknownErr := f.identity.Login("nobody", "secret123")
	_, wrongErr := f.identity.Login("jane", "wrong-pass")
	assert.True(t, IsKind(unknownErr, KindInvalidCredentials), "got %v", unknownErr)
	assert.True(t, IsKind(wrongErr, KindInvalidCredentials), "got %v", wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture()

	account, err := f.identity.Register("jane", "secret123", models.RolePatient, "", nil)
	require.NoError(t, err)

	account.IsActive = false
	require.NoError(t, f.store.Accounts.Update(account))

	_, err = f.identity.Login("jane", "secret123")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation), "got %v", err)
}

func TestRegisterPreLinkedRequiresAdmin(t *testing.T) {
	f := newFixture()
	_, patientID := f.newPatient(t, "existing")

	_, err := f.identity.Register("imported", "secret123", models.RolePatient, patientID, nil)
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)

	patientActor, _ := f.newPatient(t, "sneaky")
	_, err = f.identity.Register("imported", "secret123", models.RolePatient, patientID, &patientActor)
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)
}

func TestRegisterPreLinkedByAdmin(t *testing.T) {
	f := newFixture()
	admin := f.newAdmin(t)

	// Seed a free-standing patient record, the migration case.
	patient := &models.Patient{
		BaseModel: models.BaseModel{ID: models.NewID(models.PrefixPatient)},
		Name:      "Imported Patient", Age: 60, Gender: "M", Contact: "5550009999",
	}
	require.NoError(t, f.store.Patients.Create(patient))

	account, err := f.identity.Register("imported", "secret123", models.RolePatient, patient.ID, &admin)
	require.NoError(t, err)
	require.NotNil(t, account.LinkedEntityID)
	assert.Equal(t, patient.ID, *account.LinkedEntityID)

	scope, err := f.linkage.ResolveScope(account.ID)
	require.NoError(t, err)
	assert.Equal(t, patient.ID, scope.EntityID)
}

func TestRegisterPreLinkedRejectsMismatchedEntity(t *testing.T) {
	f := newFixture()
	admin := f.newAdmin(t)
	_, doctorID := f.newDoctor(t, "bob")

	// A doctor ID cannot back a PATIENT account.
	_, err := f.identity.Register("imported", "secret123", models.RolePatient, doctorID, &admin)
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	// The entity must exist.
	_, err = f.identity.Register("imported", "secret123", models.RolePatient, "P-does-not-exist", &admin)
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)

	// Admin accounts are never linked.
	_, err = f.identity.Register("root2", "secret123", models.RoleAdmin, doctorID, &admin)
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)
}

func TestSetActive(t *testing.T) {
	f := newFixture()

	account, err := f.identity.Register("jane", "secret123", models.RolePatient, "", nil)
	require.NoError(t, err)

	deactivated, err := f.identity.SetActive(account.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	_, err = f.identity.Login("jane", "secret123")
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	_, err = f.identity.SetActive(account.ID, true)
	require.NoError(t, err)
	logged, err := f.identity.Login("jane", "secret123")
	require.NoError(t, err)
	assert.True(t, logged.IsActive)

	_, err = f.identity.SetActive("no-such-id", false)
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}

func TestIdentityGet(t *testing.T) {
	f := newFixture()

	account, err := f.identity.Register("jane", "secret123", models.RolePatient, "", nil)
	require.NoError(t, err)

	got, err := f.identity.Get(account.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", got.Username)

	_, err = f.identity.Get("no-such-id")
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}
