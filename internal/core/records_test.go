package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-records-server/internal/models"
)

func recordInput(patientID string) RecordInput {
	return RecordInput{
		PatientID: patientID,
		Date:      time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
		Symptoms:  "persistent cough",
		Diagnosis: "bronchitis",
		Treatment: "rest and fluids",
	}
}

func TestAddHealthRecord(t *testing.T) {
	f := newFixture()
	_, patientID := f.newPatient(t, "jane")
	doctorSession, doctorID := f.newDoctor(t, "bob")

	record, err := f.records.Add(doctorSession, recordInput(patientID))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(record.ID, "R-"))
	assert.Equal(t, patientID, record.PatientID)
	// The author is always the session's own doctor.
	assert.Equal(t, doctorID, record.DoctorID)
	assert.Equal(t, "bronchitis", record.Diagnosis)
}

func TestAddHealthRecordDoctorOnly(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	admin := f.newAdmin(t)

	_, err := f.records.Add(patientSession, recordInput(patientID))
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)

	_, err = f.records.Add(admin, recordInput(patientID))
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)

	// An unlinked doctor account has no identity to write under.
	unlinked := f.newAccount(t, "newdoc", models.RoleDoctor)
	_, err = f.records.Add(unlinked, recordInput(patientID))
	assert.True(t, IsKind(err, KindNotOwner), "got %v", err)
}

func TestAddHealthRecordValidation(t *testing.T) {
	f := newFixture()
	_, patientID := f.newPatient(t, "jane")
	doctorSession, _ := f.newDoctor(t, "bob")

	input := recordInput(patientID)
	input.Symptoms = "  "
	_, err := f.records.Add(doctorSession, input)
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	input = recordInput(patientID)
	input.Diagnosis = ""
	_, err = f.records.Add(doctorSession, input)
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	_, err = f.records.Add(doctorSession, recordInput("P-missing"))
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}

func TestAddHealthRecordDefaultsDate(t *testing.T) {
	f := newFixture()
	_, patientID := f.newPatient(t, "jane")
	doctorSession, _ := f.newDoctor(t, "bob")

	input := recordInput(patientID)
	input.Date = time.Time{}
	record, err := f.records.Add(doctorSession, input)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), record.RecordDate, time.Minute)
}

func TestHealthRecordVisibility(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	otherPatient, _ := f.newPatient(t, "mallory")
	doctorSession, _ := f.newDoctor(t, "bob")
	otherDoctor, _ := f.newDoctor(t, "eve")
	admin := f.newAdmin(t)

	record, err := f.records.Add(doctorSession, recordInput(patientID))
	require.NoError(t, err)

	// The record's own patient, any linked doctor, and admins may read.
	for _, session := range []Session{patientSession, doctorSession, otherDoctor, admin} {
		got, err := f.records.Get(session, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)
	}

	// Another patient may not.
	_, err = f.records.Get(otherPatient, record.ID)
	assert.True(t, IsKind(err, KindNotOwner), "got %v", err)

	_, err = f.records.ListByPatient(otherPatient, patientID)
	assert.True(t, IsKind(err, KindNotOwner), "got %v", err)

	records, err := f.records.ListByPatient(patientSession, patientID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHealthRecordsListOrderedByDate(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	doctorSession, _ := f.newDoctor(t, "bob")

	later := recordInput(patientID)
	later.Date = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	later.Diagnosis = "follow-up"
	laterRecord, err := f.records.Add(doctorSession, later)
	require.NoError(t, err)

	earlier := recordInput(patientID)
	earlierRecord, err := f.records.Add(doctorSession, earlier)
	require.NoError(t, err)

	records, err := f.records.ListByPatient(patientSession, patientID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, earlierRecord.ID, records[0].ID)
	assert.Equal(t, laterRecord.ID, records[1].ID)
}

func TestHealthRecordAdminOverrides(t *testing.T) {
	f := newFixture()
	_, patientID := f.newPatient(t, "jane")
	doctorSession, _ := f.newDoctor(t, "bob")
	admin := f.newAdmin(t)

	record, err := f.records.Add(doctorSession, recordInput(patientID))
	require.NoError(t, err)

	// Clinical-side accounts cannot rewrite history.
	_, err = f.records.Update(doctorSession, record.ID, RecordInput{Diagnosis: "amended"})
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)

	updated, err := f.records.Update(admin, record.ID, RecordInput{Diagnosis: "amended"})
	require.NoError(t, err)
	assert.Equal(t, "amended", updated.Diagnosis)
	assert.Equal(t, "persistent cough", updated.Symptoms)

	err = f.records.Delete(doctorSession, record.ID)
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)

	require.NoError(t, f.records.Delete(admin, record.ID))
	err = f.records.Delete(admin, record.ID)
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}

func TestHistoryReport(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	doctorSession, doctorID := f.newDoctor(t, "bob")
	otherPatient, _ := f.newPatient(t, "mallory")

	first := recordInput(patientID)
	_, err := f.records.Add(doctorSession, first)
	require.NoError(t, err)

	second := recordInput(patientID)
	second.Date = first.Date.AddDate(0, 1, 0)
	second.Symptoms = "headache"
	second.Diagnosis = "migraine"
	second.Treatment = ""
	second.Prescription = "sumatriptan"
	_, err = f.records.Add(doctorSession, second)
	require.NoError(t, err)

	report, err := f.records.HistoryReport(patientSession, patientID)
	require.NoError(t, err)

	assert.Contains(t, report, "PATIENT HEALTH HISTORY REPORT")
	assert.Contains(t, report, "Patient ID: "+patientID)
	assert.Contains(t, report, "Name: Patient jane")
	assert.Contains(t, report, "Total Visits: 2")
	assert.Contains(t, report, "VISIT #1")
	assert.Contains(t, report, "VISIT #2")
	assert.Contains(t, report, "Doctor: Dr. bob (ID: "+doctorID+")")
	assert.Contains(t, report, "Diagnosis: bronchitis")
	assert.Contains(t, report, "Prescription: sumatriptan")
	// Visits appear in date order.
	assert.Less(t, strings.Index(report, "bronchitis"), strings.Index(report, "migraine"))

	// Ownership applies to the report too.
	_, err = f.records.HistoryReport(otherPatient, patientID)
	assert.True(t, IsKind(err, KindNotOwner), "got %v", err)
}

func TestHistoryReportEmpty(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")

	report, err := f.records.HistoryReport(patientSession, patientID)
	require.NoError(t, err)
	assert.Contains(t, report, "Total Visits: 0")
	assert.Contains(t, report, "No medical records found.")
}
