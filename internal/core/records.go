package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-records-server/internal/models"
	"clinic-records-server/internal/store"
)

// HealthRecords handles the clinical-record workflow. Records are
// written by doctors and never mutated from the clinical side; update
// and delete exist only as administrative overrides.
type HealthRecords struct {
	store   *store.Store
	guard   *Guard
	linkage *LinkageResolver
}

// NewHealthRecords creates a new HealthRecords service.
func NewHealthRecords(s *store.Store, guard *Guard, linkage *LinkageResolver) *HealthRecords {
	return &HealthRecords{store: s, guard: guard, linkage: linkage}
}

// RecordInput is the payload for creating or overriding a record.
type RecordInput struct {
	PatientID    string    `json:"patientId" binding:"required"`
	Date         time.Time `json:"date"`
	Symptoms     string    `json:"symptoms" binding:"required"`
	Diagnosis    string    `json:"diagnosis" binding:"required"`
	Treatment    string    `json:"treatment"`
	Prescription string    `json:"prescription"`
}

// Add appends a health record for a patient. Only a linked DOCTOR
// account may add records; the record's doctorId is always the
// session's own linked entity, never caller-supplied.
func (h *HealthRecords) Add(session Session, input RecordInput) (*models.HealthRecord, error) {
	scope, err := h.linkage.ResolveScope(session.AccountID)
	if err != nil {
		return nil, err
	}
	if scope.Role != models.RoleDoctor {
		return nil, Errorf(KindRoleMismatch, "only doctors may add health records")
	}
	if err := h.guard.Authorize(session, OpAddHealthRecord, scope.EntityID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Symptoms) == "" {
		return nil, Errorf(KindValidation, "symptoms are required")
	}
	if strings.TrimSpace(input.Diagnosis) == "" {
		return nil, Errorf(KindValidation, "diagnosis is required")
	}
	if _, err := h.store.Patients.Get(input.PatientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Errorf(KindNotFound, "patient %s not found", input.PatientID)
		}
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	record := &models.HealthRecord{
		BaseModel:    models.BaseModel{ID: models.NewID(models.PrefixHealthRecord)},
		PatientID:    input.PatientID,
		DoctorID:     scope.EntityID,
		RecordDate:   date,
		Symptoms:     input.Symptoms,
		Diagnosis:    input.Diagnosis,
		Treatment:    input.Treatment,
		Prescription: input.Prescription,
	}

	if err := h.store.HealthRecords.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Get returns a single record, subject to ownership: the record's own
// patient, any linked doctor, or an admin.
func (h *HealthRecords) Get(session Session, recordID string) (*models.HealthRecord, error) {
	record, err := h.get(recordID)
	if err != nil {
		return nil, err
	}
	if err := h.guard.Authorize(session, OpViewHealthRecords, record.PatientID); err != nil {
		return nil, err
	}
	return record, nil
}

// ListByPatient returns a patient's records sorted by date.
func (h *HealthRecords) ListByPatient(session Session, patientID string) ([]models.HealthRecord, error) {
	if err := h.guard.Authorize(session, OpViewHealthRecords, patientID); err != nil {
		return nil, err
	}
	return h.store.HealthRecords.ListByPatient(patientID)
}

// Update overwrites a record's clinical fields. Administrative override.
func (h *HealthRecords) Update(session Session, recordID string, input RecordInput) (*models.HealthRecord, error) {
	if err := h.guard.Authorize(session, OpAdminOverride, ""); err != nil {
		return nil, err
	}

	record, err := h.get(recordID)
	if err != nil {
		return nil, err
	}

	if !input.Date.IsZero() {
		record.RecordDate = input.Date
	}
	if input.Symptoms != "" {
		record.Symptoms = input.Symptoms
	}
	if input.Diagnosis != "" {
		record.Diagnosis = input.Diagnosis
	}
	if input.Treatment != "" {
		record.Treatment = input.Treatment
	}
	if input.Prescription != "" {
		record.Prescription = input.Prescription
	}

	if err := h.store.HealthRecords.Update(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a record. Administrative override.
func (h *HealthRecords) Delete(session Session, recordID string) error {
	if err := h.guard.Authorize(session, OpAdminOverride, ""); err != nil {
		return err
	}
	if err := h.store.HealthRecords.Delete(recordID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Errorf(KindNotFound, "health record %s not found", recordID)
		}
		return err
	}
	return nil
}

// HistoryReport renders a patient's demographics and full visit history
// as a plain-text report, one visit per section, in date order.
func (h *HealthRecords) HistoryReport(session Session, patientID string) (string, error) {
	if err := h.guard.Authorize(session, OpViewHealthRecords, patientID); err != nil {
		return "", err
	}

	patient, err := h.store.Patients.Get(patientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", Errorf(KindNotFound, "patient %s not found", patientID)
		}
		return "", err
	}
	records, err := h.store.HealthRecords.ListByPatient(patientID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("========================================\n")
	b.WriteString("    PATIENT HEALTH HISTORY REPORT\n")
	b.WriteString("========================================\n\n")

	b.WriteString("PATIENT INFORMATION:\n")
	b.WriteString("--------------------\n")
	fmt.Fprintf(&b, "Patient ID: %s\n", patient.ID)
	fmt.Fprintf(&b, "Name: %s\n", patient.Name)
	fmt.Fprintf(&b, "Age: %d years\n", patient.Age)
	fmt.Fprintf(&b, "Gender: %s\n", patient.Gender)
	fmt.Fprintf(&b, "Contact: %s\n\n", patient.Contact)

	b.WriteString("MEDICAL HISTORY:\n")
	b.WriteString("----------------\n")
	fmt.Fprintf(&b, "Total Visits: %d\n\n", len(records))

	if len(records) == 0 {
		b.WriteString("No medical records found.\n")
		return b.String(), nil
	}

	for i, record := range records {
		fmt.Fprintf(&b, "VISIT #%d\n", i+1)
		b.WriteString("--------\n")
		fmt.Fprintf(&b, "Record ID: %s\n", record.ID)
		fmt.Fprintf(&b, "Date: %s\n", record.RecordDate.Format("2006-01-02 15:04"))
		if doctor, err := h.store.Doctors.Get(record.DoctorID); err == nil {
			fmt.Fprintf(&b, "Doctor: %s (ID: %s)\n", doctor.Name, record.DoctorID)
		} else {
			fmt.Fprintf(&b, "Doctor ID: %s\n", record.DoctorID)
		}
		fmt.Fprintf(&b, "Symptoms: %s\n", record.Symptoms)
		fmt.Fprintf(&b, "Diagnosis: %s\n", record.Diagnosis)
		if record.Treatment != "" {
			fmt.Fprintf(&b, "Treatment: %s\n", record.Treatment)
		}
		if record.Prescription != "" {
			fmt.Fprintf(&b, "Prescription: %s\n", record.Prescription)
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

func (h *HealthRecords) get(recordID string) (*models.HealthRecord, error) {
	record, err := h.store.HealthRecords.Get(recordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Errorf(KindNotFound, "health record %s not found", recordID)
		}
		return nil, err
	}
	return record, nil
}
