package core

import (
	"errors"
	"regexp"
	"strings"

	"clinic-records-server/internal/models"
	"clinic-records-server/internal/store"
)

var contactPattern = regexp.MustCompile(`^\d{10}$`)

// LinkageResolver enforces the one-account-to-one-entity rule. Linking
// creates the clinical record and back-links the account in a single
// atomic store operation; once linked, ownership never changes.
type LinkageResolver struct {
	store *store.Store
}

// NewLinkageResolver creates a new LinkageResolver.
func NewLinkageResolver(s *store.Store) *LinkageResolver {
	return &LinkageResolver{store: s}
}

// PatientProfile is the registration payload for a patient record.
type PatientProfile struct {
	Name           string `json:"name" binding:"required"`
	Age            int    `json:"age"`
	Gender         string `json:"gender" binding:"required"`
	Contact        string `json:"contact" binding:"required"`
	Address        string `json:"address"`
	MedicalHistory string `json:"medicalHistory"`
}

// DoctorProfile is the registration payload for a doctor record.
type DoctorProfile struct {
	Name      string `json:"name" binding:"required"`
	Specialty string `json:"specialty" binding:"required"`
	Contact   string `json:"contact"`
	Email     string `json:"email"`
	Schedule  string `json:"schedule"`
}

// LinkPatient registers a patient profile for the session's account and
// returns the new patient ID. Fails with AlreadyLinked if the account
// holds a link, RoleMismatch unless the account role is PATIENT.
func (r *LinkageResolver) LinkPatient(session Session, profile PatientProfile) (*models.Patient, error) {
	if !session.Valid() {
		return nil, Errorf(KindUnauthenticated, "authentication required")
	}
	if session.Role != models.RolePatient {
		return nil, Errorf(KindRoleMismatch, "only a PATIENT account can register a patient profile")
	}
	if err := validatePatientProfile(profile); err != nil {
		return nil, err
	}

	patient := &models.Patient{
		BaseModel:      models.BaseModel{ID: models.NewID(models.PrefixPatient)},
		Name:           strings.TrimSpace(profile.Name),
		Age:            profile.Age,
		Gender:         profile.Gender,
		Contact:        profile.Contact,
		Address:        profile.Address,
		MedicalHistory: profile.MedicalHistory,
	}

	if err := r.store.Accounts.LinkPatient(session.AccountID, patient); err != nil {
		return nil, translateLinkErr(err)
	}
	return patient, nil
}

// LinkDoctor registers a doctor profile for the session's account and
// returns the new doctor ID. Same contract as LinkPatient, keyed on the
// DOCTOR role.
func (r *LinkageResolver) LinkDoctor(session Session, profile DoctorProfile) (*models.Doctor, error) {
	if !session.Valid() {
		return nil, Errorf(KindUnauthenticated, "authentication required")
	}
	if session.Role != models.RoleDoctor {
		return nil, Errorf(KindRoleMismatch, "only a DOCTOR account can register a doctor profile")
	}
	if err := validateDoctorProfile(profile); err != nil {
		return nil, err
	}

	doctor := &models.Doctor{
		BaseModel: models.BaseModel{ID: models.NewID(models.PrefixDoctor)},
		Name:      strings.TrimSpace(profile.Name),
		Specialty: profile.Specialty,
		Contact:   profile.Contact,
		Email:     profile.Email,
		Schedule:  profile.Schedule,
	}

	if err := r.store.Accounts.LinkDoctor(session.AccountID, doctor); err != nil {
		return nil, translateLinkErr(err)
	}
	return doctor, nil
}

// ResolveScope returns the role and linked entity ID for an account.
// EntityID is "" for admins and accounts with no registered profile.
func (r *LinkageResolver) ResolveScope(accountID string) (Scope, error) {
	account, err := r.store.Accounts.GetByID(accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Scope{}, Errorf(KindUnauthenticated, "unknown account")
		}
		return Scope{}, err
	}
	return Scope{Role: account.Role, EntityID: account.LinkedEntity()}, nil
}

func translateLinkErr(err error) error {
	switch {
	case errors.Is(err, store.ErrAlreadyLinked):
		return Errorf(KindAlreadyLinked, "account already has a linked profile")
	case errors.Is(err, store.ErrNotFound):
		return Errorf(KindUnauthenticated, "unknown account")
	default:
		return err
	}
}

func validatePatientProfile(p PatientProfile) error {
	if strings.TrimSpace(p.Name) == "" {
		return Errorf(KindValidation, "patient name is required")
	}
	if p.Age < 0 || p.Age > 150 {
		return Errorf(KindValidation, "invalid age: must be between 0 and 150")
	}
	if strings.TrimSpace(p.Gender) == "" {
		return Errorf(KindValidation, "gender is required")
	}
	if !contactPattern.MatchString(p.Contact) {
		return Errorf(KindValidation, "contact must be a 10-digit phone number")
	}
	return nil
}

func validateDoctorProfile(d DoctorProfile) error {
	if strings.TrimSpace(d.Name) == "" {
		return Errorf(KindValidation, "doctor name is required")
	}
	if strings.TrimSpace(d.Specialty) == "" {
		return Errorf(KindValidation, "specialty is required")
	}
	if d.Contact != "" && !contactPattern.MatchString(d.Contact) {
		return Errorf(KindValidation, "contact must be a 10-digit phone number")
	}
	return nil
}
