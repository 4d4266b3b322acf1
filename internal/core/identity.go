package core

import (
	"errors"
	"strings"
	"time"

	"clinic-records-server/internal/models"
	"clinic-records-server/internal/store"
)

// Identity handles account registration and credential checks. Token
// issuance stays in the request layer; Identity only decides whether an
// account exists and whether the caller proved ownership of it.
type Identity struct {
	store *store.Store
}

// NewIdentity creates a new Identity service.
func NewIdentity(s *store.Store) *Identity {
	return &Identity{store: s}
}

// Register creates a new account. A linked entity ID may only be
// supplied by an ADMIN session seeding data, and the referenced entity
// must exist and carry the prefix matching the role. Admin accounts are
// never linked.
func (i *Identity) Register(username, password string, role models.Role, linkedEntityID string, actor *Session) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, Errorf(KindValidation, "username is required")
	}
	if len(password) < 6 {
		return nil, Errorf(KindValidation, "password must be at least 6 characters")
	}
	if !role.Valid() {
		return nil, Errorf(KindValidation, "role must be one of PATIENT, DOCTOR, ADMIN")
	}

	account := &models.Account{
		Username: username,
		Role:     role,
		IsActive: true,
	}

	if linkedEntityID != "" {
		if actor == nil || actor.Role != models.RoleAdmin {
			return nil, Errorf(KindRoleMismatch, "only an admin may register a pre-linked account")
		}
		if role == models.RoleAdmin {
			return nil, Errorf(KindRoleMismatch, "admin accounts are never linked to an entity")
		}
		if err := i.verifyEntity(role, linkedEntityID); err != nil {
			return nil, err
		}
		account.LinkedEntityID = &linkedEntityID
	}

	if err := account.SetPassword(password); err != nil {
		return nil, err
	}

	if err := i.store.Accounts.Create(account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Errorf(KindValidation, "username already exists")
		}
		return nil, err
	}
	return account, nil
}

// Login verifies credentials and returns the account. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (i *Identity) Login(username, password string) (*models.Account, error) {
	if username == "" || password == "" {
		return nil, Errorf(KindValidation, "username and password are required")
	}

	account, err := i.store.Accounts.GetByUsername(username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Errorf(KindInvalidCredentials, "invalid username or password")
		}
		return nil, err
	}

	if !account.CheckPassword(password) {
		return nil, Errorf(KindInvalidCredentials, "invalid username or password")
	}
	if !account.IsActive {
		return nil, Errorf(KindValidation, "account is inactive")
	}

	now := time.Now()
	account.LastLogin = &now
	if err := i.store.Accounts.Update(account); err != nil {
		return nil, err
	}
	return account, nil
}

// Get returns an account by ID.
func (i *Identity) Get(accountID string) (*models.Account, error) {
	account, err := i.store.Accounts.GetByID(accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Errorf(KindNotFound, "account not found")
		}
		return nil, err
	}
	return account, nil
}

// SetActive flips an account's active flag. Deactivated accounts keep
// their data and linkage but cannot log in until reactivated.
func (i *Identity) SetActive(accountID string, active bool) (*models.Account, error) {
	account, err := i.Get(accountID)
	if err != nil {
		return nil, err
	}
	account.IsActive = active
	if err := i.store.Accounts.Update(account); err != nil {
		return nil, err
	}
	return account, nil
}

// verifyEntity checks that a pre-linked entity exists and matches the
// account role's ID prefix.
func (i *Identity) verifyEntity(role models.Role, entityID string) error {
	switch role {
	case models.RolePatient:
		if !strings.HasPrefix(entityID, models.PrefixPatient+"-") {
			return Errorf(KindValidation, "linked entity %q is not a patient ID", entityID)
		}
		if _, err := i.store.Patients.Get(entityID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Errorf(KindNotFound, "patient %s not found", entityID)
			}
			return err
		}
	case models.RoleDoctor:
		if !strings.HasPrefix(entityID, models.PrefixDoctor+"-") {
			return Errorf(KindValidation, "linked entity %q is not a doctor ID", entityID)
		}
		if _, err := i.store.Doctors.Get(entityID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Errorf(KindNotFound, "doctor %s not found", entityID)
			}
			return err
		}
	}
	return nil
}
