package core

import (
	"clinic-records-server/internal/models"
)

// Session identifies the authenticated caller of an operation. It is
// passed explicitly into every call; the core keeps no ambient
// "current user" state.
type Session struct {
	AccountID string
	Role      models.Role
}

// Valid reports whether the session carries an authenticated account.
func (s Session) Valid() bool {
	return s.AccountID != "" && s.Role.Valid()
}

// Scope is the entity reach of an account: its role plus the linked
// patient or doctor ID. EntityID is "" for admins and for accounts that
// have not registered a profile yet.
type Scope struct {
	Role     models.Role `json:"role"`
	EntityID string      `json:"entityId,omitempty"`
}
