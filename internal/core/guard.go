package core

import (
	"clinic-records-server/internal/models"
)

// Operation names an entity-scoped action the guard can rule on.
type Operation string

const (
	OpLinkEntity          Operation = "link_entity"
	OpBookAppointment     Operation = "book_appointment"
	OpViewAppointment     Operation = "view_appointment"
	OpConfirmAppointment  Operation = "confirm_appointment"
	OpCompleteAppointment Operation = "complete_appointment"
	OpCancelAppointment   Operation = "cancel_appointment"
	OpAddHealthRecord     Operation = "add_health_record"
	OpViewHealthRecords   Operation = "view_health_records"
	OpViewPatient         Operation = "view_patient"
	OpViewDoctor          Operation = "view_doctor"
	OpAdminOverride       Operation = "admin_override"
)

// Guard decides which entities a session may read or mutate. It has no
// side effects; its only I/O is the linkage lookup. Every mutating or
// entity-scoped operation in the core consults it first.
type Guard struct {
	linkage *LinkageResolver
}

// NewGuard creates a new Guard.
func NewGuard(linkage *LinkageResolver) *Guard {
	return &Guard{linkage: linkage}
}

// Authorize returns nil when the session may perform op against the
// target entity, or a kinded error explaining the denial. Rules are
// evaluated in order: authentication, then role, then ownership.
func (g *Guard) Authorize(session Session, op Operation, targetEntityID string) error {
	if !session.Valid() {
		return Errorf(KindUnauthenticated, "authentication required")
	}

	scope, err := g.linkage.ResolveScope(session.AccountID)
	if err != nil {
		return err
	}

	switch scope.Role {
	case models.RoleAdmin:
		return authorizeAdmin(op)
	case models.RolePatient:
		return authorizePatient(scope, op, targetEntityID)
	case models.RoleDoctor:
		return authorizeDoctor(scope, op, targetEntityID)
	default:
		return Errorf(KindRoleMismatch, "unknown role %q", scope.Role)
	}
}

// AuthorizeAppointment applies Authorize with the appointment-side
// target that matches the caller's role: a patient is checked against
// the appointment's patientId, a doctor against its doctorId.
func (g *Guard) AuthorizeAppointment(session Session, op Operation, appt *models.Appointment) error {
	if !session.Valid() {
		return Errorf(KindUnauthenticated, "authentication required")
	}
	scope, err := g.linkage.ResolveScope(session.AccountID)
	if err != nil {
		return err
	}

	target := ""
	switch scope.Role {
	case models.RolePatient:
		target = appt.PatientID
	case models.RoleDoctor:
		target = appt.DoctorID
	}
	return g.Authorize(session, op, target)
}

// authorizeAdmin: admins read everything and may force overrides, but
// hold no clinical identity, so identity-bound operations are denied.
func authorizeAdmin(op Operation) error {
	switch op {
	case OpViewAppointment, OpViewHealthRecords, OpViewPatient, OpViewDoctor,
		OpConfirmAppointment, OpCompleteAppointment, OpCancelAppointment,
		OpAdminOverride:
		return nil
	case OpBookAppointment, OpLinkEntity, OpAddHealthRecord:
		return Errorf(KindRoleMismatch, "admin accounts have no patient or doctor identity")
	default:
		return Errorf(KindRoleMismatch, "operation %q not permitted for admin", op)
	}
}

func authorizePatient(scope Scope, op Operation, target string) error {
	switch op {
	case OpLinkEntity:
		if scope.EntityID != "" {
			return Errorf(KindAlreadyLinked, "account already has a linked profile")
		}
		return nil
	case OpViewDoctor:
		// The doctor directory is readable by any authenticated user.
		return nil
	case OpBookAppointment, OpViewAppointment, OpCancelAppointment,
		OpViewHealthRecords, OpViewPatient:
		if scope.EntityID == "" || scope.EntityID != target {
			return Errorf(KindNotOwner, "operation targets a patient other than the account's own")
		}
		return nil
	default:
		return Errorf(KindRoleMismatch, "operation %q not permitted for patients", op)
	}
}

func authorizeDoctor(scope Scope, op Operation, target string) error {
	switch op {
	case OpLinkEntity:
		if scope.EntityID != "" {
			return Errorf(KindAlreadyLinked, "account already has a linked profile")
		}
		return nil
	case OpViewDoctor:
		return nil
	case OpViewHealthRecords, OpViewPatient:
		// Doctors read patient demographics and records as part of the
		// clinical workflow.
		if scope.EntityID == "" {
			return Errorf(KindNotOwner, "doctor account has no linked profile")
		}
		return nil
	case OpViewAppointment, OpConfirmAppointment, OpCompleteAppointment,
		OpCancelAppointment, OpAddHealthRecord:
		if scope.EntityID == "" || scope.EntityID != target {
			return Errorf(KindNotOwner, "operation targets a doctor other than the account's own")
		}
		return nil
	default:
		return Errorf(KindRoleMismatch, "operation %q not permitted for doctors", op)
	}
}
