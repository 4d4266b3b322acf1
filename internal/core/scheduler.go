package core

import (
	"errors"
	"time"

	"clinic-records-server/internal/models"
	"clinic-records-server/internal/store"
)

// Scheduler owns the appointment lifecycle: booking with slot-conflict
// detection and the PENDING/CONFIRMED/COMPLETED/CANCELLED status
// machine. All mutations go through the store's atomic primitives, so a
// lost race surfaces as the same error kind as a pre-existing conflict.
type Scheduler struct {
	store   *store.Store
	guard   *Guard
	linkage *LinkageResolver

	// now is swappable for tests.
	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(s *store.Store, guard *Guard, linkage *LinkageResolver) *Scheduler {
	return &Scheduler{store: s, guard: guard, linkage: linkage, now: time.Now}
}

// Book creates a PENDING appointment for (patientID, doctorID, at).
// The instant is truncated to the minute so equal wall-clock slots
// always collide. Exactly one of two concurrent bookings for the same
// doctor and instant succeeds; the other observes SlotConflict.
func (s *Scheduler) Book(session Session, patientID, doctorID string, at time.Time, reason string) (*models.Appointment, error) {
	if err := s.guard.Authorize(session, OpBookAppointment, patientID); err != nil {
		return nil, err
	}

	if doctorID == "" {
		return nil, Errorf(KindValidation, "doctor ID is required")
	}
	if at.IsZero() {
		return nil, Errorf(KindValidation, "appointment date/time is required")
	}
	if at.Before(s.now()) {
		return nil, Errorf(KindValidation, "cannot book an appointment in the past")
	}
	// Truncate only after the past check: an instant later in the
	// current minute is still a valid future booking.
	at = at.Truncate(time.Minute)

	if _, err := s.store.Patients.Get(patientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Errorf(KindNotFound, "patient %s not found", patientID)
		}
		return nil, err
	}
	if _, err := s.store.Doctors.Get(doctorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Errorf(KindNotFound, "doctor %s not found", doctorID)
		}
		return nil, err
	}

	appt := &models.Appointment{
		BaseModel: models.BaseModel{ID: models.NewID(models.PrefixAppointment)},
		PatientID: patientID,
		DoctorID:  doctorID,
		DateTime:  at,
		Reason:    reason,
		Status:    models.StatusPending,
	}

	if err := s.store.Appointments.Create(appt); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return nil, Errorf(KindSlotConflict, "doctor %s already has an active appointment at %s",
				doctorID, at.Format(time.RFC3339))
		}
		return nil, err
	}
	return appt, nil
}

// Confirm moves PENDING -> CONFIRMED. Only the appointment's own doctor
// may confirm; an admin may force it.
func (s *Scheduler) Confirm(session Session, appointmentID string) (*models.Appointment, error) {
	return s.transition(session, appointmentID, OpConfirmAppointment, models.StatusConfirmed)
}

// Complete moves PENDING or CONFIRMED -> COMPLETED. Only the
// appointment's own doctor may complete; an admin may force it.
func (s *Scheduler) Complete(session Session, appointmentID string) (*models.Appointment, error) {
	return s.transition(session, appointmentID, OpCompleteAppointment, models.StatusCompleted)
}

// Cancel moves PENDING or CONFIRMED -> CANCELLED. The appointment's own
// patient or doctor may cancel; an admin may force it. COMPLETED is
// final: cancelling it fails with InvalidTransition.
func (s *Scheduler) Cancel(session Session, appointmentID string) (*models.Appointment, error) {
	return s.transition(session, appointmentID, OpCancelAppointment, models.StatusCancelled)
}

// transition authorizes the actor, checks the legality table, then
// applies the status change as a compare-and-swap. A concurrent loser
// whose expected state was swapped away gets InvalidTransition, same as
// a stale caller.
func (s *Scheduler) transition(session Session, appointmentID string, op Operation, to models.AppointmentStatus) (*models.Appointment, error) {
	appt, err := s.get(appointmentID)
	if err != nil {
		return nil, err
	}

	if err := s.guard.AuthorizeAppointment(session, op, appt); err != nil {
		return nil, err
	}

	if !appt.Status.CanTransitionTo(to) {
		return nil, Errorf(KindInvalidTransition, "cannot move appointment from %s to %s", appt.Status, to)
	}

	legalFrom := make([]models.AppointmentStatus, 0, 2)
	for _, from := range []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed} {
		if from.CanTransitionTo(to) {
			legalFrom = append(legalFrom, from)
		}
	}

	updated, err := s.store.Appointments.UpdateStatusFrom(appointmentID, to, legalFrom...)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrStateConflict):
			return nil, Errorf(KindInvalidTransition, "appointment is no longer in a state that permits %s", to)
		case errors.Is(err, store.ErrNotFound):
			return nil, Errorf(KindNotFound, "appointment %s not found", appointmentID)
		default:
			return nil, err
		}
	}
	return updated, nil
}

// Get returns a single appointment, subject to ownership.
func (s *Scheduler) Get(session Session, appointmentID string) (*models.Appointment, error) {
	appt, err := s.get(appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AuthorizeAppointment(session, OpViewAppointment, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// List returns the appointments visible to the session: a patient sees
// their own, a doctor their own, an admin whatever the filter asks for.
func (s *Scheduler) List(session Session, filter store.AppointmentFilter) ([]models.Appointment, error) {
	if !session.Valid() {
		return nil, Errorf(KindUnauthenticated, "authentication required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, Errorf(KindValidation, "unknown status %q", filter.Status)
	}

	scope, err := s.linkage.ResolveScope(session.AccountID)
	if err != nil {
		return nil, err
	}

	switch scope.Role {
	case models.RolePatient:
		if scope.EntityID == "" {
			return []models.Appointment{}, nil
		}
		filter.PatientID = scope.EntityID
	case models.RoleDoctor:
		if scope.EntityID == "" {
			return []models.Appointment{}, nil
		}
		filter.DoctorID = scope.EntityID
	case models.RoleAdmin:
		// Admins see everything; the filter passes through untouched.
	}

	return s.store.Appointments.List(filter)
}

// Delete removes an appointment outright. Administrative override: it
// bypasses the status machine entirely and works from any state.
func (s *Scheduler) Delete(session Session, appointmentID string) error {
	if err := s.guard.Authorize(session, OpAdminOverride, ""); err != nil {
		return err
	}
	if err := s.store.Appointments.Delete(appointmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Errorf(KindNotFound, "appointment %s not found", appointmentID)
		}
		return err
	}
	return nil
}

func (s *Scheduler) get(appointmentID string) (*models.Appointment, error) {
	appt, err := s.store.Appointments.Get(appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Errorf(KindNotFound, "appointment %s not found", appointmentID)
		}
		return nil, err
	}
	return appt, nil
}
